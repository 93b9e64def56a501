package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DR-lin-eng/yologui/pkg/datacfg"
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Dataset configuration helpers",
}

var datasetInitCmd = &cobra.Command{
	Use:   "init <folder>",
	Short: "Generate a dataset YAML from a class-folder tree",
	Long: `Generate a trainer dataset config from a folder of class directories.
A flat tree (one folder per class) is split in place into train/ and val/;
a pre-split tree (train/, val/ already present) is described as-is.`,
	Args: cobra.ExactArgs(1),
	RunE: runDatasetInit,
}

var (
	datasetValSplit float64
	datasetOut      string
)

func init() {
	rootCmd.AddCommand(datasetCmd)
	datasetCmd.AddCommand(datasetInitCmd)

	datasetInitCmd.Flags().Float64Var(&datasetValSplit, "val-split", 0.2, "Fraction of images moved to the validation set")
	datasetInitCmd.Flags().StringVar(&datasetOut, "out", "", "Output YAML path (default <folder>/data.yaml)")
}

func runDatasetInit(cmd *cobra.Command, args []string) error {
	root := args[0]

	cfg, err := datacfg.Generate(root, datasetValSplit)
	if err != nil {
		return err
	}

	out := datasetOut
	if out == "" {
		out = filepath.Join(root, "data.yaml")
	}
	if err := cfg.Save(out); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", out)
	fmt.Printf("Classes (%d): %s\n", cfg.NC, strings.Join(cfg.Names, ", "))
	return nil
}
