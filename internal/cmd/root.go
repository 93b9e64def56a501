// Package cmd wires the yologui commands: train, dataset, doctor, serve.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/DR-lin-eng/yologui/internal/config"
	"github.com/DR-lin-eng/yologui/internal/observability"
)

var (
	cfgFile  string
	logLevel string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "yologui",
	Short:         "Supervise YOLO training runs and report structured progress",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if logLevel != "" {
			c.Logging.Level = logLevel
		}
		cfg = c
		return observability.Init(cfg.Logging.Level, cfg.Logging.Format)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug|info|warn|error)")
}

// Execute runs the CLI.
func Execute() error {
	defer observability.Sync()
	return rootCmd.Execute()
}
