package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DR-lin-eng/yologui/pkg/envprobe"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the training environment",
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	st := envprobe.New().Check(cfg.Trainer.Binary)

	fmt.Println("=== Environment ===")
	printProbe("trainer", st.TrainerPath)
	printProbe("python", st.PythonPath)
	if st.CUDAAvailable {
		fmt.Printf("%-10s ok (driver %s)\n", "cuda", st.DriverVersion)
	} else {
		fmt.Printf("%-10s not detected (training will use CPU)\n", "cuda")
	}
	if st.CUDAVersion != "" {
		fmt.Printf("%-10s %s\n", "toolkit", st.CUDAVersion)
	}

	if st.TrainerPath == "" && st.PythonPath == "" {
		return fmt.Errorf("neither %q nor a python interpreter found on PATH", cfg.Trainer.Binary)
	}
	return nil
}

func printProbe(name, path string) {
	if path == "" {
		fmt.Printf("%-10s not found\n", name)
		return
	}
	fmt.Printf("%-10s %s\n", name, path)
}
