package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DR-lin-eng/yologui/internal/observability"
	"github.com/DR-lin-eng/yologui/pkg/manager"
	"github.com/DR-lin-eng/yologui/pkg/supervisor"
	"github.com/DR-lin-eng/yologui/pkg/trainparams"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Launch a training run and stream its progress",
	Long: `Launch the external trainer with the given parameters, stream its raw
output, and print a structured summary when the run ends.

Example:
  yologui train --data datasets/coco.yaml --epochs 100
  yologui train --data datasets/cards --task classify --model yolov8n.pt`,
	RunE: runTrain,
}

var (
	trainData    string
	trainTask    string
	trainModel   string
	trainEpochs  int
	trainBatch   int
	trainImgSize int
	trainDevice  string
	trainProject string
	trainName    string
	trainResume  bool
)

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().StringVar(&trainData, "data", "", "Dataset config file or folder (required)")
	trainCmd.Flags().StringVar(&trainTask, "task", "detect", "Task type (detect|segment|classify|pose)")
	trainCmd.Flags().StringVar(&trainModel, "model", "yolov8n.pt", "Model weights or variant name")
	trainCmd.Flags().IntVar(&trainEpochs, "epochs", 100, "Number of training epochs")
	trainCmd.Flags().IntVar(&trainBatch, "batch", 16, "Batch size")
	trainCmd.Flags().IntVar(&trainImgSize, "imgsz", 0, "Input image size (0 = task default)")
	trainCmd.Flags().StringVar(&trainDevice, "device", "", "Training device, e.g. cuda:0 (empty = auto)")
	trainCmd.Flags().StringVar(&trainProject, "project", "", "Results directory (default from config)")
	trainCmd.Flags().StringVar(&trainName, "name", "exp", "Experiment name")
	trainCmd.Flags().BoolVar(&trainResume, "resume", false, "Resume the previous run")

	_ = trainCmd.MarkFlagRequired("data")
}

func runTrain(cmd *cobra.Command, args []string) error {
	params := trainparams.Defaults()
	params.DataPath = trainData
	params.Task = trainparams.Task(trainTask)
	params.Model = trainModel
	params.Epochs = trainEpochs
	params.Batch = trainBatch
	if trainImgSize > 0 {
		params.ImgSize = trainImgSize
	}
	params.Device = trainDevice
	params.Project = cfg.Trainer.Project
	if trainProject != "" {
		params.Project = trainProject
	}
	params.Name = trainName
	params.Resume = trainResume

	trainerCmd, err := trainparams.BuildCommand(params, cfg.Trainer.Binary)
	if err != nil {
		return err
	}

	observability.Log.Debug("trainer command assembled",
		zap.String("program", trainerCmd.Program),
		zap.Strings("args", trainerCmd.Args))

	sup := supervisor.New(cfg.Trainer.StopGracePeriod, observability.Log)
	mgr := manager.New(sup, observability.Log)

	session, err := mgr.Start(trainerCmd, params.Epochs)
	if err != nil {
		return err
	}

	// Ctrl-C cancels the run; the run's outcome then reports Cancelled
	// rather than a failure.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		session.Stop()
	}()

	for line := range session.Lines() {
		fmt.Println(line)
	}

	out := <-session.Outcome()
	printRunSummary(session, out)

	if out.Kind == supervisor.OutcomeFailed || out.Kind == supervisor.OutcomeLaunchFailed {
		return fmt.Errorf("training %s", out.Kind)
	}
	return nil
}

func printRunSummary(session *manager.Session, out supervisor.Outcome) {
	snap := session.Latest()

	fmt.Println()
	fmt.Printf("Run:      %s\n", session.ID())
	fmt.Printf("Outcome:  %s", out.Kind)
	if out.Kind == supervisor.OutcomeFailed {
		fmt.Printf(" (exit code %d)", out.ExitCode)
	}
	fmt.Println()
	if snap.TotalEpochs > 0 {
		fmt.Printf("Epochs:   %d/%d\n", snap.CurrentEpoch, snap.TotalEpochs)
	}
	fmt.Printf("Elapsed:  %s\n", snap.Elapsed.Round(time.Second))
	if snap.OutputDir != "" {
		fmt.Printf("Results:  %s\n", snap.OutputDir)
	}
	if len(snap.Metrics) > 0 {
		keys := make([]string, 0, len(snap.Metrics))
		for k := range snap.Metrics {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Println("Metrics:")
		for _, k := range keys {
			fmt.Printf("  %-10s %v\n", k, snap.Metrics[k])
		}
	}
}
