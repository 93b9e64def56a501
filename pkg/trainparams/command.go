package trainparams

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/DR-lin-eng/yologui/pkg/datacfg"
	"github.com/DR-lin-eng/yologui/pkg/supervisor"
)

// ErrNoData is returned when a configuration names no dataset.
var ErrNoData = errors.New("no dataset configured")

// BuildCommand assembles the full trainer invocation for a parameter set.
//
// The `yolo` binary is preferred when present on PATH; otherwise the module
// form `python -m ultralytics` is used. Classification runs get a `-cls`
// model variant and the classification input size unless overridden.
func BuildCommand(p Params, trainerBin string) (supervisor.Command, error) {
	if p.DataPath == "" && !p.Resume {
		return supervisor.Command{}, ErrNoData
	}

	program, lead := resolveTrainer(trainerBin)

	task := p.Task
	if task == "" {
		task = TaskDetect
	}

	args := append(lead, string(task), "train")
	if p.DataPath != "" {
		args = append(args, "data="+p.dataArg())
	}
	args = append(args, "model="+p.modelArg())
	args = append(args, p.Args()...)

	env := map[string]string{
		// The trainer mangles non-ASCII paths without an explicit encoding.
		"PYTHONIOENCODING": "utf-8",
	}
	if p.Device != "" && p.Device != "cpu" {
		env["CUDA_VISIBLE_DEVICES"] = strings.TrimPrefix(p.Device, "cuda:")
	}

	return supervisor.Command{Program: program, Args: args, Env: env}, nil
}

// resolveTrainer picks the trainer entry point: the configured binary if it
// resolves, else the python module fallback.
func resolveTrainer(trainerBin string) (string, []string) {
	if trainerBin == "" {
		trainerBin = "yolo"
	}
	if _, err := exec.LookPath(trainerBin); err == nil {
		return trainerBin, nil
	}
	python := "python3"
	if _, err := exec.LookPath(python); err != nil {
		python = "python"
	}
	return python, []string{"-m", "ultralytics"}
}

// dataArg returns the data argument. The classification trainer wants a
// dataset directory, so a classify run pointed at a YAML file is resolved to
// the directory the config describes; if the file cannot be read the raw
// path is passed through and the trainer reports the problem itself.
func (p Params) dataArg() string {
	data := NormalizePath(p.DataPath)
	if p.IsClassification() && strings.HasSuffix(strings.ToLower(data), ".yaml") {
		if dir, err := datacfg.ResolveDataDir(p.DataPath); err == nil {
			return NormalizePath(dir)
		}
	}
	return data
}

// modelArg returns the model argument, forcing the classification variant
// for classify tasks the way the trainer's own tooling names them
// (yolov8n.pt -> yolov8n-cls.pt).
func (p Params) modelArg() string {
	model := p.Model
	if model == "" {
		model = "yolov8n.pt"
	}
	if !p.IsClassification() || strings.Contains(model, "cls") {
		return model
	}
	base := model
	if idx := strings.LastIndex(model, "."); idx > 0 {
		base = model[:idx]
	}
	if strings.HasSuffix(base, "-cls") {
		return fmt.Sprintf("%s.pt", base)
	}
	return fmt.Sprintf("%s-cls.pt", base)
}

// EffectiveImgSize applies the classification default when the caller left
// the detection default in place.
func (p Params) EffectiveImgSize() int {
	if p.IsClassification() && (p.ImgSize == 0 || p.ImgSize == 640) {
		return ClassifyImgSize
	}
	if p.ImgSize == 0 {
		return 640
	}
	return p.ImgSize
}
