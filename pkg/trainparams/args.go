package trainparams

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Args renders the parameter set as the trainer's `key=value` argument list.
// Booleans and thresholds are emitted only when they differ from the trainer
// defaults; always-relevant numerics are emitted unconditionally, matching
// what the trainer front-end has always sent.
func (p Params) Args() []string {
	args := make([]string, 0, 32)
	add := func(key string, value any) {
		args = append(args, fmt.Sprintf("%s=%v", key, value))
	}

	// Data
	add("batch", p.Batch)
	add("imgsz", p.EffectiveImgSize())
	if p.Cache {
		add("cache", "True")
	}
	if p.SingleCls {
		add("single_cls", "True")
	}
	if p.Rect {
		add("rect", "True")
	}
	if p.Fraction < 1.0 {
		add("fraction", trimFloat(p.Fraction))
	}

	// Model
	if !p.Pretrained {
		add("pretrained", "False")
	}
	if p.Resume {
		add("resume", "True")
	}

	// Training
	add("epochs", p.Epochs)
	add("patience", p.Patience)
	add("optimizer", p.Optimizer)
	add("lr0", trimFloat(p.LR0))
	add("lrf", trimFloat(p.LRF))
	add("momentum", trimFloat(p.Momentum))
	add("weight_decay", trimFloat(p.WeightDecay))
	add("warmup_epochs", trimFloat(p.WarmupEpochs))
	add("warmup_momentum", trimFloat(p.WarmupMomentum))
	add("warmup_bias_lr", trimFloat(p.WarmupBiasLR))
	if p.Device != "" {
		add("device", p.Device)
	}
	if p.CosLR {
		add("cos_lr", "True")
	}
	if p.CloseMosaic > 0 {
		add("close_mosaic", p.CloseMosaic)
	}
	if !p.AMP {
		add("amp", "False")
	}

	// Hyper-parameters, in stable order.
	keys := make([]string, 0, len(p.Hyp))
	for k := range p.Hyp {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		add(k, trimFloat(p.Hyp[k]))
	}

	// Saving
	add("project", NormalizePath(p.Project))
	add("name", p.Name)
	if p.ExistOK {
		add("exist_ok", "True")
	}
	if p.SavePeriod > 0 {
		add("save_period", p.SavePeriod)
	}

	// Visualisation
	if !p.Plots {
		add("plots", "False")
	}
	if p.NoVal {
		add("noval", "True")
	}

	// Advanced
	add("nbs", p.NBS)
	if !p.OverlapMask {
		add("overlap_mask", "False")
	}
	add("mask_ratio", p.MaskRatio)
	if p.Dropout > 0 {
		add("dropout", trimFloat(p.Dropout))
	}
	if !p.Val {
		add("val", "False")
	}
	if p.Seed != 0 {
		add("seed", p.Seed)
	}
	add("workers", p.Workers)
	if !p.Deterministic {
		add("deterministic", "False")
	}

	return args
}

// NormalizePath rewrites backslash paths to forward slashes and trims a
// trailing separator. The trainer mis-handles escaped backslashes in
// `key=value` arguments on Windows-authored configs.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
