// Package trainparams carries the training parameter set and turns it into
// the ultralytics-style `key=value` command line the trainer expects.
package trainparams

// Task is the trainer task type.
type Task string

const (
	TaskDetect   Task = "detect"
	TaskSegment  Task = "segment"
	TaskClassify Task = "classify"
	TaskPose     Task = "pose"
)

// Params is one training configuration. Zero values are not meaningful;
// start from Defaults and override.
type Params struct {
	// Data
	DataPath  string
	Batch     int
	ImgSize   int
	Cache     bool
	SingleCls bool
	Rect      bool
	Fraction  float64

	// Model
	Model      string
	Task       Task
	Pretrained bool
	Resume     bool

	// Training
	Epochs         int
	Patience       int
	Optimizer      string
	LR0            float64
	LRF            float64
	Momentum       float64
	WeightDecay    float64
	WarmupEpochs   float64
	WarmupMomentum float64
	WarmupBiasLR   float64
	Device         string
	CosLR          bool
	CloseMosaic    int
	AMP            bool

	// Augmentation hyper-parameters, always forwarded.
	Hyp map[string]float64

	// Saving
	Project    string
	Name       string
	ExistOK    bool
	SavePeriod int

	// Visualisation
	Plots bool
	NoVal bool

	// Advanced
	NBS           int
	OverlapMask   bool
	MaskRatio     int
	Dropout       float64
	Val           bool
	Seed          int
	Workers       int
	Deterministic bool
}

// ClassifyImgSize is the default input size for classification tasks; other
// tasks default to 640.
const ClassifyImgSize = 224

// Defaults returns the parameter set the trainer assumes when a key is not
// passed. These values track the upstream trainer's own defaults.
func Defaults() Params {
	return Params{
		Batch:    16,
		ImgSize:  640,
		Fraction: 1.0,

		Model:      "yolov8n.pt",
		Task:       TaskDetect,
		Pretrained: true,

		Epochs:         100,
		Patience:       50,
		Optimizer:      "SGD",
		LR0:            0.01,
		LRF:            0.01,
		Momentum:       0.937,
		WeightDecay:    0.0005,
		WarmupEpochs:   3.0,
		WarmupMomentum: 0.8,
		WarmupBiasLR:   0.1,
		CloseMosaic:    10,
		AMP:            true,

		Hyp: map[string]float64{
			"hsv_h":      0.015,
			"hsv_s":      0.7,
			"hsv_v":      0.4,
			"degrees":    0.0,
			"translate":  0.1,
			"scale":      0.5,
			"fliplr":     0.5,
			"flipud":     0.0,
			"mosaic":     1.0,
			"mixup":      0.0,
			"copy_paste": 0.0,
		},

		Project: "runs/train",
		Name:    "exp",

		SavePeriod: -1,
		Plots:      true,

		NBS:           64,
		OverlapMask:   true,
		MaskRatio:     4,
		Val:           true,
		Workers:       8,
		Deterministic: true,
	}
}

// IsClassification reports whether this configuration trains a classifier.
func (p Params) IsClassification() bool { return p.Task == TaskClassify }
