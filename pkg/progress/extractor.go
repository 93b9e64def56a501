package progress

import (
	"strconv"
	"time"
)

// Extractor folds free-text trainer output into a ProgressState, one line at
// a time. It never fails on a line: sub-extractions that misfire keep the
// prior state and the raw line still flows through in the snapshot.
type Extractor struct {
	state State
	now   func() time.Time
}

// New creates an extractor with an empty state. Begin must be called when a
// run starts.
func New() *Extractor {
	return &Extractor{now: time.Now}
}

// Begin resets the state for a new run. totalEpochs comes from the training
// parameters and acts as the planned total until the trainer reports its own.
func (e *Extractor) Begin(totalEpochs int) {
	if totalEpochs < 0 {
		totalEpochs = 0
	}
	e.state = State{
		TotalEpochs: totalEpochs,
		Metrics:     make(map[string]any),
		StartTime:   e.now(),
	}
}

// State returns a copy of the current state.
func (e *Extractor) State() State {
	st := e.state
	st.Metrics = make(map[string]any, len(e.state.Metrics))
	for k, v := range e.state.Metrics {
		st.Metrics[k] = v
	}
	return st
}

// Process applies every matcher to one output line and returns the resulting
// snapshot. Matchers run in a fixed order and several may contribute to the
// same snapshot.
func (e *Extractor) Process(line string) Snapshot {
	st := &e.state
	if st.Metrics == nil {
		// Tolerate a caller that skipped Begin.
		st.Metrics = make(map[string]any)
		st.StartTime = e.now()
	}

	percent := -1.0
	elapsed := e.now().Sub(st.StartTime)
	var eta *time.Duration

	e.matchOutputDir(line)

	if p, el, rem, ok := e.matchEpochBar(line); ok {
		percent, elapsed, eta = p, el, &rem
	} else if p, remPtr, ok := e.matchEpochHeader(line, elapsed); ok {
		percent, eta = p, remPtr
	}

	e.matchFinalClassRow(line)
	e.matchDetectionSummary(line)
	e.matchPrecisionRecall(line)

	return st.snapshot(line, percent, elapsed, eta)
}

func (e *Extractor) matchOutputDir(line string) {
	if e.state.OutputDir != "" {
		return
	}
	m := outputDirPattern.FindStringSubmatch(line)
	if m == nil {
		return
	}
	dir := m[1]
	if dir == "" {
		// The marker was there but the path was not extractable.
		dir = DefaultOutputDir
	}
	e.state.OutputDir = dir
}

// matchEpochBar handles the structured progress-bar line and returns the
// weighted percent, the trainer's elapsed figure, and its remaining figure.
func (e *Extractor) matchEpochBar(line string) (float64, time.Duration, time.Duration, bool) {
	m := epochBarPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, 0, false
	}
	cur, err1 := strconv.Atoi(m[1])
	total, err2 := strconv.Atoi(m[2])
	loss, err3 := strconv.ParseFloat(m[3], 64)
	batch, err4 := strconv.Atoi(m[5])
	batchTotal, err5 := strconv.Atoi(m[6])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
		return 0, 0, 0, false
	}

	e.setEpochs(cur, total)
	e.state.Metrics["loss"] = loss

	percent := -1.0
	if e.state.TotalEpochs > 0 && batchTotal > 0 {
		frac := float64(e.state.CurrentEpoch-1) + float64(batch)/float64(batchTotal)
		percent = frac / float64(e.state.TotalEpochs) * 100
	}

	elapsed := minSec(m[7], m[8])
	remaining := minSec(m[9], m[10])
	return percent, elapsed, remaining, true
}

// matchEpochHeader handles the "Epoch 5/100" form with optional key=value
// metrics, estimating ETA from elapsed wall time when possible.
func (e *Extractor) matchEpochHeader(line string, elapsed time.Duration) (float64, *time.Duration, bool) {
	m := epochHeaderPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, nil, false
	}
	cur, err1 := strconv.Atoi(m[1])
	total, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return 0, nil, false
	}

	e.setEpochs(cur, total)

	for _, kv := range kvMetricPattern.FindAllStringSubmatch(line, -1) {
		if v, err := strconv.ParseFloat(kv[2], 64); err == nil {
			e.state.Metrics[kv[1]] = v
		} else {
			e.state.Metrics[kv[1]] = kv[2]
		}
	}

	percent := -1.0
	var eta *time.Duration
	if e.state.TotalEpochs > 0 {
		percent = float64(e.state.CurrentEpoch) / float64(e.state.TotalEpochs) * 100
		if e.state.CurrentEpoch > 0 {
			perEpoch := elapsed / time.Duration(e.state.CurrentEpoch)
			rem := perEpoch * time.Duration(e.state.TotalEpochs-e.state.CurrentEpoch)
			eta = &rem
		}
		// ETA stays nil while CurrentEpoch is 0: still computing.
	}
	return percent, eta, true
}

// matchFinalClassRow handles the classification validation summary
// ("all <top1> <top5>"). The two accuracies are also mirrored into the
// detection metric vocabulary because the display consumes a uniform set;
// the duplicated values are a compatibility shim, not real mAP numbers.
func (e *Extractor) matchFinalClassRow(line string) {
	m := finalClassPattern.FindStringSubmatch(line)
	if m == nil {
		return
	}
	top1, err1 := strconv.ParseFloat(m[1], 64)
	top5, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return
	}
	e.state.Metrics["top1_acc"] = top1
	e.state.Metrics["top5_acc"] = top5
	e.state.Metrics["precision"] = top1
	e.state.Metrics["recall"] = top5
	e.state.Metrics["mAP50"] = top5
	e.state.Metrics["mAP50-95"] = top1
}

func (e *Extractor) matchDetectionSummary(line string) {
	m := detSummaryPattern.FindStringSubmatch(line)
	if m == nil {
		return
	}
	map50, err1 := strconv.ParseFloat(m[1], 64)
	map5095, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return
	}
	e.state.Metrics["mAP50"] = map50
	e.state.Metrics["mAP50-95"] = map5095
}

func (e *Extractor) matchPrecisionRecall(line string) {
	m := precisionRecallPattern.FindStringSubmatch(line)
	if m == nil {
		return
	}
	prec, err1 := strconv.ParseFloat(m[1], 64)
	rec, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return
	}
	e.state.Metrics["precision"] = prec
	e.state.Metrics["recall"] = rec
}

// setEpochs overwrites both counters, clamping so the current epoch never
// exceeds a known total.
func (e *Extractor) setEpochs(cur, total int) {
	if cur < 0 {
		cur = 0
	}
	if total < 0 {
		total = 0
	}
	if total > 0 && cur > total {
		cur = total
	}
	e.state.CurrentEpoch = cur
	e.state.TotalEpochs = total
}

func minSec(minutes, seconds string) time.Duration {
	m, err1 := strconv.Atoi(minutes)
	s, err2 := strconv.Atoi(seconds)
	if err1 != nil || err2 != nil {
		return 0
	}
	return time.Duration(m)*time.Minute + time.Duration(s)*time.Second
}
