package progress

import "time"

// State is the running view of one training run. Owned by the extractor;
// everything published outside is a Snapshot copy.
type State struct {
	// CurrentEpoch and TotalEpochs are overwritten wholesale whenever a new
	// epoch header is recognized, never incremented. TotalEpochs 0 means
	// unknown. CurrentEpoch never exceeds TotalEpochs once the total is known.
	CurrentEpoch int
	TotalEpochs  int

	// Metrics accumulates across lines; last-seen value wins. Values are
	// float64 for parsed numbers, string otherwise. Cleared only when a new
	// run begins.
	Metrics map[string]any

	StartTime time.Time

	// OutputDir is set at most once, when the trainer announces where
	// results are saved.
	OutputDir string
}

// Snapshot is the immutable per-line emission: a copy of the state plus the
// raw line and derived timing values.
type Snapshot struct {
	// Line is the raw (lossily decoded) output line, always present even
	// when nothing in it was recognized.
	Line string

	CurrentEpoch int
	TotalEpochs  int
	Metrics      map[string]any
	OutputDir    string

	// Percent is overall completion in [0,100]; negative means unknown.
	Percent float64

	// Elapsed is time since the run began, or the trainer's own elapsed
	// figure when the line carries one.
	Elapsed time.Duration

	// ETA is the estimated time remaining; nil while still computing.
	ETA *time.Duration
}

// Metric returns a named metric as float64.
func (s Snapshot) Metric(name string) (float64, bool) {
	v, ok := s.Metrics[name].(float64)
	return v, ok
}

func (s *State) snapshot(line string, percent float64, elapsed time.Duration, eta *time.Duration) Snapshot {
	metrics := make(map[string]any, len(s.Metrics))
	for k, v := range s.Metrics {
		metrics[k] = v
	}
	return Snapshot{
		Line:         line,
		CurrentEpoch: s.CurrentEpoch,
		TotalEpochs:  s.TotalEpochs,
		Metrics:      metrics,
		OutputDir:    s.OutputDir,
		Percent:      percent,
		Elapsed:      elapsed,
		ETA:          eta,
	}
}
