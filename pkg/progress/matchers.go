package progress

import "regexp"

// Each recognized line shape gets its own pattern, matched independently and
// unit-tested against literal sample lines. Unrecognized lines pass through
// with state unchanged; that fallback is a permanent invariant of the
// grammar, not an error path.
var (
	// "Results saved to runs/train/exp3". The path group is permissive so a
	// malformed tail falls back to a default instead of dropping the event.
	outputDirPattern = regexp.MustCompile(`Results saved to\s*(\S*)`)

	// Structured per-batch progress bar:
	//   5/100   1.2G   0.431   16   640:  50%|█████     | 45/90 [00:30<00:30, 1.50it/s]
	// Groups: epoch, total epochs, loss, bar percent, batch, total batches,
	// elapsed mm:ss, remaining mm:ss.
	epochBarPattern = regexp.MustCompile(
		`^\s*(\d+)/(\d+)\s+\S+\s+([0-9]+(?:\.[0-9]+)?).*?\s(\d+)%\|.*?\|\s*(\d+)/(\d+)\s+\[(\d+):(\d+)<(\d+):(\d+)`)

	// Older trainer builds print a plain "Epoch 5/100" header with
	// key=value metrics on the same line.
	epochHeaderPattern = regexp.MustCompile(`Epoch\s+(\d+)/(\d+)`)
	kvMetricPattern    = regexp.MustCompile(`(\w+)=([0-9]+(?:\.[0-9]+)?)`)

	// Final classification validation row: "all 0.911 0.983".
	finalClassPattern = regexp.MustCompile(`^\s*all\s+([0-9]*\.[0-9]+)\s+([0-9]*\.[0-9]+)\s*$`)

	// Detection/segmentation summary carrying both mAP thresholds.
	detSummaryPattern = regexp.MustCompile(`\bmAP50[:=\s]\s*([0-9]*\.?[0-9]+).*?mAP50-95[:=\s]\s*([0-9]*\.?[0-9]+)`)

	// Standalone precision/recall pair.
	precisionRecallPattern = regexp.MustCompile(`(?i)\bprecision[:=\s]\s*([0-9]*\.?[0-9]+).*?\brecall[:=\s]\s*([0-9]*\.?[0-9]+)`)
)

// DefaultOutputDir is substituted when the "Results saved to" shape matches
// but the path itself cannot be extracted.
const DefaultOutputDir = "runs/train/exp"
