package supervisor

import "fmt"

// OutcomeKind is the terminal classification of a run. Exactly one outcome
// is reported per run and the four kinds are mutually exclusive.
type OutcomeKind int

const (
	// OutcomeSucceeded: exit code 0 with no stop request.
	OutcomeSucceeded OutcomeKind = iota
	// OutcomeFailed: nonzero exit code with no stop request.
	OutcomeFailed
	// OutcomeCancelled: any exit after a stop request, whatever the code.
	OutcomeCancelled
	// OutcomeLaunchFailed: the process never started.
	OutcomeLaunchFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeLaunchFailed:
		return "launch_failed"
	}
	return fmt.Sprintf("OutcomeKind(%d)", int(k))
}

// Outcome is the single terminal event of a run.
type Outcome struct {
	Kind     OutcomeKind
	ExitCode int
	Err      error
}

// Succeeded is true only for a clean, uncancelled exit.
func (o Outcome) Succeeded() bool { return o.Kind == OutcomeSucceeded }

// Outcome classifies the finished run. Valid only after Wait has returned;
// calling it earlier blocks until the process is reaped.
func (r *Run) Outcome() Outcome {
	code := r.Wait()
	switch {
	case r.stopRequested.Load():
		return Outcome{Kind: OutcomeCancelled, ExitCode: code}
	case code == 0:
		return Outcome{Kind: OutcomeSucceeded}
	default:
		return Outcome{
			Kind:     OutcomeFailed,
			ExitCode: code,
			Err:      fmt.Errorf("trainer exited with code %d", code),
		}
	}
}

// LaunchFailure wraps a launch error as a terminal outcome for consumers
// that report every run through the same channel.
func LaunchFailure(err error) Outcome {
	return Outcome{Kind: OutcomeLaunchFailed, ExitCode: -1, Err: err}
}
