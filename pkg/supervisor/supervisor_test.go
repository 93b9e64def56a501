package supervisor

import (
	"errors"
	"testing"
	"time"
)

func collectLines(t *testing.T, ch <-chan string) []string {
	t.Helper()
	var all []string
	for line := range ch {
		all = append(all, line)
	}
	return all
}

func TestStartAndLines(t *testing.T) {
	s := New(time.Second, nil)

	run, err := s.Start(Command{
		Program: "sh",
		Args:    []string{"-c", "echo out; echo err 1>&2"},
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	lines := collectLines(t, run.Lines())
	if len(lines) != 2 {
		t.Fatalf("expected 2 merged lines, got %v", lines)
	}
	seen := map[string]bool{}
	for _, l := range lines {
		seen[l] = true
	}
	if !seen["out"] || !seen["err"] {
		t.Fatalf("expected stdout and stderr merged, got %v", lines)
	}

	if code := run.Wait(); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if out := run.Outcome(); out.Kind != OutcomeSucceeded {
		t.Fatalf("expected Succeeded, got %v", out.Kind)
	}
}

func TestStartMissingBinary(t *testing.T) {
	s := New(time.Second, nil)

	_, err := s.Start(Command{Program: "definitely-not-a-real-binary-xyz"})
	if err == nil {
		t.Fatalf("expected launch error")
	}
	var launchErr *LaunchError
	if !errors.As(err, &launchErr) {
		t.Fatalf("expected *LaunchError, got %T: %v", err, err)
	}
	if s.Active() != nil {
		t.Fatalf("failed launch must leave no active run")
	}
}

func TestEnvOverridesReachChild(t *testing.T) {
	s := New(time.Second, nil)

	run, err := s.Start(Command{
		Program: "sh",
		Args:    []string{"-c", `echo "dev=$CUDA_VISIBLE_DEVICES"`},
		Env:     map[string]string{"CUDA_VISIBLE_DEVICES": "1"},
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	lines := collectLines(t, run.Lines())
	if len(lines) != 1 || lines[0] != "dev=1" {
		t.Fatalf("expected env override visible to child, got %v", lines)
	}
}

func TestStopCancelsRun(t *testing.T) {
	s := New(500*time.Millisecond, nil)

	run, err := s.Start(Command{Program: "sh", Args: []string{"-c", "sleep 30"}})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !run.Running() {
		t.Fatalf("expected run to be alive")
	}

	run.Stop()

	code, done := run.WaitTimeout(3 * time.Second)
	if !done {
		t.Fatalf("process did not exit after Stop")
	}
	if code == 0 {
		t.Fatalf("expected nonzero exit code after kill, got %d", code)
	}
	if out := run.Outcome(); out.Kind != OutcomeCancelled {
		t.Fatalf("stopped run must report Cancelled, got %v", out.Kind)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	s := New(500*time.Millisecond, nil)

	run, err := s.Start(Command{Program: "sh", Args: []string{"-c", "sleep 30"}})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	run.Stop()
	run.Stop()
	run.Stop()

	if _, done := run.WaitTimeout(3 * time.Second); !done {
		t.Fatalf("process did not exit after Stop")
	}
}

func TestCancelledWinsOverExitCode(t *testing.T) {
	s := New(200*time.Millisecond, nil)

	// The child ignores SIGTERM and exits nonzero once SIGKILL arrives, or
	// would exit 7 on its own; either way the stop request must classify
	// the run as cancelled, never failed.
	run, err := s.Start(Command{
		Program: "sh",
		Args:    []string{"-c", "trap 'exit 7' TERM; sleep 30 & wait"},
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	run.Stop()
	if _, done := run.WaitTimeout(3 * time.Second); !done {
		t.Fatalf("process did not exit after Stop")
	}
	if out := run.Outcome(); out.Kind != OutcomeCancelled {
		t.Fatalf("expected Cancelled regardless of exit code, got %v", out.Kind)
	}
}

func TestFailedRunReportsExitCode(t *testing.T) {
	s := New(time.Second, nil)

	run, err := s.Start(Command{Program: "sh", Args: []string{"-c", "exit 3"}})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	out := run.Outcome()
	if out.Kind != OutcomeFailed {
		t.Fatalf("expected Failed, got %v", out.Kind)
	}
	if out.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", out.ExitCode)
	}
	if out.Err == nil {
		t.Fatalf("expected failure error")
	}
}

func TestStartReplacesRunningProcess(t *testing.T) {
	s := New(500*time.Millisecond, nil)

	first, err := s.Start(Command{Program: "sh", Args: []string{"-c", "sleep 30"}})
	if err != nil {
		t.Fatalf("first Start failed: %v", err)
	}

	second, err := s.Start(Command{Program: "sh", Args: []string{"-c", "echo hi"}})
	if err != nil {
		t.Fatalf("second Start failed: %v", err)
	}

	// The first run must already be terminal by the time Start returns.
	if first.Running() {
		t.Fatalf("first run still alive after replacement")
	}
	if out := first.Outcome(); out.Kind != OutcomeCancelled {
		t.Fatalf("replaced run must be Cancelled, got %v", out.Kind)
	}

	if out := second.Outcome(); out.Kind != OutcomeSucceeded {
		t.Fatalf("second run should succeed, got %v", out.Kind)
	}
	if s.Active() != second {
		t.Fatalf("Active should be the second run")
	}
}
