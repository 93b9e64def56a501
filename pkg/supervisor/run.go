package supervisor

import (
	"errors"
	"os/exec"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Run is one supervised trainer invocation from launch to exit.
type Run struct {
	ID      string
	Command Command

	cmd   *exec.Cmd
	pid   int
	log   *LineLog
	grace time.Duration

	stopRequested atomic.Bool
	done          chan struct{}
	exitCode      int
	started       time.Time

	logger *zap.Logger
}

func (s *Supervisor) launch(command Command) (*Run, error) {
	cmd := exec.Command(command.Program, command.Args...)
	cmd.Dir = command.Dir
	cmd.Env = command.environ()
	// New process group so Stop can signal the trainer together with any
	// data-loader workers it forks.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	log := NewLineLog()
	cmd.Stdout = log
	cmd.Stderr = log

	run := &Run{
		ID:      uuid.NewString(),
		Command: command,
		cmd:     cmd,
		log:     log,
		grace:   s.grace,
		done:    make(chan struct{}),
		started: time.Now(),
		logger:  s.logger,
	}

	if err := cmd.Start(); err != nil {
		log.Close()
		return nil, &LaunchError{Program: command.Program, Err: err}
	}
	run.pid = cmd.Process.Pid

	s.logger.Info("trainer started",
		zap.String("run_id", run.ID),
		zap.Int("pid", run.pid),
		zap.String("program", command.Program))

	go run.reap()
	return run, nil
}

// reap waits for the process, records the exit code, and closes the line
// log. Runs exactly once per Run, on its own goroutine.
func (r *Run) reap() {
	err := r.cmd.Wait()

	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		} else {
			// Wait failed for a non-exit reason (I/O on the pipes); the
			// process is gone either way.
			code = -1
			r.logger.Warn("wait returned non-exit error",
				zap.String("run_id", r.ID), zap.Error(err))
		}
	}

	// Wait has already collected the copy goroutines, so every output byte
	// is in the log before it closes.
	r.log.Close()

	r.exitCode = code
	close(r.done)

	r.logger.Info("trainer exited",
		zap.String("run_id", r.ID),
		zap.Int("exit_code", code),
		zap.Bool("stop_requested", r.stopRequested.Load()))
}

// Lines subscribes to the merged stdout/stderr stream. Every line from the
// start of the run is replayed, then live lines follow; the channel closes
// when the process exits and the log drains.
func (r *Run) Lines() <-chan string {
	return r.log.Subscribe(64)
}

// Log exposes the full line log for replay-style consumers.
func (r *Run) Log() *LineLog { return r.log }

// PID returns the child's process id.
func (r *Run) PID() int { return r.pid }

// StartedAt returns the launch timestamp.
func (r *Run) StartedAt() time.Time { return r.started }

// Running reports whether the process has not yet been reaped.
func (r *Run) Running() bool {
	select {
	case <-r.done:
		return false
	default:
		return true
	}
}

// StopRequested reports whether Stop has been called.
func (r *Run) StopRequested() bool { return r.stopRequested.Load() }

// Stop requests cooperative termination: SIGTERM to the process group, then
// SIGKILL if the process outlives the grace period. Idempotent; blocks at
// most one grace period. Callers needing the exit code still call Wait.
func (r *Run) Stop() {
	if !r.stopRequested.CompareAndSwap(false, true) {
		return
	}
	if !r.Running() {
		return
	}

	r.logger.Info("stopping trainer", zap.String("run_id", r.ID), zap.Int("pid", r.pid))
	// Negative pid addresses the whole process group.
	_ = unix.Kill(-r.pid, unix.SIGTERM)

	select {
	case <-r.done:
	case <-time.After(r.grace):
		r.logger.Warn("grace period expired, killing trainer",
			zap.String("run_id", r.ID), zap.Int("pid", r.pid))
		_ = unix.Kill(-r.pid, unix.SIGKILL)
	}
}

// Wait blocks until the process has been reaped and returns its exit code.
func (r *Run) Wait() int {
	<-r.done
	return r.exitCode
}

// WaitTimeout waits up to d for the process to be reaped. The second result
// is false if it is still running; that is reportable, not fatal.
func (r *Run) WaitTimeout(d time.Duration) (int, bool) {
	select {
	case <-r.done:
		return r.exitCode, true
	case <-time.After(d):
		return 0, false
	}
}

// Done exposes the reap signal for select-based consumers.
func (r *Run) Done() <-chan struct{} { return r.done }
