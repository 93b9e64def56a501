package supervisor

import (
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultGracePeriod is how long Stop waits after SIGTERM before escalating
// to SIGKILL. Matches the terminate-then-kill window the trainer tolerates.
const DefaultGracePeriod = 2 * time.Second

// Command describes one trainer invocation. Immutable once passed to Start.
type Command struct {
	Program string
	Args    []string
	Dir     string
	// Env entries are overlaid on the parent environment at launch time.
	Env map[string]string
}

func (c Command) environ() []string {
	env := os.Environ()
	for k, v := range c.Env {
		env = append(env, k+"="+v)
	}
	return env
}

// LaunchError reports that the child process never started.
type LaunchError struct {
	Program string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", e.Program, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// Supervisor owns at most one live child process. Starting a new run while
// one is active stops and reaps the old one first, so two runs can never
// interleave output.
type Supervisor struct {
	mu     sync.Mutex
	active *Run
	grace  time.Duration
	logger *zap.Logger
}

// New creates a Supervisor. A nil logger disables logging.
func New(grace time.Duration, logger *zap.Logger) *Supervisor {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{grace: grace, logger: logger}
}

// Start launches a child process and begins draining its merged
// stdout/stderr into the run's line log. Any previous still-live run is
// stopped and waited on before the new one spawns.
func (s *Supervisor) Start(cmd Command) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil && s.active.Running() {
		s.logger.Info("stopping previous run before new launch",
			zap.String("run_id", s.active.ID))
		s.active.Stop()
		s.active.Wait()
	}

	run, err := s.launch(cmd)
	if err != nil {
		return nil, err
	}
	s.active = run
	return run, nil
}

// Active returns the most recently started run, which may have finished.
func (s *Supervisor) Active() *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}
