package manager

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/DR-lin-eng/yologui/pkg/progress"
	"github.com/DR-lin-eng/yologui/pkg/pubsub"
	"github.com/DR-lin-eng/yologui/pkg/supervisor"
)

// Session is one training run from launch to terminal outcome. The worker
// goroutine owns the progress state; consumers only ever see snapshot copies.
type Session struct {
	run       *supervisor.Run
	extractor *progress.Extractor
	snapshots *pubsub.Broadcaster[progress.Snapshot]
	latest    atomic.Pointer[progress.Snapshot]
	outcome   chan supervisor.Outcome
	terminal  atomic.Pointer[supervisor.Outcome]
	done      chan struct{}
	logger    *zap.Logger
}

func newSession(run *supervisor.Run, totalEpochs int, logger *zap.Logger) *Session {
	s := &Session{
		run:       run,
		extractor: progress.New(),
		snapshots: pubsub.NewBroadcaster[progress.Snapshot](),
		outcome:   make(chan supervisor.Outcome, 1),
		done:      make(chan struct{}),
		logger:    logger,
	}
	s.extractor.Begin(totalEpochs)
	go s.consume()
	return s
}

// consume is the per-run worker: it blocks only on "next line" and "process
// exit", folds each line into the progress state, and publishes snapshots.
// Per-line parse failures never escape; only the terminal outcome does.
func (s *Session) consume() {
	for line := range s.run.Lines() {
		snap := s.extractor.Process(line)
		s.latest.Store(&snap)
		s.snapshots.Publish(snap)
	}

	out := s.run.Outcome()
	s.snapshots.Stop()
	s.terminal.Store(&out)
	s.outcome <- out
	close(s.done)

	s.logger.Info("session finished",
		zap.String("run_id", s.run.ID),
		zap.String("outcome", out.Kind.String()),
		zap.Int("exit_code", out.ExitCode))
}

// ID returns the run identifier.
func (s *Session) ID() string { return s.run.ID }

// Run exposes the underlying supervised process.
func (s *Session) Run() *supervisor.Run { return s.run }

// Lines subscribes to the raw output stream, replayed from the start of the
// run. Unlike Subscribe, every line is delivered.
func (s *Session) Lines() <-chan string { return s.run.Lines() }

// Subscribe registers for live snapshots. Slow subscribers see the newest
// snapshot, not every one; use Lines for a complete transcript.
func (s *Session) Subscribe() (chan progress.Snapshot, error) {
	return s.snapshots.Subscribe()
}

// Unsubscribe releases a snapshot subscription.
func (s *Session) Unsubscribe(ch chan progress.Snapshot) {
	s.snapshots.Unsubscribe(ch)
}

// Latest returns the most recent snapshot, or a zero-value snapshot with
// unknown percent if no line has been processed yet.
func (s *Session) Latest() progress.Snapshot {
	if snap := s.latest.Load(); snap != nil {
		return *snap
	}
	return progress.Snapshot{Percent: -1}
}

// Stop requests cancellation of the run. Idempotent. The terminal outcome
// arrives asynchronously on Outcome.
func (s *Session) Stop() { s.run.Stop() }

// Outcome yields the single terminal event of the run. Intended for the one
// consumer driving the run; pollers use Result instead.
func (s *Session) Outcome() <-chan supervisor.Outcome { return s.outcome }

// Result returns the terminal outcome once the session has finished.
func (s *Session) Result() (supervisor.Outcome, bool) {
	if out := s.terminal.Load(); out != nil {
		return *out, true
	}
	return supervisor.Outcome{}, false
}

// Done closes once the terminal outcome has been published.
func (s *Session) Done() <-chan struct{} { return s.done }

// Finished reports whether the session reached its terminal state.
func (s *Session) Finished() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
