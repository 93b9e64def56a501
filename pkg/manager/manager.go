// Package manager ties the process supervisor and the progress extractor
// together: one Manager holds at most one live training session, and each
// session republishes the trainer's output as structured progress snapshots.
package manager

import (
	"sync"

	"go.uber.org/zap"

	"github.com/DR-lin-eng/yologui/pkg/supervisor"
)

// Manager is a factory and single-slot registry for training sessions.
// Starting a new session first stops and fully drains the previous one, so
// two runs can never interleave metrics.
type Manager struct {
	mu     sync.Mutex
	sup    *supervisor.Supervisor
	active *Session
	logger *zap.Logger
}

// New creates a Manager on top of a Supervisor. A nil logger disables logging.
func New(sup *supervisor.Supervisor, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{sup: sup, logger: logger}
}

// Start launches a training run and returns its session. totalEpochs seeds
// the progress state until the trainer reports its own figure. A launch
// failure leaves no session behind.
//
// If a session is still live its run is cancelled and its terminal outcome
// is delivered before this call returns, so the new session's first snapshot
// can never race the old session's last.
func (m *Manager) Start(cmd supervisor.Command, totalEpochs int) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		m.active.Stop()
		<-m.active.done
	}

	run, err := m.sup.Start(cmd)
	if err != nil {
		m.logger.Error("trainer launch failed", zap.Error(err))
		return nil, err
	}

	s := newSession(run, totalEpochs, m.logger)
	m.active = s
	return s, nil
}

// Active returns the current session, which may already be finished, or nil
// if none was ever started.
func (m *Manager) Active() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Stop cancels the active session, if any, without waiting for drain.
func (m *Manager) Stop() {
	m.mu.Lock()
	s := m.active
	m.mu.Unlock()
	if s != nil {
		s.Stop()
	}
}

// Shutdown cancels the active session and waits for its terminal outcome.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	s := m.active
	m.mu.Unlock()
	if s != nil {
		s.Stop()
		<-s.done
	}
}
