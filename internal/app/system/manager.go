package system

import (
	"context"
	"fmt"
	"sync"

	"github.com/StackLine-App/pokerbase/pkg/logger"
)

// Manager starts registered services in order and stops them in reverse.
type Manager struct {
	log *logger.Logger

	mu       sync.Mutex
	services []Service
	started  []Service
}

// NewManager constructs an empty manager.
func NewManager(log *logger.Logger) *Manager {
	if log == nil {
		log = logger.NewDefault("system")
	}
	return &Manager{log: log}
}

// Register adds a service. Registration order is start order.
func (m *Manager) Register(s Service) {
	m.mu.Lock()
	m.services = append(m.services, s)
	m.mu.Unlock()
}

// Start starts every registered service. On failure the services already
// started are stopped in reverse before the error is returned.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.services {
		m.log.WithField("service", s.Name()).Info("starting service")
		if err := s.Start(ctx); err != nil {
			m.stopLocked(ctx)
			return fmt.Errorf("start %s: %w", s.Name(), err)
		}
		m.started = append(m.started, s)
	}
	return nil
}

// Stop stops the started services in reverse order. Stop errors are logged
// and do not halt the shutdown of the remaining services.
func (m *Manager) Stop(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked(ctx)
}

func (m *Manager) stopLocked(ctx context.Context) {
	for i := len(m.started) - 1; i >= 0; i-- {
		s := m.started[i]
		m.log.WithField("service", s.Name()).Info("stopping service")
		if err := s.Stop(ctx); err != nil {
			m.log.WithError(err).WithField("service", s.Name()).Error("service stop failed")
		}
	}
	m.started = nil
}
