package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kart-io/logger"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

// DefaultShutdownTimeout bounds Stop when no timeout is configured.
const DefaultShutdownTimeout = 30 * time.Second

// Option configures a Manager.
type Option func(*Manager)

// WithShutdownTimeout sets the graceful shutdown timeout.
func WithShutdownTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.shutdownTimeout = d
		}
	}
}

// WithServer adds a server to the manager.
func WithServer(s Runnable) Option {
	return func(m *Manager) {
		m.servers = append(m.servers, s)
	}
}

// Manager starts and stops a set of servers with one lifecycle.
type Manager struct {
	servers         []Runnable
	shutdownTimeout time.Duration

	mu      sync.Mutex
	started []Runnable
}

// NewManager creates a new server manager with the given options.
func NewManager(opts ...Option) *Manager {
	m := &Manager{shutdownTimeout: DefaultShutdownTimeout}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddServer adds a server to the manager.
func (m *Manager) AddServer(s Runnable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.servers = append(m.servers, s)
}

// Start starts all servers in order. If one fails, the ones already started
// are stopped.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.started) > 0 {
		return fmt.Errorf("server manager already started")
	}

	for _, s := range m.servers {
		if err := s.Start(ctx); err != nil {
			_ = stopAll(ctx, m.started)
			m.started = nil
			return fmt.Errorf("failed to start server %s: %w", s.Name(), err)
		}
		logger.Infow("Server started", "name", s.Name())
		m.started = append(m.started, s)
	}
	return nil
}

// Stop stops started servers in reverse order.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	started := m.started
	m.started = nil
	m.mu.Unlock()

	return stopAll(ctx, started)
}

func stopAll(ctx context.Context, servers []Runnable) error {
	var errs []error
	for i := len(servers) - 1; i >= 0; i-- {
		s := servers[i]
		if err := s.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop server %s: %w", s.Name(), err))
			continue
		}
		logger.Infow("Server stopped", "name", s.Name())
	}
	return utilerrors.NewAggregate(errs)
}

// failer is implemented by servers that can fail after a successful Start.
type failer interface {
	Err() <-chan error
}

// Run starts all servers and blocks until ctx is done or a server fails,
// then stops them within the shutdown timeout.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.Start(ctx); err != nil {
		return err
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()

	m.mu.Lock()
	failed := make(chan error, len(m.started))
	for _, s := range m.started {
		f, ok := s.(failer)
		if !ok {
			continue
		}
		go func(name string, errCh <-chan error) {
			select {
			case err := <-errCh:
				failed <- fmt.Errorf("server %s failed: %w", name, err)
			case <-watchCtx.Done():
			}
		}(s.Name(), f.Err())
	}
	m.mu.Unlock()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-failed:
	}
	logger.Info("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.shutdownTimeout)
	defer cancel()
	return utilerrors.NewAggregate([]error{runErr, m.Stop(shutdownCtx)})
}
