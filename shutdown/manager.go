// Package shutdown coordinates graceful process shutdown: a cancellable
// root context, a priority-ordered cleanup registry, and OS signal handling
// with a force-quit escape hatch on the second signal.
package shutdown

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"pagegen/logging"

	"go.uber.org/zap"
)

// Manager owns the process lifecycle.
//
// Usage:
//
//	mgr := shutdown.NewManager(logger)
//	mgr.Register("web server", 10, func(ctx context.Context) error {
//	    return server.Shutdown(ctx)
//	})
//	mgr.Register("database", 30, func(ctx context.Context) error {
//	    return database.Close()
//	})
//	mgr.Start()
//	<-mgr.Context().Done()
//	mgr.Shutdown()
type Manager struct {
	logger  *logging.Logger
	timeout time.Duration

	mu       sync.Mutex
	started  bool
	finished bool

	ctx    context.Context
	cancel context.CancelFunc

	registry *Registry
	sigChan  chan os.Signal

	// exit is swapped by tests to keep the force path observable.
	exit func(code int)
}

// Option configures a Manager.
type Option func(*Manager)

// WithTimeout overrides the default 30 second shutdown budget.
func WithTimeout(timeout time.Duration) Option {
	return func(m *Manager) {
		m.timeout = timeout
	}
}

// NewManager creates a manager with signal handling not yet started.
func NewManager(logger *logging.Logger, opts ...Option) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		logger:   logger.Named("shutdown"),
		timeout:  30 * time.Second,
		ctx:      ctx,
		cancel:   cancel,
		registry: NewRegistry(),
		sigChan:  make(chan os.Signal, 2),
		exit:     os.Exit,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Context returns the root context, cancelled when shutdown begins.
func (m *Manager) Context() context.Context {
	return m.ctx
}

// Register adds a cleanup step. Lower priority values run first.
func (m *Manager) Register(name string, priority int, fn CleanupFunc) {
	m.registry.Register(name, priority, fn)
	m.logger.Debug("registered cleanup step",
		zap.String("name", name),
		zap.Int("priority", priority),
	)
}

// Start begins listening for SIGINT and SIGTERM. The first signal cancels
// the root context; the second forces an immediate exit. Safe to call more
// than once.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true

	signal.Notify(m.sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		received := 0
		for sig := range m.sigChan {
			received++
			if received == 1 {
				m.logger.Info("shutdown signal received", zap.String("signal", sig.String()))
				m.cancel()
				continue
			}
			m.logger.Warn("second signal received, forcing exit")
			m.exit(1)
		}
	}()
}

// Shutdown cancels the root context (if a signal has not already) and runs
// the cleanup registry under the shutdown budget. Idempotent.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	if m.finished {
		m.mu.Unlock()
		return nil
	}
	m.finished = true
	m.mu.Unlock()

	start := time.Now()
	m.cancel()
	m.logger.Info("running cleanup steps",
		zap.Strings("steps", m.registry.Names()),
		zap.Duration("budget", m.timeout),
	)

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	errs := m.registry.Run(ctx)
	for name, err := range errs {
		m.logger.Error("cleanup step failed", zap.String("step", name), zap.Error(err))
	}

	signal.Stop(m.sigChan)

	if len(errs) > 0 {
		return fmt.Errorf("shutdown finished with %d failed steps", len(errs))
	}
	m.logger.Info("shutdown complete", zap.Duration("duration", time.Since(start)))
	return nil
}

// Wait blocks until shutdown has been initiated.
func (m *Manager) Wait() {
	<-m.ctx.Done()
}
