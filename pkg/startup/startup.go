// Package startup brings service dependencies up in declared order with
// retry, and tears them down in reverse on shutdown.
package startup

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
)

// Dependency is one startable piece of infrastructure.
type Dependency struct {
	Name      string
	DependsOn []string
	Start     func(ctx context.Context) error
	Stop      func(ctx context.Context) error
}

type status int

const (
	statusPending status = iota
	statusStarted
	statusStopped
	statusFailed
)

// Manager starts dependencies respecting DependsOn edges, retrying the whole
// set with fibonacci backoff until maxAttempts is exhausted.
type Manager struct {
	order        []string
	dependencies map[string]Dependency
	statuses     map[string]status
	logger       ectologger.Logger
	maxAttempts  int
}

// NewManager creates a new startup Manager
func NewManager(logger ectologger.Logger, maxAttempts int) *Manager {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Manager{
		dependencies: make(map[string]Dependency),
		statuses:     make(map[string]status),
		logger:       logger,
		maxAttempts:  maxAttempts,
	}
}

// Add registers a dependency. Registration order is the fallback start order
// for dependencies with no DependsOn edge between them.
func (m *Manager) Add(dep Dependency) {
	m.order = append(m.order, dep.Name)
	m.dependencies[dep.Name] = dep
}

// Start brings every dependency up.
func (m *Manager) Start(ctx context.Context) error {
	var lastErr error

	a, b := 1, 1
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		m.logger.WithField("attempt", attempt).Infof("Beginning startup attempt %d", attempt)

		lastErr = nil
		for _, name := range m.order {
			if err := m.startDependency(ctx, m.dependencies[name]); err != nil {
				m.logger.WithError(err).Errorf("Startup dependency '%s' attempt %d failed", name, attempt)
				lastErr = err
				break
			}
		}
		if lastErr == nil {
			return nil
		}
		if attempt == m.maxAttempts {
			break
		}

		m.logger.Infof("Retrying in %d seconds (attempt %d/%d)", a, attempt, m.maxAttempts)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(a) * time.Second):
		}
		a, b = b, a+b
	}

	return fmt.Errorf("startup failed after %d attempts: %w", m.maxAttempts, lastErr)
}

func (m *Manager) startDependency(ctx context.Context, dep Dependency) error {
	if m.statuses[dep.Name] == statusStarted {
		return nil
	}

	for _, name := range dep.DependsOn {
		if m.statuses[name] != statusStarted {
			if err := m.startDependency(ctx, m.dependencies[name]); err != nil {
				return err
			}
		}
	}

	m.logger.WithField("dependency", dep.Name).Infof("Starting dependency '%s'", dep.Name)
	m.statuses[dep.Name] = statusPending
	if dep.Start != nil {
		if err := dep.Start(ctx); err != nil {
			m.statuses[dep.Name] = statusFailed
			return err
		}
	}
	m.statuses[dep.Name] = statusStarted
	return nil
}

// Stop tears dependencies down in reverse start order. Stop keeps going on
// errors so one stubborn dependency cannot block the rest of shutdown; the
// first error is returned.
func (m *Manager) Stop(ctx context.Context) error {
	var firstErr error
	for i := len(m.order) - 1; i >= 0; i-- {
		dep := m.dependencies[m.order[i]]
		if m.statuses[dep.Name] != statusStarted {
			continue
		}
		m.logger.WithField("dependency", dep.Name).Infof("Stopping dependency '%s'", dep.Name)
		if dep.Stop != nil {
			if err := dep.Stop(ctx); err != nil {
				m.logger.WithError(err).Errorf("Failed to stop dependency '%s'", dep.Name)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
		}
		m.statuses[dep.Name] = statusStopped
	}
	return firstErr
}
