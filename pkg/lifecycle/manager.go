package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/bft-labs/labship/internal/domain"
	"github.com/bft-labs/labship/pkg/log"
)

// Lifecycle errors, shared with the domain package so callers can use errors.Is
// against either.
var (
	ErrNotRunning      = domain.ErrNotRunning
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrShutdownTimeout = domain.ErrShutdownTimeout
)

// ShutdownTimeout is the default maximum time to wait for in-flight workers.
const ShutdownTimeout = 30 * time.Second

// DefaultManager implements Manager.
type DefaultManager struct {
	mu           sync.RWMutex
	state        State
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	logger       log.Logger
	eventEmitter EventEmitter
}

// NewManager creates a new lifecycle manager in StateStopped.
func NewManager(logger log.Logger, emitter EventEmitter) *DefaultManager {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &DefaultManager{
		state:        StateStopped,
		logger:       logger,
		eventEmitter: emitter,
	}
}

// State returns the current lifecycle state.
func (l *DefaultManager) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

func validTransition(from, to State) error {
	switch from {
	case StateStopped:
		if to == StateStarting {
			return nil
		}
		return ErrNotRunning
	case StateStarting:
		if to == StateRunning || to == StateStopping || to == StateCrashed {
			return nil
		}
	case StateRunning:
		if to == StateStopping || to == StateCrashed {
			return nil
		}
	case StateStopping:
		if to == StateStopped || to == StateCrashed {
			return nil
		}
	case StateCrashed:
		if to == StateStarting {
			return nil
		}
		return ErrNotRunning
	}
	return ErrAlreadyRunning
}

// TransitionTo attempts to transition to a new state.
func (l *DefaultManager) TransitionTo(newState State, reason string) error {
	l.mu.Lock()
	oldState := l.state
	if err := validTransition(oldState, newState); err != nil {
		l.mu.Unlock()
		return err
	}
	l.state = newState
	l.mu.Unlock()

	if l.eventEmitter != nil {
		l.eventEmitter.OnStateChange(oldState, newState, reason)
	}

	l.logger.Info("state transition",
		log.String("from", oldState.String()),
		log.String("to", newState.String()),
		log.String("reason", reason),
	)
	return nil
}

// CanStart returns true if Start() can be called.
func (l *DefaultManager) CanStart() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateStopped || l.state == StateCrashed
}

// CanStop returns true if Stop() can be called.
func (l *DefaultManager) CanStop() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateRunning || l.state == StateStarting
}

// SetCancel stores the cancel function used by Cancel.
func (l *DefaultManager) SetCancel(cancel context.CancelFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancel = cancel
}

// Cancel triggers shutdown of everything started under the stored context.
func (l *DefaultManager) Cancel() {
	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Go runs fn in a goroutine counted by WaitWithTimeout.
func (l *DefaultManager) Go(fn func()) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		fn()
	}()
}

// WaitWithTimeout waits for all workers to finish with a timeout.
func (l *DefaultManager) WaitWithTimeout(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		l.logger.Warn("shutdown timeout, abandoning workers",
			log.Duration("timeout", timeout),
		)
		return ErrShutdownTimeout
	}
}
