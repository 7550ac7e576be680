package database

import (
	"sync"

	"go.uber.org/zap"
)

// State is the lifecycle state of the storage client.
type State int

const (
	// StateInit means no ping has succeeded yet.
	StateInit State = iota
	// StateHealthy means the last ping succeeded.
	StateHealthy
	// StateUnavailable means the last ping failed. Mutations are refused until a ping succeeds.
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateHealthy:
		return "healthy"
	case StateUnavailable:
		return "unavailable"
	}
	return "unknown"
}

// statusManager guards the storage state and logs every transition.
type statusManager struct {
	mu     sync.RWMutex
	state  State
	logger *zap.Logger
}

func newStatusManager(logger *zap.Logger) *statusManager {
	return &statusManager{state: StateInit, logger: logger}
}

func (sm *statusManager) get() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.state
}

// assess records the outcome of a ping and returns the resulting state.
func (sm *statusManager) assess(reachable bool, cause error) State {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	next := StateUnavailable
	if reachable {
		next = StateHealthy
	}
	if next == sm.state {
		return next
	}

	prev := sm.state
	sm.state = next
	if next == StateHealthy {
		sm.logger.Info("storage state changed", zap.Stringer("from", prev), zap.Stringer("to", next))
	} else {
		sm.logger.Warn("storage state changed", zap.Stringer("from", prev), zap.Stringer("to", next), zap.Error(cause))
	}
	return next
}
