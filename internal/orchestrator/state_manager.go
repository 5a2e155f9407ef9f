package orchestrator

import (
	"context"
	"sync/atomic"

	"linkedin-ingest/internal/session"
)

// StateManager owns the administrative state around ingestion: the
// suspend switch and reconstruction of a failed session.
type StateManager struct {
	sessions  SessionSource
	suspended atomic.Bool
}

// Status combines the suspend switch with the session's state.
type Status struct {
	Suspended bool
	Session   session.Status
}

// NewStateManager creates a new StateManager instance
func NewStateManager(sessions SessionSource) *StateManager {
	return &StateManager{sessions: sessions}
}

// Suspend makes new ingestions fail with models.ErrSuspended. Ingestions
// already running finish normally.
func (sm *StateManager) Suspend() {
	sm.suspended.Store(true)
}

// Resume re-enables ingestion.
func (sm *StateManager) Resume() {
	sm.suspended.Store(false)
}

func (sm *StateManager) Suspended() bool {
	return sm.suspended.Load()
}

func (sm *StateManager) Status() Status {
	return Status{Suspended: sm.Suspended(), Session: sm.sessions.Status()}
}

// Reinitialize rebuilds the session, the only way out of a failed one.
func (sm *StateManager) Reinitialize(ctx context.Context) error {
	return sm.sessions.Reinitialize(ctx)
}
