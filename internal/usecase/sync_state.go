package usecase

import (
	"sync"

	"github.com/cashclarity/ledgersync/internal/domain"
)

// SyncStateMachine tracks save feedback: idle, then saving on every dirty
// mutation, then saved or error once a save completes. It never resets to
// idle by itself.
type SyncStateMachine struct {
	mu       sync.Mutex
	state    domain.SyncState
	onChange func(domain.SyncState)
}

// NewSyncStateMachine starts in idle. onChange may be nil.
func NewSyncStateMachine(onChange func(domain.SyncState)) *SyncStateMachine {
	return &SyncStateMachine{
		state:    domain.SyncIdle,
		onChange: onChange,
	}
}

// State returns the current state.
func (m *SyncStateMachine) State() domain.SyncState {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

// MarkSaving is called for every dirty mutation and when a save starts.
func (m *SyncStateMachine) MarkSaving() { m.set(domain.SyncSaving) }

// MarkSaved is called when a save succeeds.
func (m *SyncStateMachine) MarkSaved() { m.set(domain.SyncSaved) }

// MarkError is called when a save fails.
func (m *SyncStateMachine) MarkError() { m.set(domain.SyncError) }

func (m *SyncStateMachine) set(next domain.SyncState) {
	m.mu.Lock()
	changed := m.state != next
	m.state = next
	cb := m.onChange
	m.mu.Unlock()

	if changed && cb != nil {
		cb(next)
	}
}
