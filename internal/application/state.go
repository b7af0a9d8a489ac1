// Package application holds the in-memory ledger state shared by the
// command and query layers. The state is the single consistency domain:
// the roster of students and the attendance index mutate in lockstep,
// and every command runs as one critical section against it.
package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/studioroll/attendance-hub/internal/domain/attendance"
	"github.com/studioroll/attendance-hub/internal/domain/student"
)

// State owns the live snapshot of students and attendance. All access
// goes through View and Mutate so no caller can touch the snapshot
// outside the lock. Commands commit here first; persistence follows and
// is never allowed to decide a command's outcome.
type State struct {
	mu     sync.RWMutex
	roster *student.Roster
	index  *attendance.Index
}

// NewState wraps an existing roster and index.
func NewState(roster *student.Roster, index *attendance.Index) *State {
	return &State{roster: roster, index: index}
}

// Load boots the snapshot from the two repositories, the way the
// original load path reads both collections before first render.
func Load(ctx context.Context, students student.Repository, days attendance.Repository) (*State, error) {
	loaded, err := students.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load students: %w", err)
	}
	dayDocs, err := days.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load attendance: %w", err)
	}
	return NewState(student.NewRosterFrom(loaded), attendance.NewIndexFrom(dayDocs)), nil
}

// View runs fn with read access to the snapshot. fn must not retain or
// mutate what it is given; clone anything that leaves the closure.
func (s *State) View(fn func(roster *student.Roster, index *attendance.Index)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.roster, s.index)
}

// Mutate runs fn with exclusive access to the snapshot. An error from fn
// means the command was rejected; handlers must leave the snapshot
// untouched on that path.
func (s *State) Mutate(fn func(roster *student.Roster, index *attendance.Index) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.roster, s.index)
}
