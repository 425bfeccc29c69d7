package state

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/five82/scout/internal/dataaccess"
)

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Data dataaccess.State
	// HasData is set once a window has loaded at least once.
	HasData bool
	Href    string
	Dirty   bool
	// Generation increases with every Publish so the UI can skip
	// re-rendering an unchanged window.
	Generation          uint64
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive fetch failures
}

// IsOffline returns true when the source has failed several fetches in a row.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	now      func() time.Time
}

// Publish replaces the data access state.
func (s *Store) Publish(st dataaccess.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Data = st
	s.snapshot.Data.Records = slices.Clone(st.Records)
	if st.Phase == dataaccess.Loaded {
		s.snapshot.HasData = true
	}
	s.snapshot.Generation++
}

// RecordFetch notes the outcome of one fetch. When err is non-nil the
// failure counter grows; a success resets it.
func (s *Store) RecordFetch(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastUpdated = s.clock()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// SetLocation records the current URL and whether the app state differs
// from its baseline.
func (s *Store) SetLocation(href string, dirty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Href = href
	s.snapshot.Dirty = dirty
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Data.Records = slices.Clone(s.snapshot.Data.Records)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func (s *Store) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}
