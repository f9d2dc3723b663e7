// Package playhead holds the shared, mutex-guarded snapshot of each part's
// sampler playback position: written briefly by the audio thread after
// every rendered frame, polled by the UI/control side.
package playhead

import "sync"

// State is one part's published sampler snapshot.
type State struct {
	PositionRel, LoopStartRel, LoopEndRel float32
	LoopMode                              int32
	Direction                             float32
	Playing                               bool
}

// Store is the process-wide shared playhead table, one optional entry per
// part index.
type Store struct {
	mu      sync.Mutex
	entries []*State
}

// New creates a playhead store sized for partCount parts, all initially
// empty (no sampler active).
func New(partCount int) *Store {
	return &Store{entries: make([]*State, partCount)}
}

// Set publishes a snapshot for the given part index.
func (s *Store) Set(partIdx int, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if partIdx < 0 || partIdx >= len(s.entries) {
		return
	}
	cp := st
	s.entries[partIdx] = &cp
}

// Clear removes the snapshot for a part whose active module is not the
// sampler.
func (s *Store) Clear(partIdx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if partIdx < 0 || partIdx >= len(s.entries) {
		return
	}
	s.entries[partIdx] = nil
}

// Get returns a copy of the published snapshot for partIdx, or false if
// none is currently published.
func (s *Store) Get(partIdx int) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if partIdx < 0 || partIdx >= len(s.entries) || s.entries[partIdx] == nil {
		return State{}, false
	}
	return *s.entries[partIdx], true
}

// Snapshot returns a copy of every published entry, indexed by part.
func (s *Store) Snapshot() []*State {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*State, len(s.entries))
	for i, e := range s.entries {
		if e != nil {
			cp := *e
			out[i] = &cp
		}
	}
	return out
}
