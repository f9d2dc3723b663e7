package param

import "sync"

// Store holds two parallel mappings over the same parameter values: a path
// keyed map for a UI command handler's lookups, and a hash keyed map for the
// audio thread's hot-path Get calls. Set is only ever invoked by the
// dispatcher on the audio thread while draining control messages; the
// control thread never touches the store directly, it only enqueues
// messages (see pkg/control).
//
// byHash is audio-thread-private: Set and GetByHash/GetF32/GetI32 all run on
// the audio thread, so byHash never has a concurrent writer and needs no
// lock — the render loop's per-sample, per-parameter reads stay lock-free
// and allocation-free. byPath exists only so a caller with a string key
// (e.g. a UI command handler inspecting current state) doesn't need to
// rehash; since that caller runs on the control thread, byPath is the one
// mapping that still needs mu to guard it against Set's concurrent writes.
type Store struct {
	mu     sync.RWMutex
	byPath map[string]Value
	byHash map[uint64]Value
}

// NewStore creates an empty parameter store.
func NewStore() *Store {
	return &Store{
		byPath: make(map[string]Value, 512),
		byHash: make(map[uint64]Value, 512),
	}
}

// Set applies a value under path, updating both mappings. Must only be
// called from the audio thread (the dispatcher), never directly by a
// producer of control messages. byHash is written without a lock, relying
// on that single-writer contract; byPath is locked since GetByPath may run
// concurrently on the control thread.
func (s *Store) Set(path string, v Value) {
	h := Hash(path)
	s.byHash[h] = v
	s.mu.Lock()
	s.byPath[path] = v
	s.mu.Unlock()
}

// GetByHash returns the value stored under h, or def if absent. Lock-free:
// only the audio thread ever reads or writes byHash.
func (s *Store) GetByHash(h uint64, def Value) Value {
	v, ok := s.byHash[h]
	if !ok {
		return def
	}
	return v
}

// GetF32 is a lock-free, allocation-free hot-path accessor for a
// pre-hashed key, safe to call once per sample per parameter from the
// render loop.
func (s *Store) GetF32(h uint64, def float32) float32 {
	v, ok := s.byHash[h]
	if !ok {
		return def
	}
	return v.F32Or(def)
}

// GetI32 is a lock-free, allocation-free hot-path accessor for a
// pre-hashed key, safe to call once per sample per parameter from the
// render loop.
func (s *Store) GetI32(h uint64, def int32) int32 {
	v, ok := s.byHash[h]
	if !ok {
		return def
	}
	return v.I32Or(def)
}

// GetByPath returns the value stored under path, or def if absent.
func (s *Store) GetByPath(path string, def Value) Value {
	s.mu.RLock()
	v, ok := s.byPath[path]
	s.mu.RUnlock()
	if !ok {
		return def
	}
	return v
}

// Key is a precomputed hash for a parameter path, cached by a Part at
// construction so the render path never calls Hash or touches a string.
type Key uint64

// MakeKey hashes path once. Call during setup, never per-sample.
func MakeKey(path string) Key {
	return Key(Hash(path))
}

func (s *Store) F32(k Key, def float32) float32 { return s.GetF32(uint64(k), def) }
func (s *Store) I32(k Key, def int32) int32     { return s.GetI32(uint64(k), def) }
