package confopts

import (
	"sync"

	"github.com/google/uuid"
)

// Scope owns the snapshot instances of per-scope registrations for one
// logical unit of work. Each scope caches its own instances; concurrent
// scopes never share them. Closing the scope discards everything it built.
type Scope struct {
	id string

	mu        sync.Mutex
	closed    bool
	instances map[cacheKey]any
}

// NewScope opens a fresh scope.
func NewScope() *Scope {
	return &Scope{
		id:        uuid.NewString(),
		instances: make(map[cacheKey]any),
	}
}

// ID returns the scope's unique identifier.
func (s *Scope) ID() string {
	return s.id
}

// Close discards the scope's instances. Resolving through a closed scope
// returns ErrScopeClosed.
func (s *Scope) Close() {
	s.mu.Lock()
	s.closed = true
	s.instances = nil
	s.mu.Unlock()
}

// instance returns the cached instance for key, building it on first access.
// The scope lock makes the build single-flight within the scope.
func (s *Scope) instance(key cacheKey, build func() (any, error)) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrScopeClosed
	}
	if inst, ok := s.instances[key]; ok {
		return inst, nil
	}
	inst, err := build()
	if err != nil {
		return nil, err
	}
	s.instances[key] = inst
	return inst, nil
}
