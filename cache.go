package confopts

import (
	"reflect"
	"sync"
	"sync/atomic"
)

// Policy selects the lifetime contract of cached bound instances.
type Policy int

const (
	// PolicyImmutable binds once on first access and serves the same
	// instance for the remainder of the process, even across rebuilds.
	PolicyImmutable Policy = iota

	// PolicySnapshot binds once per Scope; the instance lives and dies with
	// the scope and is unaffected by rebuilds during its lifetime.
	PolicySnapshot

	// PolicyMonitor tracks the change token its instance was built against
	// and rebinds on the next access after that token fires.
	PolicyMonitor
)

func (p Policy) String() string {
	switch p {
	case PolicyImmutable:
		return "immutable"
	case PolicySnapshot:
		return "snapshot"
	case PolicyMonitor:
		return "monitor"
	default:
		return "unknown"
	}
}

// cacheKey identifies one named registration.
type cacheKey struct {
	typ  reflect.Type
	name string
}

// cacheEntry holds the last-built instance for an immutable or monitor
// registration. The mutex doubles as the single-flight guard: concurrent
// resolvers of an invalidated monitor entry queue on it and share the one
// rebind that wins.
type cacheEntry struct {
	mu       sync.Mutex
	built    bool
	instance any

	// invalid is flipped by the change-token callback. It is atomic rather
	// than mutex-guarded because the token may fire the callback on the
	// registering goroutine while the entry lock is held.
	invalid atomic.Bool
}
