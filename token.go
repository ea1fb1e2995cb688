package confopts

import "sync"

// ChangeToken marks the merged view as of one build. A token fires exactly
// once, when the build it belongs to is superseded, and never reverts.
// Registering a callback on an already-fired token invokes it immediately so
// a transition can never be missed.
type ChangeToken struct {
	mu        sync.Mutex
	fired     bool
	callbacks []func()
}

func newChangeToken() *ChangeToken {
	return &ChangeToken{}
}

// Fired reports whether the token has fired.
func (t *ChangeToken) Fired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}

// OnChange registers a callback for the token's firing. Callbacks run in
// registration order. On a fired token the callback runs immediately on the
// calling goroutine.
func (t *ChangeToken) OnChange(fn func()) {
	if fn == nil {
		return
	}
	t.mu.Lock()
	if t.fired {
		t.mu.Unlock()
		fn()
		return
	}
	t.callbacks = append(t.callbacks, fn)
	t.mu.Unlock()
}

// fire transitions the token to fired and runs queued callbacks in
// registration order. Subsequent calls are no-ops.
func (t *ChangeToken) fire() {
	t.mu.Lock()
	if t.fired {
		t.mu.Unlock()
		return
	}
	t.fired = true
	callbacks := t.callbacks
	t.callbacks = nil
	t.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}
