package confopts

import "sync"

// Provider supplies a flat set of key/value pairs. Implementations must be
// safe for concurrent use; Snapshot is called on registration and after every
// mutation signal.
type Provider interface {
	Snapshot() (map[string]string, error)
}

// WatchableProvider is a Provider that can signal mutations. The callback
// must be cheap; it only schedules a rebuild.
type WatchableProvider interface {
	Provider
	Subscribe(onMutation func())
}

// Layer pairs a provider with its fixed precedence rank. Higher priority
// values win when layers define the same key.
type Layer struct {
	Name     string
	Priority int
	Provider Provider
}

// NewLayer builds a ranked layer around a provider.
func NewLayer(name string, priority int, p Provider) Layer {
	return Layer{Name: name, Priority: priority, Provider: p}
}

// MapProvider is an in-memory provider, mutable at runtime. Mutations signal
// subscribers, making it useful for programmatic overrides and tests.
type MapProvider struct {
	mu     sync.RWMutex
	values map[string]string
	subs   []func()
}

// NewMapProvider copies the given pairs into a new provider. A nil map is
// allowed and yields an empty provider.
func NewMapProvider(values map[string]string) *MapProvider {
	p := &MapProvider{values: make(map[string]string, len(values))}
	for k, v := range values {
		p.values[k] = v
	}
	return p
}

// Snapshot returns a copy of the current pairs.
func (p *MapProvider) Snapshot() (map[string]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]string, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out, nil
}

// Set stores a value and signals subscribers.
func (p *MapProvider) Set(key, value string) {
	p.mu.Lock()
	p.values[key] = value
	p.mu.Unlock()
	p.notify()
}

// Delete removes a key and signals subscribers.
func (p *MapProvider) Delete(key string) {
	p.mu.Lock()
	delete(p.values, key)
	p.mu.Unlock()
	p.notify()
}

// Replace swaps the full pair set and signals subscribers once.
func (p *MapProvider) Replace(values map[string]string) {
	next := make(map[string]string, len(values))
	for k, v := range values {
		next[k] = v
	}
	p.mu.Lock()
	p.values = next
	p.mu.Unlock()
	p.notify()
}

// Subscribe registers a mutation callback.
func (p *MapProvider) Subscribe(onMutation func()) {
	if onMutation == nil {
		return
	}
	p.mu.Lock()
	p.subs = append(p.subs, onMutation)
	p.mu.Unlock()
}

func (p *MapProvider) notify() {
	p.mu.RLock()
	subs := make([]func(), len(p.subs))
	copy(subs, p.subs)
	p.mu.RUnlock()
	for _, fn := range subs {
		fn()
	}
}
