package confopts

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"
)

// registration associates one (type, name) pair with a configuration
// subtree, supplier chain, validator chain, and caching policy.
type registration struct {
	typ        reflect.Type
	name       string
	prefix     string
	desc       *Descriptor
	suppliers  []SupplierFunc
	validators []ValidatorFunc
	policy     Policy
	eager      bool
}

// Registry is the named-options registry: it orchestrates binder, suppliers,
// validation, and the options cache on top of the broker's merged view.
// A Registry is safe for concurrent use.
type Registry struct {
	broker *Broker
	logger *slog.Logger

	mu      sync.RWMutex
	regs    map[cacheKey]*registration
	entries map[cacheKey]*cacheEntry
}

// Option configures the registry at construction.
type Option func(*Registry)

// WithLogger sets the logger used for rebuild and notification diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New merges the layers once and returns a registry over them. Providers
// that implement WatchableProvider trigger live rebuilds.
func New(layers []Layer, opts ...Option) (*Registry, error) {
	r := &Registry{
		logger:  slog.New(slog.DiscardHandler),
		regs:    make(map[cacheKey]*registration),
		entries: make(map[cacheKey]*cacheEntry),
	}
	for _, opt := range opts {
		opt(r)
	}

	broker, err := NewBroker(layers, r.logger)
	if err != nil {
		return nil, err
	}
	r.broker = broker
	return r, nil
}

// RegisterOption configures one registration.
type RegisterOption func(*registration)

// WithName sets the options name. The empty string is the default name; it
// is a name like any other, never an alias for "unnamed".
func WithName(name string) RegisterOption {
	return func(reg *registration) { reg.name = name }
}

// WithPolicy selects the caching policy. The default is PolicyImmutable.
func WithPolicy(p Policy) RegisterOption {
	return func(reg *registration) { reg.policy = p }
}

// WithSuppliers appends configuration suppliers, run post-bind and
// pre-validation in registration order.
func WithSuppliers(suppliers ...SupplierFunc) RegisterOption {
	return func(reg *registration) { reg.suppliers = append(reg.suppliers, suppliers...) }
}

// WithValidators appends validators to the registration's chain.
func WithValidators(validators ...ValidatorFunc) RegisterOption {
	return func(reg *registration) { reg.validators = append(reg.validators, validators...) }
}

// WithEagerValidation runs bind and the validator chain at registration
// time; a failure makes Register return the error, aborting startup. The
// default is lazy: failures surface on first resolve.
func WithEagerValidation() RegisterOption {
	return func(reg *registration) { reg.eager = true }
}

// Register configures the (type, name) pair derived from target's type and
// the given options. The prefix selects the configuration subtree the type
// binds to; an empty prefix binds the view root. Each (type, name) pair may
// be registered at most once.
func Register(r *Registry, target any, prefix string, opts ...RegisterOption) error {
	if prefix != "" {
		if err := ValidateKey(prefix); err != nil {
			return err
		}
	}
	desc, err := Describe(target)
	if err != nil {
		return err
	}

	reg := &registration{
		typ:    desc.Type,
		prefix: prefix,
		desc:   desc,
		policy: PolicyImmutable,
	}
	for _, opt := range opts {
		opt(reg)
	}

	key := cacheKey{typ: reg.typ, name: reg.name}
	r.mu.Lock()
	if _, exists := r.regs[key]; exists {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s %q", ErrAlreadyRegistered, reg.typ, reg.name)
	}
	r.regs[key] = reg
	r.mu.Unlock()

	if reg.eager {
		if _, err := r.build(reg, r.broker.View()); err != nil {
			r.mu.Lock()
			delete(r.regs, key)
			r.mu.Unlock()
			return fmt.Errorf("eager validation of %s %q: %w", reg.typ, reg.name, err)
		}
	}
	return nil
}

// Resolve returns the bound instance for T under the given name, built and
// cached per the registration's policy.
func Resolve[T any](r *Registry, name string) (*T, error) {
	inst, err := r.resolve(reflect.TypeOf((*T)(nil)).Elem(), name, nil)
	if err != nil {
		return nil, err
	}
	return inst.(*T), nil
}

// ResolveScoped is Resolve for per-scope registrations; the instance is
// cached on the scope and discarded when the scope closes.
func ResolveScoped[T any](r *Registry, name string, scope *Scope) (*T, error) {
	inst, err := r.resolve(reflect.TypeOf((*T)(nil)).Elem(), name, scope)
	if err != nil {
		return nil, err
	}
	return inst.(*T), nil
}

func (r *Registry) resolve(t reflect.Type, name string, scope *Scope) (any, error) {
	key := cacheKey{typ: t, name: name}
	r.mu.RLock()
	reg := r.regs[key]
	r.mu.RUnlock()
	if reg == nil {
		return nil, fmt.Errorf("%w: %s %q", ErrNotRegistered, t, name)
	}

	switch reg.policy {
	case PolicySnapshot:
		if scope == nil {
			return nil, fmt.Errorf("%w: %s %q", ErrScopeRequired, t, name)
		}
		return scope.instance(key, func() (any, error) {
			return r.build(reg, r.broker.View())
		})

	case PolicyMonitor:
		entry := r.entry(key)
		entry.mu.Lock()
		defer entry.mu.Unlock()
		if entry.built && !entry.invalid.Load() {
			return entry.instance, nil
		}
		view, token := r.broker.Current()
		inst, err := r.build(reg, view)
		if err != nil {
			return nil, err
		}
		entry.built = true
		entry.instance = inst
		entry.invalid.Store(false)
		token.OnChange(func() { entry.invalid.Store(true) })
		return inst, nil

	default: // PolicyImmutable
		entry := r.entry(key)
		entry.mu.Lock()
		defer entry.mu.Unlock()
		if entry.built {
			return entry.instance, nil
		}
		inst, err := r.build(reg, r.broker.View())
		if err != nil {
			return nil, err
		}
		entry.built = true
		entry.instance = inst
		return inst, nil
	}
}

func (r *Registry) entry(key cacheKey) *cacheEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		e = &cacheEntry{}
		r.entries[key] = e
	}
	return e
}

// build runs the bind -> suppliers -> validation chain against a view.
func (r *Registry) build(reg *registration, view *View) (any, error) {
	inst, err := Bind(view, reg.prefix, reg.desc)
	if err != nil {
		return nil, err
	}
	for _, supply := range reg.suppliers {
		if err := supply(inst); err != nil {
			return nil, fmt.Errorf("supplier for %s %q: %w", reg.typ, reg.name, err)
		}
	}
	if err := runValidators(reg.validators, inst, reg.name); err != nil {
		return nil, err
	}
	return inst, nil
}

// OnChange subscribes to rebuilds of a monitor-policy registration. After
// each successful rebuild the instance is re-resolved and handed to fn on a
// separate goroutine; resolution failures are logged, not delivered. The
// returned function unsubscribes.
func OnChange[T any](r *Registry, name string, fn func(*T)) (func(), error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	key := cacheKey{typ: t, name: name}

	r.mu.RLock()
	reg := r.regs[key]
	r.mu.RUnlock()
	if reg == nil {
		return nil, fmt.Errorf("%w: %s %q", ErrNotRegistered, t, name)
	}
	if reg.policy != PolicyMonitor {
		return nil, fmt.Errorf("change notification requires the monitor policy, %s %q uses %s", t, name, reg.policy)
	}

	return r.broker.OnSwap(func() {
		inst, err := r.resolve(t, name, nil)
		if err != nil {
			r.logger.Error("change notification resolve failed", "type", t.String(), "name", name, "error", err)
			return
		}
		fn(inst.(*T))
	}), nil
}

// Get looks up a value in the current merged view by full key path.
func (r *Registry) Get(key string) (string, bool) {
	return r.broker.View().Get(key)
}

// Children enumerates the immediate child segments under a prefix in the
// current merged view.
func (r *Registry) Children(prefix string) []string {
	return r.broker.View().Children(prefix)
}

// View returns the current merged view as an immutable snapshot.
func (r *Registry) View() *View {
	return r.broker.View()
}

// NotifyMutation forces a rebuild, as if a provider had signaled. Mainly
// useful for providers that cannot push their own signals.
func (r *Registry) NotifyMutation() {
	r.broker.NotifyMutation()
}

// Close releases provider resources such as file watchers.
func (r *Registry) Close() error {
	return r.broker.Close()
}

// Debug returns a formatted dump of the current view and registrations.
func (r *Registry) Debug() string {
	var b strings.Builder
	view := r.broker.View()
	b.WriteString("Configuration debug info:\n")
	b.WriteString("Registrations:\n")
	r.mu.RLock()
	for key, reg := range r.regs {
		fmt.Fprintf(&b, "  %s %q: prefix=%q policy=%s\n", key.typ, key.name, reg.prefix, reg.policy)
	}
	r.mu.RUnlock()
	b.WriteString("Merged view:\n")
	for _, key := range view.Keys() {
		value, _ := view.Get(key)
		fmt.Fprintf(&b, "  %s = %q\n", key, value)
	}
	return b.String()
}
