package confopts

import (
	"errors"
	"io"
	"log/slog"
	"sync"
)

// Broker owns the layer set, publishes immutable merged views, and mints a
// fresh one-shot ChangeToken on every rebuild. Rebuilds are serialized:
// mutation signals arriving while a rebuild is in flight coalesce into a
// single follow-up pass instead of a rebuild per signal.
type Broker struct {
	logger *slog.Logger
	layers []Layer

	mu         sync.Mutex
	view       *View
	token      *ChangeToken
	rebuilding bool
	pending    bool

	swapMu     sync.Mutex
	swapSubs   map[int]func()
	nextSwapID int
}

// NewBroker merges the layers once and starts listening for mutation signals
// from watchable providers. A provider failure at this point is fatal;
// precedence cannot be computed without every layer's data.
func NewBroker(layers []Layer, logger *slog.Logger) (*Broker, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	view, err := buildView(layers)
	if err != nil {
		return nil, err
	}

	b := &Broker{
		logger:   logger,
		layers:   append([]Layer(nil), layers...),
		view:     view,
		token:    newChangeToken(),
		swapSubs: make(map[int]func()),
	}

	for _, layer := range layers {
		if w, ok := layer.Provider.(WatchableProvider); ok {
			w.Subscribe(b.NotifyMutation)
		}
	}

	return b, nil
}

// View returns the current merged view.
func (b *Broker) View() *View {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.view
}

// Token returns the change token of the current build.
func (b *Broker) Token() *ChangeToken {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.token
}

// Current returns the view and its token as a consistent pair.
func (b *Broker) Current() (*View, *ChangeToken) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.view, b.token
}

// NotifyMutation schedules a rebuild of the merged view. If a rebuild is
// already in flight the signal is absorbed by a single follow-up pass. On a
// successful rebuild the previous token fires after the new view is
// published, so a callback never observes the old view. On failure the
// previous view and token stay in place: stale-but-valid over no-data.
func (b *Broker) NotifyMutation() {
	b.mu.Lock()
	if b.rebuilding {
		b.pending = true
		b.mu.Unlock()
		return
	}
	b.rebuilding = true
	b.mu.Unlock()

	for {
		view, err := buildView(b.layers)

		b.mu.Lock()
		var old *ChangeToken
		if err == nil {
			old = b.token
			b.view = view
			b.token = newChangeToken()
		}
		again := b.pending
		b.pending = false
		if !again {
			b.rebuilding = false
		}
		b.mu.Unlock()

		if err != nil {
			b.logger.Error("configuration rebuild failed, keeping previous view", "error", err)
		} else {
			b.logger.Debug("configuration rebuilt", "keys", view.Len())
			old.fire()
			b.notifySwap()
		}

		if !again {
			return
		}
	}
}

// OnSwap registers a persistent callback invoked asynchronously after every
// successful rebuild. It returns an unsubscribe function.
func (b *Broker) OnSwap(fn func()) func() {
	b.swapMu.Lock()
	id := b.nextSwapID
	b.nextSwapID++
	b.swapSubs[id] = fn
	b.swapMu.Unlock()

	return func() {
		b.swapMu.Lock()
		delete(b.swapSubs, id)
		b.swapMu.Unlock()
	}
}

// Close releases provider resources such as file watchers. Providers that do
// not implement io.Closer are left alone.
func (b *Broker) Close() error {
	var errs []error
	for _, layer := range b.layers {
		if c, ok := layer.Provider.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (b *Broker) notifySwap() {
	b.swapMu.Lock()
	subs := make([]func(), 0, len(b.swapSubs))
	for _, fn := range b.swapSubs {
		subs = append(subs, fn)
	}
	b.swapMu.Unlock()

	for _, fn := range subs {
		go fn()
	}
}
