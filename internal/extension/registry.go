// Package extension provides the lifecycle event registry and the ordered
// HTML transformer chain pages pass through after conversion.
//
// Handlers and transformers are registered explicitly by name; nothing is
// discovered by reflection or loaded from disk.
package extension

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"git.home.luguber.info/inful/glaze/internal/content"
)

// EventKind names a lifecycle event.
type EventKind string

const (
	EventBuildStarted   EventKind = "build.started"
	EventBuildCompleted EventKind = "build.completed"
	EventBuildFailed    EventKind = "build.failed"
)

// Event is passed to every handler registered for its kind.
type Event struct {
	Kind    EventKind
	BuildID string
	Payload any
}

// Handler reacts to a lifecycle event.
type Handler func(ctx context.Context, ev Event) error

// Transformer rewrites a page's HTML. It must return a new value rather than
// mutate its input.
type Transformer func(ctx context.Context, page content.Page, html []byte) ([]byte, error)

type namedTransformer struct {
	name string
	fn   Transformer
}

// Registry maps event kinds to ordered handler lists and holds the ordered
// transformer chain.
type Registry struct {
	mu           sync.RWMutex
	handlers     map[EventKind][]Handler
	transformers []namedTransformer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[EventKind][]Handler)}
}

// On appends h to the handlers for kind.
func (r *Registry) On(kind EventKind, h Handler) {
	if h == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = append(r.handlers[kind], h)
}

// Emit calls every handler for ev.Kind in registration order. All handlers
// run; their errors are joined.
func (r *Registry) Emit(ctx context.Context, ev Event) error {
	r.mu.RLock()
	handlers := append([]Handler(nil), r.handlers[ev.Kind]...)
	r.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("%s handler: %w", ev.Kind, err))
		}
	}
	return errors.Join(errs...)
}

// Transform appends a named transformer to the chain. Registering a name twice is an error.
func (r *Registry) Transform(name string, t Transformer) error {
	if t == nil {
		return fmt.Errorf("cannot register nil transformer %q", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.transformers {
		if existing.name == name {
			return fmt.Errorf("transformer %q already registered", name)
		}
	}
	r.transformers = append(r.transformers, namedTransformer{name: name, fn: t})
	return nil
}

// Transformers returns the registered transformer names in chain order.
func (r *Registry) Transformers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.transformers))
	for i, t := range r.transformers {
		names[i] = t.name
	}
	return names
}

// Apply folds html through every transformer in registration order.
func (r *Registry) Apply(ctx context.Context, page content.Page, html []byte) ([]byte, error) {
	r.mu.RLock()
	chain := append([]namedTransformer(nil), r.transformers...)
	r.mu.RUnlock()

	value := html
	for _, t := range chain {
		next, err := t.fn(ctx, page, value)
		if err != nil {
			return nil, fmt.Errorf("transformer %s: %w", t.name, err)
		}
		value = next
	}
	return value, nil
}
