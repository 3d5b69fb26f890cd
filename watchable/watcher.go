package watchable

import (
	"fmt"
)

const defaultWatcherName = "default"

// Watcher attaches composite values and holds the policies of the nodes it creates:
// equality for the no-op check and the optional logger, metrics, and tracing collectors.
//
// Each Watcher acts as its own handler class. A value already governed by a Watcher is returned
// unchanged when attached again by it, while another Watcher takes it over and wraps it anew.
type Watcher struct {
	name             string
	equal            func(oldValue, newValue any) bool
	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
}

var defaultWatcher = &Watcher{name: defaultWatcherName, equal: Identical}

// NewWatcher creates a Watcher with optional configuration.
func NewWatcher(options ...Option) (*Watcher, error) {
	w := &Watcher{
		name:  defaultWatcherName,
		equal: Identical,
	}

	for _, option := range options {
		if err := option(w); err != nil {
			return nil, err
		}
	}

	return w, nil
}

// DefaultWatcher returns the Watcher used by the package-level Attach and Watch.
func DefaultWatcher() *Watcher {
	return defaultWatcher
}

// Name returns the name used in logs, metric labels, and span attributes.
func (w *Watcher) Name() string {
	return w.name
}

// Attach makes value observable and returns the wrapped *Node.
//
// Scalars, nil, and values already governed by w are returned unchanged. Every map[string]any and
// []any reachable from value is attached too, and the slots holding them are rewritten in place.
// A *Node governed by another Watcher is taken over: its storage gets a new handler that keeps the
// old one's listeners.
//
// Returns ErrCycleDetected when value contains itself; the raw data is then left untouched.
func (w *Watcher) Attach(value any) (any, error) {
	return w.AttachFrom(value, nil)
}

// AttachFrom is Attach with listener inheritance: when inherited is not nil the new node starts
// with a copy of its listener registrations.
func (w *Watcher) AttachFrom(value any, inherited *Handler) (any, error) {
	if !w.shouldWrap(value) {
		return value, nil
	}

	op := w.beginOperation(operationAttach, nil, nil)

	a := newAttachment(w)
	wrapped, err := a.attach(value, inherited)
	if err != nil {
		a.rollback()
		op.failed(err)

		return nil, err
	}

	op.attached(handlerOf(wrapped), len(a.created))

	return wrapped, nil
}

// Watch is Attach for values that must be composites.
// Returns ErrNotComposite for scalars and nil.
func (w *Watcher) Watch(value any) (*Node, error) {
	wrapped, err := w.Attach(value)
	if err != nil {
		return nil, err
	}

	n, ok := wrapped.(*Node)
	if !ok || n == nil {
		return nil, fmt.Errorf("%w: got %T", ErrNotComposite, value)
	}

	return n, nil
}

// Owns reports whether value is a node governed by w.
func (w *Watcher) Owns(value any) bool {
	return w.governed(value) != nil
}

// shouldWrap is true for non-nil raw maps and slices and for nodes of other Watchers.
func (w *Watcher) shouldWrap(value any) bool {
	switch v := value.(type) {
	case *Node:
		return v != nil && v.handler.watcher != w
	case map[string]any:
		return v != nil
	case []any:
		return v != nil
	default:
		return false
	}
}

func (w *Watcher) governed(value any) *Handler {
	h := handlerOf(value)
	if h == nil || h.watcher != w {
		return nil
	}

	return h
}

// Attach makes value observable with the default Watcher.
func Attach(value any) (any, error) {
	return defaultWatcher.Attach(value)
}

// Watch makes a composite observable with the default Watcher.
func Watch(value any) (*Node, error) {
	return defaultWatcher.Watch(value)
}

// HandlerFor returns the handler governing value, nil when value is not a node.
func HandlerFor(value any) *Handler {
	return handlerOf(value)
}

// RawValue unwraps a node to its raw map or slice. Other values are returned as they are.
func RawValue(value any) any {
	if h := handlerOf(value); h != nil {
		return h.container.raw()
	}

	return value
}

// IsWrapped reports whether value is a node of any Watcher.
func IsWrapped(value any) bool {
	return handlerOf(value) != nil
}
