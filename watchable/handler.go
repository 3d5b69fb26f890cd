package watchable

import (
	"reflect"
	"slices"

	"github.com/google/uuid"
)

// NodeID identifies a Handler in logs, spans, and parent introspection.
type NodeID = uuid.UUID

// ListenerID identifies one listener registration. It is returned by Node.AddListener and
// survives structural replacement, because replaced values inherit the registrations.
type ListenerID = uuid.UUID

// Listener is called with the new value, the old value, and the key of a changed slot.
// When a change bubbles up from below, oldValue is nil: the slot still holds the same node,
// only its contents changed.
type Listener func(newValue, oldValue any, key Key)

// ParentEdge describes one slot of a parent node that holds a Node.
type ParentEdge struct {
	ParentID NodeID
	Key      Key
}

type registration struct {
	id       ListenerID
	listener Listener
}

// parentEdge records that slot key of container holds the node; handler governs container.
type parentEdge struct {
	container container
	key       Key
	handler   *Handler
}

// Handler is the governing state of one attached composite: its listener registry,
// its parent edges, and the write/delete protocol.
type Handler struct {
	id        NodeID
	watcher   *Watcher
	container container
	node      *Node
	listeners map[Key][]registration
	parents   []parentEdge
}

func newHandler(w *Watcher, c container) *Handler {
	h := &Handler{
		id:        uuid.New(),
		watcher:   w,
		container: c,
		listeners: make(map[Key][]registration),
	}
	h.node = &Node{handler: h}

	return h
}

// cloneFor derives a handler for c that keeps the listener registrations of h.
// Parents start empty; they are rebuilt as the new node is linked into the tree.
func (h *Handler) cloneFor(w *Watcher, c container) *Handler {
	clone := newHandler(w, c)
	for key, regs := range h.listeners {
		clone.listeners[key] = slices.Clone(regs)
	}

	return clone
}

// ID returns the identifier of the handler.
func (h *Handler) ID() NodeID {
	return h.id
}

// Watcher returns the Watcher that attached the governed value.
func (h *Handler) Watcher() *Watcher {
	return h.watcher
}

// Parents returns the slots currently holding the governed node.
func (h *Handler) Parents() []ParentEdge {
	edges := make([]ParentEdge, 0, len(h.parents))
	for _, e := range h.parents {
		edges = append(edges, ParentEdge{ParentID: e.handler.id, Key: e.key})
	}

	return edges
}

func (h *Handler) addListener(key Key, listener Listener) ListenerID {
	if listener == nil || !hashable(key) {
		return uuid.Nil
	}

	id := uuid.New()
	h.listeners[key] = append(h.listeners[key], registration{id: id, listener: listener})

	current, _ := h.container.get(key)
	listener(current, nil, key)

	return id
}

func (h *Handler) removeListener(key Key, id ListenerID) {
	if !hashable(key) {
		return
	}

	regs, ok := h.listeners[key]
	if !ok {
		return
	}

	kept := slices.DeleteFunc(slices.Clone(regs), func(r registration) bool {
		return r.id == id
	})

	if len(kept) == 0 {
		delete(h.listeners, key)
		return
	}

	h.listeners[key] = kept
}

func (h *Handler) listenersFor(key Key) []Listener {
	if !hashable(key) {
		return nil
	}

	regs := h.listeners[key]

	listeners := make([]Listener, 0, len(regs))
	for _, r := range regs {
		listeners = append(listeners, r.listener)
	}

	return listeners
}

func (h *Handler) hasParent(c container, key Key) bool {
	return slices.ContainsFunc(h.parents, func(e parentEdge) bool {
		return e.container.identity() == c.identity() && e.key == key
	})
}

// addParent links the node under slot key of c and reports whether the edge is new.
func (h *Handler) addParent(c container, key Key, parent *Handler) bool {
	if h.hasParent(c, key) {
		return false
	}

	h.parents = append(h.parents, parentEdge{container: c, key: key, handler: parent})

	return true
}

func (h *Handler) removeParent(c container, key Key) {
	h.parents = slices.DeleteFunc(slices.Clone(h.parents), func(e parentEdge) bool {
		return e.container.identity() == c.identity() && e.key == key
	})
}

// propChanged delivers a change to the listeners of key, then bubbles it to every parent slot.
// It returns how many listener calls were made, bubbled ones included.
func (h *Handler) propChanged(newValue, oldValue any, key Key) int {
	delivered := 0

	// copied, so listeners registering listeners cannot extend this pass
	for _, r := range slices.Clone(h.listeners[key]) {
		r.listener(newValue, oldValue, key)
		delivered++
	}

	for _, e := range slices.Clone(h.parents) {
		current, _ := e.container.get(e.key)
		delivered += e.handler.propChanged(current, nil, e.key)
	}

	return delivered
}

// ancestors returns the container identities of h and of every handler above it.
func (h *Handler) ancestors() map[containerID]struct{} {
	seen := make(map[*Handler]struct{})
	identities := make(map[containerID]struct{})

	queue := []*Handler{h}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if _, ok := seen[current]; ok {
			continue
		}

		seen[current] = struct{}{}
		identities[current.container.identity()] = struct{}{}

		for _, e := range current.parents {
			queue = append(queue, e.handler)
		}
	}

	return identities
}

// wouldCycle reports whether linking any of the given handlers below h makes a node its own ancestor.
func (h *Handler) wouldCycle(linked []*Handler) bool {
	ancestors := h.ancestors()
	for _, l := range linked {
		if _, ok := ancestors[l.container.identity()]; ok {
			return true
		}
	}

	return false
}

// handlerOf returns the handler of a wrapped value from any Watcher, nil for everything else.
func handlerOf(value any) *Handler {
	n, ok := value.(*Node)
	if !ok || n == nil {
		return nil
	}

	return n.handler
}

func hashable(key Key) bool {
	return key == nil || reflect.TypeOf(key).Comparable()
}
