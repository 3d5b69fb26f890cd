package watchable

import (
	"fmt"
)

// attachment is one run of the attachment algorithm. It remembers every slot it rewrote and every
// edge it added, so that a rejected attachment leaves the caller's data as it found it.
type attachment struct {
	watcher  *Watcher
	done     map[containerID]*Node
	visiting map[containerID]struct{}
	created  []*Handler
	linked   []*Handler
	writes   []slotWrite
	links    []slotLink
}

type slotWrite struct {
	container container
	key       Key
	previous  any
}

type slotLink struct {
	child     *Handler
	container container
	key       Key
}

func newAttachment(w *Watcher) *attachment {
	return &attachment{
		watcher:  w,
		done:     make(map[containerID]*Node),
		visiting: make(map[containerID]struct{}),
	}
}

// attach wraps value and, depth-first, every composite below it.
// Scalars and values already governed by this Watcher are returned unchanged.
func (a *attachment) attach(value any, inherited *Handler) (any, error) {
	if !a.watcher.shouldWrap(value) {
		return value, nil
	}

	var c container
	basis := inherited

	if n, ok := value.(*Node); ok {
		// governed by another Watcher: take over its container, clone its handler
		c = n.handler.container
		if basis == nil {
			basis = n.handler
		}
	} else {
		c, _ = newContainer(value)
	}

	id := c.identity()
	if n, ok := a.done[id]; ok {
		return n, nil
	}

	if _, ok := a.visiting[id]; ok {
		return nil, fmt.Errorf("%w: %s contains itself", ErrCycleDetected, c.kind())
	}

	a.visiting[id] = struct{}{}
	defer delete(a.visiting, id)

	var h *Handler
	if basis != nil {
		h = basis.cloneFor(a.watcher, c)
	} else {
		h = newHandler(a.watcher, c)
	}

	for _, key := range c.keys() {
		child, _ := c.get(key)

		if a.watcher.shouldWrap(child) {
			wrapped, err := a.attach(child, nil)
			if err != nil {
				return nil, err
			}

			a.write(c, key, child, wrapped)
			a.link(handlerOf(wrapped), c, key, h)

			continue
		}

		if existing := a.watcher.governed(child); existing != nil {
			a.link(existing, c, key, h)
			a.linked = append(a.linked, existing)
		}
	}

	a.done[id] = h.node
	a.created = append(a.created, h)

	return h.node, nil
}

func (a *attachment) write(c container, key Key, previous, value any) {
	a.writes = append(a.writes, slotWrite{container: c, key: key, previous: previous})
	c.set(key, value)
}

func (a *attachment) link(child *Handler, c container, key Key, parent *Handler) {
	if child.addParent(c, key, parent) {
		a.links = append(a.links, slotLink{child: child, container: c, key: key})
	}
}

// touched returns the handlers that end up below the attached root: the ones created
// and the existing ones linked under them.
func (a *attachment) touched() []*Handler {
	touched := make([]*Handler, 0, len(a.created)+len(a.linked))
	touched = append(touched, a.created...)

	return append(touched, a.linked...)
}

// rollback undoes the edges and slot rewrites of the attachment, newest first.
func (a *attachment) rollback() {
	for i := len(a.links) - 1; i >= 0; i-- {
		l := a.links[i]
		l.child.removeParent(l.container, l.key)
	}

	for i := len(a.writes) - 1; i >= 0; i-- {
		w := a.writes[i]
		w.container.set(w.key, w.previous)
	}

	a.links = nil
	a.writes = nil
}
