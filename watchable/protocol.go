package watchable

import (
	"fmt"
)

// set runs the replace-and-notify protocol for one slot.
func (h *Handler) set(key Key, newValue any) error {
	w := h.watcher

	if err := h.container.validKey(key); err != nil {
		w.beginOperation(operationSet, h, key).failed(err)
		return err
	}

	// no-op writes are not observed
	oldValue, _ := h.container.get(key)
	if w.equal(oldValue, newValue) {
		return nil
	}

	op := w.beginOperation(operationSet, h, key)

	a := newAttachment(w)
	if w.shouldWrap(newValue) {
		wrapped, err := a.attach(newValue, handlerOf(oldValue))
		if err != nil {
			a.rollback()
			op.failed(err)

			return err
		}

		newValue = wrapped
	}

	newChild := handlerOf(newValue)
	if newChild != nil && h.wouldCycle(append(a.touched(), newChild)) {
		a.rollback()

		err := fmt.Errorf("%w: slot %v of node %s", ErrCycleDetected, key, h.id)
		op.failed(err)

		return err
	}

	if oldChild := handlerOf(oldValue); oldChild != nil {
		oldChild.removeParent(h.container, key)
	}

	if newChild != nil {
		newChild.addParent(h.container, key, h)
	}

	h.container.set(key, newValue)
	op.succeeded(h.propChanged(newValue, oldValue, key))

	return nil
}

// deleteProperty removes a slot, unlinks the removed node, and notifies with a nil new value.
func (h *Handler) deleteProperty(key Key) bool {
	if _, ok := h.container.get(key); !ok {
		return false
	}

	op := h.watcher.beginOperation(operationDelete, h, key)
	oldValue, _ := h.container.remove(key)

	if oldChild := handlerOf(oldValue); oldChild != nil {
		oldChild.removeParent(h.container, key)
	}

	op.succeeded(h.propChanged(nil, oldValue, key))

	return true
}
