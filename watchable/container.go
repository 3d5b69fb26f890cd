package watchable

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"unsafe"
)

// container is the raw storage governed by one Handler.
// It is mutated in place: attaching a value rewrites its composite slots with wrapped nodes.
type container interface {
	kind() Kind
	get(key Key) (any, bool)
	validKey(key Key) error
	set(key Key, value any)
	remove(key Key) (any, bool)
	keys() []Key
	len() int
	identity() containerID
	raw() any
}

// containerID tells raw storage apart. A list is its backing array together with length and
// capacity: base[:2] and base[:3] start at the same element but are different lists.
type containerID struct {
	kind Kind
	data uintptr
	len  int
	cap  int
}

// newContainer returns the container for a raw composite, false for scalars and nil composites.
func newContainer(value any) (container, bool) {
	switch v := value.(type) {
	case map[string]any:
		if v == nil {
			return nil, false
		}

		return &mapContainer{m: v}, true

	case []any:
		if v == nil {
			return nil, false
		}

		items := v

		return &listContainer{items: &items}, true

	default:
		return nil, false
	}
}

type mapContainer struct {
	m map[string]any
}

func (c *mapContainer) kind() Kind {
	return KindMap
}

func (c *mapContainer) get(key Key) (any, bool) {
	k, ok := key.(string)
	if !ok {
		return nil, false
	}

	v, ok := c.m[k]

	return v, ok
}

func (c *mapContainer) validKey(key Key) error {
	if _, ok := key.(string); !ok {
		return fmt.Errorf("%w: map keys are strings, got %T", ErrInvalidKey, key)
	}

	return nil
}

func (c *mapContainer) set(key Key, value any) {
	c.m[key.(string)] = value
}

func (c *mapContainer) remove(key Key) (any, bool) {
	k, ok := key.(string)
	if !ok {
		return nil, false
	}

	v, ok := c.m[k]
	if !ok {
		return nil, false
	}

	delete(c.m, k)

	return v, true
}

func (c *mapContainer) keys() []Key {
	sorted := slices.Sorted(maps.Keys(c.m))

	keys := make([]Key, 0, len(sorted))
	for _, k := range sorted {
		keys = append(keys, k)
	}

	return keys
}

func (c *mapContainer) len() int {
	return len(c.m)
}

func (c *mapContainer) identity() containerID {
	return containerID{kind: KindMap, data: uintptr(reflect.ValueOf(c.m).UnsafePointer())}
}

func (c *mapContainer) raw() any {
	return c.m
}

// listContainer keeps the slice header behind a pointer so that growth is seen by every
// handler sharing the container.
type listContainer struct {
	items *[]any
}

func (c *listContainer) kind() Kind {
	return KindList
}

func (c *listContainer) get(key Key) (any, bool) {
	i, ok := key.(int)
	if !ok || i < 0 || i >= len(*c.items) {
		return nil, false
	}

	return (*c.items)[i], true
}

func (c *listContainer) validKey(key Key) error {
	i, ok := key.(int)
	if !ok {
		return fmt.Errorf("%w: list keys are ints, got %T", ErrInvalidKey, key)
	}

	if i < 0 {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}

	return nil
}

// set grows the list with nil slots when key is past the end.
func (c *listContainer) set(key Key, value any) {
	i := key.(int)
	if i >= len(*c.items) {
		*c.items = append(*c.items, make([]any, i-len(*c.items)+1)...)
	}

	(*c.items)[i] = value
}

// remove leaves a nil hole and keeps the length.
func (c *listContainer) remove(key Key) (any, bool) {
	v, ok := c.get(key)
	if !ok {
		return nil, false
	}

	(*c.items)[key.(int)] = nil

	return v, true
}

func (c *listContainer) keys() []Key {
	keys := make([]Key, 0, len(*c.items))
	for i := range *c.items {
		keys = append(keys, i)
	}

	return keys
}

func (c *listContainer) len() int {
	return len(*c.items)
}

// identity is the slice header while the list has elements, so a raw slice and the list that
// governs it compare equal. Empty lists can contain nothing and fall back to the header address.
func (c *listContainer) identity() containerID {
	items := *c.items
	if len(items) > 0 {
		return containerID{
			kind: KindList,
			data: uintptr(unsafe.Pointer(unsafe.SliceData(items))),
			len:  len(items),
			cap:  cap(items),
		}
	}

	return containerID{kind: KindList, data: uintptr(unsafe.Pointer(c.items))}
}

func (c *listContainer) raw() any {
	return *c.items
}
