package watchable

import (
	"errors"
)

var ErrInvalidKey = errors.New("key type is not valid for this container")
var ErrIndexOutOfRange = errors.New("list index out of range")
var ErrCycleDetected = errors.New("value would become its own ancestor")
var ErrNotComposite = errors.New("value is not a map[string]any or []any")
var ErrEmptyWatcherName = errors.New("empty watcher name supplied")
var ErrNilEqualityFunc = errors.New("nil equality func supplied")

// Key addresses a slot in a composite: a string for maps, an int for lists.
type Key = any

// Kind tells which composite shape a Node governs.
type Kind int

const (
	// KindMap is a keyed mapping backed by map[string]any.
	KindMap Kind = iota

	// KindList is an ordered sequence backed by []any.
	KindList
)

// String provides a string representation of Kind for logging and debugging.
func (k Kind) String() string {
	switch k {
	case KindMap:
		return "map"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}
