package watchable

import (
	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

var _ yaml.Marshaler = (*Node)(nil)

// Node is the wrapped reference of an attached composite.
//
// Reads pass through to the raw storage; composite children come back as *Node because wrapping
// is eager. Writes and deletes run the replace-and-notify protocol of the governing Handler.
// Copies of the pointer all observe and mutate the same storage and the same listeners.
type Node struct {
	handler *Handler
}

// Handler returns the governing handler.
func (n *Node) Handler() *Handler {
	return n.handler
}

// Raw returns the governed map[string]any or []any. Its composite slots hold *Node values.
func (n *Node) Raw() any {
	return n.handler.container.raw()
}

// Kind tells whether the node governs a map or a list.
func (n *Node) Kind() Kind {
	return n.handler.container.kind()
}

// Get returns the value stored under key, nil when there is none.
func (n *Node) Get(key Key) any {
	v, _ := n.handler.container.get(key)
	return v
}

// Lookup returns the value stored under key and whether the slot exists.
func (n *Node) Lookup(key Key) (any, bool) {
	return n.handler.container.get(key)
}

// Len returns the number of map entries or list elements.
func (n *Node) Len() int {
	return n.handler.container.len()
}

// Keys returns the sorted map keys or the list indexes.
func (n *Node) Keys() []Key {
	return n.handler.container.keys()
}

// Set stores value under key and notifies listeners when the slot changed.
//
// Composite values are attached before they are stored. When the slot held a node, the new node
// inherits its listeners, so subscriptions on keys of a replaced value keep firing.
// Writing past the end of a list grows it, padding with nil.
//
// Returns ErrInvalidKey or ErrIndexOutOfRange for unusable keys and ErrCycleDetected when value
// would contain this node; nothing is changed in those cases.
//
// Pass nodes, not their Raw() containers: a raw container is always wrapped anew, so a second
// node governs the same storage and changes made through one of them bubble only along its own
// parent slots.
func (n *Node) Set(key Key, value any) error {
	return n.handler.set(key, value)
}

// Append adds value at the end of a list.
func (n *Node) Append(value any) error {
	return n.handler.set(n.Len(), value)
}

// Delete removes key and notifies listeners with a nil new value.
// Deleting from a list leaves a nil hole and keeps the length.
// It reports false, and does nothing, when the slot does not exist.
func (n *Node) Delete(key Key) bool {
	return n.handler.deleteProperty(key)
}

// AddListener registers listener for key and calls it once right away with the current value
// and a nil old value. Listeners of one key are called in registration order.
func (n *Node) AddListener(key Key, listener Listener) ListenerID {
	return n.handler.addListener(key, listener)
}

// RemoveListener unregisters the listener registered under id for key.
// Unknown ids are ignored.
func (n *Node) RemoveListener(key Key, id ListenerID) {
	n.handler.removeListener(key, id)
}

// Listeners returns the listeners registered for key, in registration order.
func (n *Node) Listeners(key Key) []Listener {
	return n.handler.listenersFor(key)
}

// Plain returns a deep copy of the node with every *Node replaced by a plain map or slice.
func (n *Node) Plain() any {
	return plain(n)
}

// MarshalJSON renders the plain form of the node.
func (n *Node) MarshalJSON() ([]byte, error) {
	return jsonAPI.Marshal(n.Plain())
}

// MarshalYAML renders the plain form of the node.
func (n *Node) MarshalYAML() (any, error) {
	return n.Plain(), nil
}

func plain(value any) any {
	n, ok := value.(*Node)
	if !ok || n == nil {
		return value
	}

	switch raw := n.Raw().(type) {
	case map[string]any:
		out := make(map[string]any, len(raw))
		for k, v := range raw {
			out[k] = plain(v)
		}

		return out

	case []any:
		out := make([]any, len(raw))
		for i, v := range raw {
			out[i] = plain(v)
		}

		return out

	default:
		return raw
	}
}
