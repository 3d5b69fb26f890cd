package helper

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/watchable-go/watchable"
)

// GivenUserProfile returns fresh raw data with a nested map and a nested list.
func GivenUserProfile() map[string]any {
	return map[string]any{
		"name": "Ada",
		"address": map[string]any{
			"city": "London",
			"zip":  "NW1",
		},
		"tags":  []any{"math", "engines"},
		"score": 1,
	}
}

// GivenWatchedUserProfile attaches GivenUserProfile with w, or with the default Watcher when w is nil.
func GivenWatchedUserProfile(t testing.TB, w *watchable.Watcher) *watchable.Node {
	if w == nil {
		w = watchable.DefaultWatcher()
	}

	root, err := w.Watch(GivenUserProfile())
	require.NoError(t, err, "error in arranging test data")

	return root
}

// GivenWatcher creates a Watcher and fails the test on invalid options.
func GivenWatcher(t testing.TB, options ...watchable.Option) *watchable.Watcher {
	w, err := watchable.NewWatcher(options...)
	require.NoError(t, err, "error in arranging test data")

	return w
}

// ChildNode returns the node stored under key and fails the test when there is none.
func ChildNode(t testing.TB, n *watchable.Node, key watchable.Key) *watchable.Node {
	child, ok := n.Get(key).(*watchable.Node)
	require.True(t, ok, "expected a node under key %v, got %T", key, n.Get(key))

	return child
}
