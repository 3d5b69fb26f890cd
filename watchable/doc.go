// Package watchable provides change notification over nested composite data.
//
// Attaching a plain map[string]any or []any wraps it, and recursively every map or slice reachable
// from it, into a *Node. Writes and deletes issued through a Node are delivered synchronously to the
// listeners registered for the affected key, and then bubble upward through every parent slot that
// holds the mutated node.
//
// Key types:
//   - Watcher: the configured attachment engine (logging, metrics, tracing, equality policy)
//   - Node: the wrapped reference handed out to callers
//   - Handler: the per-node listener registry and parent linkage
//
// Common usage pattern:
//
//	root, err := watchable.Watch(map[string]any{
//		"user": map[string]any{"name": "Ada"},
//	})
//	if err != nil {
//		// handle error
//	}
//
//	user := root.Get("user").(*watchable.Node)
//	user.AddListener("name", func(newValue, oldValue any, key watchable.Key) {
//		fmt.Println(key, oldValue, "->", newValue)
//	})
//	root.AddListener("user", func(newValue, _ any, _ watchable.Key) {
//		// fires on every change below root["user"], oldValue is always nil here
//	})
//
//	err = user.Set("name", "Grace")
//
// Nodes and Watchers are not safe for concurrent use. Listeners run inline, before Set or Delete
// returns, and may issue further writes against the same tree.
//
// Observability is optional and dependency free: see the Logger, MetricsCollector and
// TracingCollector interfaces. The oteladapters and promadapters modules implement them for
// OpenTelemetry and Prometheus.
package watchable
