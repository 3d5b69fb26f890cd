// Package oteladapters provides OpenTelemetry implementations of the watchable observability interfaces.
//
// Wire them into a Watcher with the usual options:
//
//	w, err := watchable.NewWatcher(
//		watchable.WithName("profiles"),
//		watchable.WithMetrics(oteladapters.NewMetricsCollector(meterProvider.Meter("watchable"))),
//		watchable.WithTracing(oteladapters.NewTracingCollector(tracerProvider.Tracer("watchable"))),
//		watchable.WithContextualLogger(oteladapters.NewSlogBridgeLogger("watchable")),
//	)
//
// The package lives in its own module, so that the watchable core does not depend on OpenTelemetry.
package oteladapters
