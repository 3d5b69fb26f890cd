// Package promadapters provides a Prometheus implementation of the watchable.MetricsCollector interface.
//
// Instruments are created lazily, one Vec per metric name, with the label names of the first observation,
// and registered on the given prometheus.Registerer:
//
//	registry := prometheus.NewRegistry()
//
//	collector, err := promadapters.NewMetricsCollector(registry)
//	if err != nil {
//		return err
//	}
//
//	w, err := watchable.NewWatcher(
//		watchable.WithName("profiles"),
//		watchable.WithMetrics(collector),
//	)
//
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
//
// Use oteladapters instead when metrics should be correlated with traces.
package promadapters
