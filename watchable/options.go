package watchable

// Option defines a functional option for configuring a Watcher.
type Option func(*Watcher) error

// WithName sets the name reported in logs, metric labels, and span attributes.
func WithName(name string) Option {
	return func(w *Watcher) error {
		if name == "" {
			return ErrEmptyWatcherName
		}

		w.name = name

		return nil
	}
}

// WithEquality replaces the policy deciding whether a write changes a slot.
// Writes the policy reports as equal are no-ops: nothing is stored and no listener is called.
// The default is Identical.
func WithEquality(equal func(oldValue, newValue any) bool) Option {
	return func(w *Watcher) error {
		if equal == nil {
			return ErrNilEqualityFunc
		}

		w.equal = equal

		return nil
	}
}

// WithLogger sets the logger for the Watcher.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: every attach, set, and delete with node id, key, notification count, and timing
// Warn level: rejected cycles
// Error level: other failed operations, like writes with unusable keys.
func WithLogger(logger Logger) Option {
	return func(w *Watcher) error {
		w.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Watcher.
// It receives the same messages as the Logger set with WithLogger, together with the context of the
// operation's span, so that backends can correlate log records with traces.
func WithContextualLogger(logger ContextualLogger) Option {
	return func(w *Watcher) error {
		w.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Watcher.
// The collector will receive operation durations, delivered notification counts, and error counters.
func WithMetrics(collector MetricsCollector) Option {
	return func(w *Watcher) error {
		w.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Watcher.
// Every attach, set, and delete runs in its own span; spans of writes issued from inside a
// listener are not nested, since the listener contract carries no context.
func WithTracing(collector TracingCollector) Option {
	return func(w *Watcher) error {
		w.tracingCollector = collector
		return nil
	}
}
