package promadapters

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AntonStoeckl/watchable-go/watchable"
)

var (
	// ErrEmptyBuckets is returned when WithBuckets is given no buckets.
	ErrEmptyBuckets = errors.New("histogram buckets must not be empty")

	// ErrUnsortedBuckets is returned when WithBuckets is given buckets that are not strictly increasing.
	ErrUnsortedBuckets = errors.New("histogram buckets must be strictly increasing")
)

// DefaultBuckets are the histogram buckets for operation durations, in seconds.
// Watchable operations run in-process, so the range starts well below a millisecond.
var DefaultBuckets = []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1}

const (
	helpDuration = "Duration of watchable operations in seconds"
	helpCounter  = "Count of watchable operation outcomes"
	helpGauge    = "Size of the last watchable operation"
)

// Option configures a MetricsCollector.
type Option func(*MetricsCollector) error

// WithBuckets sets the histogram buckets used for durations.
func WithBuckets(buckets []float64) Option {
	return func(m *MetricsCollector) error {
		if len(buckets) == 0 {
			return ErrEmptyBuckets
		}

		for i := 1; i < len(buckets); i++ {
			if buckets[i] <= buckets[i-1] {
				return ErrUnsortedBuckets
			}
		}

		m.buckets = slices.Clone(buckets)

		return nil
	}
}

// WithConstLabels adds labels with fixed values to every instrument, e.g. the service name.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(m *MetricsCollector) error {
		m.constLabels = labels

		return nil
	}
}

// MetricsCollector implements watchable.MetricsCollector on top of the Prometheus client:
//   - RecordDuration -> HistogramVec in seconds (operation durations)
//   - IncrementCounter -> CounterVec (failed operations, rejected cycles)
//   - RecordValue -> GaugeVec (delivered notifications, attached nodes)
//
// An observation whose label names differ from the ones the Vec was created with is dropped.
type MetricsCollector struct {
	registerer  prometheus.Registerer
	buckets     []float64
	constLabels prometheus.Labels

	mu         sync.Mutex
	histograms map[string]*prometheus.HistogramVec
	counters   map[string]*prometheus.CounterVec
	gauges     map[string]*prometheus.GaugeVec
}

// NewMetricsCollector creates a Prometheus metrics collector registering on registerer.
// A nil registerer means prometheus.DefaultRegisterer.
func NewMetricsCollector(registerer prometheus.Registerer, options ...Option) (*MetricsCollector, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &MetricsCollector{
		registerer: registerer,
		buckets:    DefaultBuckets,
		histograms: make(map[string]*prometheus.HistogramVec),
		counters:   make(map[string]*prometheus.CounterVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
	}

	for _, option := range options {
		if err := option(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// RecordDuration observes a duration in seconds.
func (m *MetricsCollector) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	histogram := m.histogram(metric, labels)
	if histogram == nil {
		return
	}

	observer, err := histogram.GetMetricWith(labels)
	if err != nil {
		return
	}

	observer.Observe(duration.Seconds())
}

// IncrementCounter adds one to a counter.
func (m *MetricsCollector) IncrementCounter(metric string, labels map[string]string) {
	counter := m.counter(metric, labels)
	if counter == nil {
		return
	}

	c, err := counter.GetMetricWith(labels)
	if err != nil {
		return
	}

	c.Inc()
}

// RecordValue sets a gauge to value.
func (m *MetricsCollector) RecordValue(metric string, value float64, labels map[string]string) {
	gauge := m.gauge(metric, labels)
	if gauge == nil {
		return
	}

	g, err := gauge.GetMetricWith(labels)
	if err != nil {
		return
	}

	g.Set(value)
}

func (m *MetricsCollector) histogram(name string, labels map[string]string) *prometheus.HistogramVec {
	m.mu.Lock()
	defer m.mu.Unlock()

	if histogram, exists := m.histograms[name]; exists {
		return histogram
	}

	histogram, ok := register(m.registerer, prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        name,
			Help:        helpDuration,
			Buckets:     m.buckets,
			ConstLabels: m.constLabels,
		},
		labelNames(labels),
	))
	if !ok {
		return nil
	}

	m.histograms[name] = histogram

	return histogram
}

func (m *MetricsCollector) counter(name string, labels map[string]string) *prometheus.CounterVec {
	m.mu.Lock()
	defer m.mu.Unlock()

	if counter, exists := m.counters[name]; exists {
		return counter
	}

	counter, ok := register(m.registerer, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        name,
			Help:        helpCounter,
			ConstLabels: m.constLabels,
		},
		labelNames(labels),
	))
	if !ok {
		return nil
	}

	m.counters[name] = counter

	return counter
}

func (m *MetricsCollector) gauge(name string, labels map[string]string) *prometheus.GaugeVec {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gauge, exists := m.gauges[name]; exists {
		return gauge
	}

	gauge, ok := register(m.registerer, prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:        name,
			Help:        helpGauge,
			ConstLabels: m.constLabels,
		},
		labelNames(labels),
	))
	if !ok {
		return nil
	}

	m.gauges[name] = gauge

	return gauge
}

// register registers collector, reusing an identical collector that is already registered,
// e.g. by another MetricsCollector sharing the registerer.
func register[T prometheus.Collector](registerer prometheus.Registerer, collector T) (T, bool) {
	err := registerer.Register(collector)
	if err == nil {
		return collector, true
	}

	var alreadyRegistered prometheus.AlreadyRegisteredError
	if errors.As(err, &alreadyRegistered) {
		existing, ok := alreadyRegistered.ExistingCollector.(T)

		return existing, ok
	}

	var zero T

	return zero, false
}

func labelNames(labels map[string]string) []string {
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

var _ watchable.MetricsCollector = (*MetricsCollector)(nil)
