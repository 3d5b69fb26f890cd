package helper

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/AntonStoeckl/watchable-go/watchable"
)

// SpyMetricKind tells which MetricsCollector method produced a record.
type SpyMetricKind int

const (
	SpyDuration SpyMetricKind = iota
	SpyCounter
	SpyValue
)

// SpyMetricRecord is one recorded metrics call. Value is seconds for durations and 1 for counters.
type SpyMetricRecord struct {
	Kind   SpyMetricKind
	Metric string
	Value  float64
	Labels map[string]string
}

// MetricsCollectorSpy records every metrics call of a Watcher in call order.
type MetricsCollectorSpy struct {
	mu      sync.Mutex
	records []SpyMetricRecord
}

// NewMetricsCollectorSpy creates an empty MetricsCollectorSpy.
func NewMetricsCollectorSpy() *MetricsCollectorSpy {
	return &MetricsCollectorSpy{}
}

func (s *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	s.record(SpyDuration, metric, duration.Seconds(), labels)
}

func (s *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	s.record(SpyCounter, metric, 1, labels)
}

func (s *MetricsCollectorSpy) RecordValue(metric string, value float64, labels map[string]string) {
	s.record(SpyValue, metric, value, labels)
}

func (s *MetricsCollectorSpy) record(kind SpyMetricKind, metric string, value float64, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, SpyMetricRecord{
		Kind:   kind,
		Metric: metric,
		Value:  value,
		Labels: maps.Clone(labels),
	})
}

// Reset forgets everything recorded so far.
func (s *MetricsCollectorSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
}

// Records returns the records of one kind.
func (s *MetricsCollectorSpy) Records(kind SpyMetricKind) []SpyMetricRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []SpyMetricRecord
	for _, r := range s.records {
		if r.Kind == kind {
			records = append(records, r)
		}
	}

	return records
}

// Count returns how often metric was recorded.
func (s *MetricsCollectorSpy) Count(metric string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, r := range s.records {
		if r.Metric == metric {
			count++
		}
	}

	return count
}

// ForOperation starts matching the records of metric labelled with operation.
func (s *MetricsCollectorSpy) ForOperation(metric, operation string) *MetricRecordMatcher {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := &MetricRecordMatcher{}
	for _, r := range s.records {
		if r.Metric == metric && r.Labels["operation"] == operation {
			m.candidates = append(m.candidates, r)
		}
	}

	return m
}

// MetricRecordMatcher narrows the records of one operation down; Assert is true when any record is left.
type MetricRecordMatcher struct {
	candidates []SpyMetricRecord
}

func (m *MetricRecordMatcher) WithStatus(status string) *MetricRecordMatcher {
	return m.keep(func(r SpyMetricRecord) bool { return r.Labels["status"] == status })
}

func (m *MetricRecordMatcher) ForWatcher(name string) *MetricRecordMatcher {
	return m.keep(func(r SpyMetricRecord) bool { return r.Labels["watcher"] == name })
}

func (m *MetricRecordMatcher) WithErrorType(errorType string) *MetricRecordMatcher {
	return m.keep(func(r SpyMetricRecord) bool { return r.Labels["error_type"] == errorType })
}

func (m *MetricRecordMatcher) WithValue(value float64) *MetricRecordMatcher {
	return m.keep(func(r SpyMetricRecord) bool { return r.Value == value })
}

func (m *MetricRecordMatcher) keep(accept func(SpyMetricRecord) bool) *MetricRecordMatcher {
	m.candidates = slices.DeleteFunc(m.candidates, func(r SpyMetricRecord) bool { return !accept(r) })

	return m
}

func (m *MetricRecordMatcher) Assert() bool {
	return len(m.candidates) > 0
}

var _ watchable.MetricsCollector = (*MetricsCollectorSpy)(nil)
