package helper

import (
	"context"
	"maps"
	"slices"
	"strconv"
	"sync"

	"github.com/AntonStoeckl/watchable-go/watchable"
)

type spySpanKey struct{}

// SpanFromContext returns the span that TracingCollectorSpy.StartSpan put into ctx, nil if none.
func SpanFromContext(ctx context.Context) *SpySpan {
	span, _ := ctx.Value(spySpanKey{}).(*SpySpan)

	return span
}

// SpySpan is one span started by TracingCollectorSpy. It is also the watchable.SpanContext handed out.
type SpySpan struct {
	mu         sync.Mutex
	name       string
	status     string
	startAttrs map[string]string
	endAttrs   map[string]string
}

func (s *SpySpan) SetStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = status
}

func (s *SpySpan) AddAttribute(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.endAttrs[key] = value
}

func (s *SpySpan) attr(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if value, ok := s.endAttrs[key]; ok {
		return value, true
	}

	value, ok := s.startAttrs[key]

	return value, ok
}

// TracingCollectorSpy records the spans of a Watcher in start order.
type TracingCollectorSpy struct {
	mu    sync.Mutex
	spans []*SpySpan
}

// NewTracingCollectorSpy creates an empty TracingCollectorSpy.
func NewTracingCollectorSpy() *TracingCollectorSpy {
	return &TracingCollectorSpy{}
}

func (s *TracingCollectorSpy) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, watchable.SpanContext) {
	span := &SpySpan{
		name:       name,
		startAttrs: maps.Clone(attrs),
		endAttrs:   make(map[string]string),
	}

	s.mu.Lock()
	s.spans = append(s.spans, span)
	s.mu.Unlock()

	return context.WithValue(ctx, spySpanKey{}, span), span
}

// FinishSpan ignores span contexts it did not hand out.
func (s *TracingCollectorSpy) FinishSpan(spanCtx watchable.SpanContext, status string, attrs map[string]string) {
	span, ok := spanCtx.(*SpySpan)
	if !ok {
		return
	}

	span.SetStatus(status)
	for key, value := range attrs {
		span.AddAttribute(key, value)
	}
}

// Spans returns the recorded spans.
func (s *TracingCollectorSpy) Spans() []*SpySpan {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.spans)
}

// Count returns how many spans named name were started.
func (s *TracingCollectorSpy) Count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, span := range s.spans {
		if span.name == name {
			count++
		}
	}

	return count
}

func (s *TracingCollectorSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.spans = nil
}

// Span starts matching the spans named name.
func (s *TracingCollectorSpy) Span(name string) *SpanMatcher {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := &SpanMatcher{}
	for _, span := range s.spans {
		if span.name == name {
			m.candidates = append(m.candidates, span)
		}
	}

	return m
}

// SpanMatcher narrows spans down by status and attributes, start or end; Assert is true when any span is left.
type SpanMatcher struct {
	candidates []*SpySpan
}

func (m *SpanMatcher) WithStatus(status string) *SpanMatcher {
	return m.keep(func(span *SpySpan) bool {
		span.mu.Lock()
		defer span.mu.Unlock()

		return span.status == status
	})
}

func (m *SpanMatcher) ForWatcher(name string) *SpanMatcher {
	return m.withAttr("watcher", name)
}

func (m *SpanMatcher) ForNode(id watchable.NodeID) *SpanMatcher {
	return m.withAttr("node_id", id.String())
}

func (m *SpanMatcher) ForKey(key string) *SpanMatcher {
	return m.withAttr("key", key)
}

func (m *SpanMatcher) WithNotifications(count int) *SpanMatcher {
	return m.withAttr("notifications", strconv.Itoa(count))
}

func (m *SpanMatcher) WithNodesCreated(count int) *SpanMatcher {
	return m.withAttr("nodes_created", strconv.Itoa(count))
}

func (m *SpanMatcher) WithErrorType(errorType string) *SpanMatcher {
	return m.withAttr("error_type", errorType)
}

func (m *SpanMatcher) withAttr(key, value string) *SpanMatcher {
	return m.keep(func(span *SpySpan) bool {
		actual, ok := span.attr(key)

		return ok && actual == value
	})
}

func (m *SpanMatcher) keep(accept func(*SpySpan) bool) *SpanMatcher {
	m.candidates = slices.DeleteFunc(m.candidates, func(span *SpySpan) bool { return !accept(span) })

	return m
}

func (m *SpanMatcher) Assert() bool {
	return len(m.candidates) > 0
}

var _ watchable.TracingCollector = (*TracingCollectorSpy)(nil)
