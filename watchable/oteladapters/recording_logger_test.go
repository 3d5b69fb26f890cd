package oteladapters_test

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/embedded"
)

// recordingLoggerProvider is a log.LoggerProvider that keeps every emitted record with its context.
type recordingLoggerProvider struct {
	embedded.LoggerProvider

	mu      sync.Mutex
	records []emitted
}

type emitted struct {
	ctx    context.Context
	record log.Record
}

type recordingLogger struct {
	embedded.Logger

	provider *recordingLoggerProvider
}

func (p *recordingLoggerProvider) Logger(string, ...log.LoggerOption) log.Logger {
	return &recordingLogger{provider: p}
}

func (p *recordingLoggerProvider) emitted() []emitted {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]emitted(nil), p.records...)
}

func (p *recordingLoggerProvider) find(body string) (emitted, bool) {
	for _, e := range p.emitted() {
		if e.record.Body().AsString() == body {
			return e, true
		}
	}

	return emitted{}, false
}

func (l *recordingLogger) Emit(ctx context.Context, record log.Record) {
	l.provider.mu.Lock()
	defer l.provider.mu.Unlock()

	l.provider.records = append(l.provider.records, emitted{ctx: ctx, record: record.Clone()})
}

func (l *recordingLogger) Enabled(context.Context, log.EnabledParameters) bool {
	return true
}

func attributesOfRecord(record log.Record) map[string]log.Value {
	attrs := make(map[string]log.Value)
	record.WalkAttributes(func(kv log.KeyValue) bool {
		attrs[kv.Key] = kv.Value
		return true
	})

	return attrs
}
