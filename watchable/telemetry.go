package watchable

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

const (
	operationAttach              = "attach"
	operationSet                 = "set"
	operationDelete              = "delete"
	logMsgOperation              = "watchable operation: "
	logMsgOperationFailed        = "watchable operation failed: "
	logMsgCycleRejected          = "cycle rejected"
	logAttrWatcher               = "watcher"
	logAttrNodeID                = "node_id"
	logAttrKey                   = "key"
	logAttrKind                  = "kind"
	logAttrNotifications         = "notifications"
	logAttrNodesCreated          = "nodes_created"
	logAttrDurationMS            = "duration_ms"
	logAttrError                 = "error"
	metricOperationDuration      = "watchable_operation_duration_seconds"
	metricNotificationsDelivered = "watchable_notifications_delivered"
	metricNodesAttached          = "watchable_nodes_attached"
	metricOperationErrors        = "watchable_operation_errors_total"
	metricCyclesRejected         = "watchable_cycles_rejected_total"
	spanNamePrefix               = "watchable."
	spanAttrOperation            = "operation"
	spanAttrWatcher              = "watcher"
	spanAttrNodeID               = "node_id"
	spanAttrKey                  = "key"
	spanAttrNotifications        = "notifications"
	spanAttrNodesCreated         = "nodes_created"
	spanAttrErrorType            = "error_type"
	labelOperation               = "operation"
	labelStatus                  = "status"
	labelWatcher                 = "watcher"
	labelErrorType               = "error_type"
	statusSuccess                = "success"
	statusError                  = "error"
	errorTypeCycle               = "cycle"
	errorTypeInvalidKey          = "invalid_key"
	errorTypeIndexOutOfRange     = "index_out_of_range"
	errorTypeUnknown             = "unknown"
)

// operation observes one attach, set, or delete. A nil *operation is valid and records nothing,
// which is what beginOperation hands out when no logger or collector is configured.
type operation struct {
	w       *Watcher
	name    string
	ctx     context.Context
	span    SpanContext
	start   time.Time
	handler *Handler
	key     Key
}

func (w *Watcher) observed() bool {
	return w.logger != nil || w.contextualLogger != nil || w.metricsCollector != nil || w.tracingCollector != nil
}

// beginOperation starts timing and, with a tracing collector, a span.
// Propagation is synchronous and the listener contract carries no context, so every span is a root span.
func (w *Watcher) beginOperation(name string, h *Handler, key Key) *operation {
	if !w.observed() {
		return nil
	}

	op := &operation{
		w:       w,
		name:    name,
		ctx:     context.Background(),
		start:   time.Now(),
		handler: h,
		key:     key,
	}

	if w.tracingCollector != nil {
		op.ctx, op.span = w.tracingCollector.StartSpan(op.ctx, spanNamePrefix+name, op.spanAttrs())
	}

	return op
}

// succeeded records a completed set or delete.
func (o *operation) succeeded(notifications int) {
	if o == nil {
		return
	}

	duration := time.Since(o.start)

	o.logDebug(o.logArgs(logAttrNotifications, notifications, logAttrDurationMS, toMilliseconds(duration)))

	o.recordDuration(duration, statusSuccess)
	o.recordValue(metricNotificationsDelivered, float64(notifications))
	o.finishSpan(statusSuccess, map[string]string{spanAttrNotifications: strconv.Itoa(notifications)})
}

// attached records a completed attachment rooted at h that created the given number of handlers.
func (o *operation) attached(h *Handler, created int) {
	if o == nil {
		return
	}

	o.handler = h
	duration := time.Since(o.start)

	o.logDebug(o.logArgs(
		logAttrKind, h.container.kind().String(),
		logAttrNodesCreated, created,
		logAttrDurationMS, toMilliseconds(duration),
	))

	o.recordDuration(duration, statusSuccess)
	o.recordValue(metricNodesAttached, float64(created))
	o.finishSpan(statusSuccess, map[string]string{
		spanAttrNodeID:       h.id.String(),
		spanAttrNodesCreated: strconv.Itoa(created),
	})
}

// failed records a rejected operation.
func (o *operation) failed(err error) {
	if o == nil {
		return
	}

	duration := time.Since(o.start)
	errorType := errorTypeOf(err)

	o.logFailure(errorType, o.logArgs(logAttrError, err.Error(), logAttrDurationMS, toMilliseconds(duration)))

	o.recordDuration(duration, statusError)
	o.incrementCounter(metricOperationErrors, map[string]string{labelErrorType: errorType})

	if errorType == errorTypeCycle {
		o.incrementCounter(metricCyclesRejected, nil)
	}

	o.finishSpan(statusError, map[string]string{spanAttrErrorType: errorType})
}

// logDebug writes the completion record to the logger and the contextual logger, whichever are set.
func (o *operation) logDebug(args []any) {
	msg := logMsgOperation + o.name

	if o.w.logger != nil {
		o.w.logger.Debug(msg, args...)
	}

	if o.w.contextualLogger != nil {
		o.w.contextualLogger.DebugContext(o.ctx, msg, args...)
	}
}

// logFailure warns about rejected cycles and reports every other failure as an error.
func (o *operation) logFailure(errorType string, args []any) {
	if errorType == errorTypeCycle {
		if o.w.logger != nil {
			o.w.logger.Warn(logMsgCycleRejected, args...)
		}

		if o.w.contextualLogger != nil {
			o.w.contextualLogger.WarnContext(o.ctx, logMsgCycleRejected, args...)
		}

		return
	}

	msg := logMsgOperationFailed + o.name

	if o.w.logger != nil {
		o.w.logger.Error(msg, args...)
	}

	if o.w.contextualLogger != nil {
		o.w.contextualLogger.ErrorContext(o.ctx, msg, args...)
	}
}

func (o *operation) logArgs(extra ...any) []any {
	args := []any{logAttrWatcher, o.w.name}

	if o.handler != nil {
		args = append(args, logAttrNodeID, o.handler.id.String())
	}

	if o.key != nil {
		args = append(args, logAttrKey, fmt.Sprint(o.key))
	}

	return append(args, extra...)
}

func (o *operation) spanAttrs() map[string]string {
	attrs := map[string]string{
		spanAttrOperation: o.name,
		spanAttrWatcher:   o.w.name,
	}

	if o.handler != nil {
		attrs[spanAttrNodeID] = o.handler.id.String()
	}

	if o.key != nil {
		attrs[spanAttrKey] = fmt.Sprint(o.key)
	}

	return attrs
}

func (o *operation) labels(status string) map[string]string {
	return map[string]string{
		labelOperation: o.name,
		labelStatus:    status,
		labelWatcher:   o.w.name,
	}
}

// recordDuration records the operation duration, with context if the collector supports it.
func (o *operation) recordDuration(duration time.Duration, status string) {
	if o.w.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := o.w.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(o.ctx, metricOperationDuration, duration, o.labels(status))
	} else {
		o.w.metricsCollector.RecordDuration(metricOperationDuration, duration, o.labels(status))
	}
}

// recordValue records a successful operation's value metric, with context if the collector supports it.
func (o *operation) recordValue(metric string, value float64) {
	if o.w.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := o.w.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordValueContext(o.ctx, metric, value, o.labels(statusSuccess))
	} else {
		o.w.metricsCollector.RecordValue(metric, value, o.labels(statusSuccess))
	}
}

// incrementCounter counts a failed operation, with context if the collector supports it.
func (o *operation) incrementCounter(metric string, extra map[string]string) {
	if o.w.metricsCollector == nil {
		return
	}

	labels := o.labels(statusError)
	for k, v := range extra {
		labels[k] = v
	}

	if contextualCollector, ok := o.w.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(o.ctx, metric, labels)
	} else {
		o.w.metricsCollector.IncrementCounter(metric, labels)
	}
}

func (o *operation) finishSpan(status string, attrs map[string]string) {
	if o.w.tracingCollector == nil || o.span == nil {
		return
	}

	o.span.SetStatus(status)
	o.w.tracingCollector.FinishSpan(o.span, status, attrs)
}

func errorTypeOf(err error) string {
	switch {
	case errors.Is(err, ErrCycleDetected):
		return errorTypeCycle
	case errors.Is(err, ErrInvalidKey):
		return errorTypeInvalidKey
	case errors.Is(err, ErrIndexOutOfRange):
		return errorTypeIndexOutOfRange
	default:
		return errorTypeUnknown
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
