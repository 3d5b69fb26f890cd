// Package helper provides test doubles and fixtures for watchable tests.
//
// This package contains a slog.Handler spy for capturing and validating log output,
// spies for the metrics and tracing collector interfaces, a listener spy recording
// every notification it receives, and fixture builders for nested test data.
package helper
