// Package progress defines the progress reporter contract used during
// long replays. Reporters are fire-and-forget and must never block the
// engine's critical path.
package progress

import (
	"context"

	"github.com/riftline/mmr/pkg/logger"
)

// Reporter receives human-readable status lines at coarse intervals.
type Reporter interface {
	Report(msg string)
}

// Noop discards all reports. Useful for headless and test runs.
type Noop struct{}

// Report does nothing.
func (Noop) Report(string) {}

// LogReporter writes reports through the structured logger.
type LogReporter struct {
	log logger.Logger
}

// NewLogReporter creates a reporter backed by log.
func NewLogReporter(log logger.Logger) *LogReporter {
	return &LogReporter{log: log}
}

// Report logs the status line at info level.
func (r *LogReporter) Report(msg string) {
	r.log.Info(context.Background(), msg)
}
