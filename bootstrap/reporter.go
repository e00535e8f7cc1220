package bootstrap

import (
	"context"

	"github.com/kbukum/runkit/component"
	"github.com/kbukum/runkit/logger"
)

// ExceptionReporter reports a failed run to some sink (log, external system).
// Reporters are discovered like listeners, ordered, and each invoked exactly
// once per failure. A reporter's own error is logged and never escalated.
type ExceptionReporter interface {
	// Report receives the container context (nil if the failure happened
	// before it was created) and the run error.
	Report(ctx context.Context, c component.Context, err error) error
}

// LogReporterID is the declaration identifier of the built-in log reporter.
const LogReporterID = "logreporter"

// LogReporter writes the failure to the application log.
type LogReporter struct {
	log *logger.Logger
}

// NewLogReporter creates the built-in failure reporter.
func NewLogReporter(log *logger.Logger) *LogReporter {
	return &LogReporter{log: log.WithComponent("reporter")}
}

func (r *LogReporter) Name() string { return LogReporterID }

func (r *LogReporter) Report(ctx context.Context, c component.Context, err error) error {
	fields := logger.Fields(logger.FieldError, err.Error())
	if c != nil && c.Refreshed() {
		fields["refreshed"] = true
	}
	r.log.Error("Application failed to start", fields)
	return nil
}
