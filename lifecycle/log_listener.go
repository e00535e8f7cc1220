package lifecycle

import (
	"context"
	"time"

	"github.com/kbukum/runkit/component"
	"github.com/kbukum/runkit/environment"
	"github.com/kbukum/runkit/logger"
)

// LogListenerID is the declaration identifier of the built-in log listener.
const LogListenerID = "logging"

// LogListener logs each lifecycle phase and a startup summary. It runs
// before other listeners so their activity appears after the phase marker.
type LogListener struct {
	log   *logger.Logger
	start time.Time
}

// NewLogListener creates the built-in phase logger.
func NewLogListener(log *logger.Logger) *LogListener {
	return &LogListener{log: log.WithComponent("run")}
}

func (l *LogListener) Name() string { return LogListenerID }

func (l *LogListener) Priority() int { return -100 }

func (l *LogListener) Starting(ctx context.Context) error {
	l.start = time.Now()
	l.log.Info("Application starting")
	return nil
}

func (l *LogListener) EnvironmentPrepared(ctx context.Context, env *environment.Environment) error {
	l.log.Info("Environment prepared", logger.Fields(
		logger.FieldProfile, env.ActiveProfiles(),
		"sources", len(env.SourceNames()),
	))
	return nil
}

func (l *LogListener) ContextPrepared(ctx context.Context, c component.Context) error {
	l.log.Debug("Context prepared")
	return nil
}

func (l *LogListener) ContextLoaded(ctx context.Context, c component.Context) error {
	l.log.Debug("Context loaded")
	return nil
}

func (l *LogListener) Running(ctx context.Context, c component.Context) error {
	l.log.Info("Application running", logger.DurationFields("startup", time.Since(l.start)))
	return nil
}

func (l *LogListener) Failed(ctx context.Context, c component.Context, err error) error {
	l.log.WithError(err).Error("Application run failed")
	return nil
}

func (l *LogListener) Finished(ctx context.Context, c component.Context, err error) error {
	l.log.Debug("Run finished", logger.DurationFields("run", time.Since(l.start)))
	return nil
}
