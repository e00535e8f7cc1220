package testutil

import (
	"context"
	"sync"

	"github.com/kbukum/runkit/component"
	"github.com/kbukum/runkit/environment"
)

// Recorder collects phase events from one or more recording listeners in
// invocation order.
type Recorder struct {
	mu     sync.Mutex
	events []string
}

// Record appends an event.
func (r *Recorder) Record(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// RecordingListener records every phase call as "<name>:<phase>" and can be
// configured to fail a specific phase.
type RecordingListener struct {
	ListenerName     string
	ListenerPriority int
	Recorder         *Recorder

	// FailPhase names a phase whose call returns FailErr.
	FailPhase string
	FailErr   error

	// FinishedErr captures the error passed to Finished.
	FinishedErr error
	// FailedErr captures the error passed to Failed.
	FailedErr error
}

func (l *RecordingListener) Name() string { return l.ListenerName }

func (l *RecordingListener) Priority() int { return l.ListenerPriority }

func (l *RecordingListener) phase(name string) error {
	l.Recorder.Record(l.ListenerName + ":" + name)
	if l.FailPhase == name {
		return l.FailErr
	}
	return nil
}

func (l *RecordingListener) Starting(ctx context.Context) error {
	return l.phase("starting")
}

func (l *RecordingListener) EnvironmentPrepared(ctx context.Context, env *environment.Environment) error {
	return l.phase("environmentPrepared")
}

func (l *RecordingListener) ContextPrepared(ctx context.Context, c component.Context) error {
	return l.phase("contextPrepared")
}

func (l *RecordingListener) ContextLoaded(ctx context.Context, c component.Context) error {
	return l.phase("contextLoaded")
}

func (l *RecordingListener) Running(ctx context.Context, c component.Context) error {
	return l.phase("running")
}

func (l *RecordingListener) Failed(ctx context.Context, c component.Context, err error) error {
	l.FailedErr = err
	return l.phase("failed")
}

func (l *RecordingListener) Finished(ctx context.Context, c component.Context, err error) error {
	l.FinishedErr = err
	return l.phase("finished")
}
