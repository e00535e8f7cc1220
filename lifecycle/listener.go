package lifecycle

import (
	"context"

	"github.com/kbukum/runkit/component"
	"github.com/kbukum/runkit/environment"
)

// RunListener observes the run lifecycle. Implementations are discovered via
// the extension registry and constructed fresh for every run. Ordering
// follows the ordering package hints (Prioritized, RunsBefore, RunsAfter).
type RunListener interface {
	// Starting is called immediately when the run begins, before the
	// Environment exists.
	Starting(ctx context.Context) error

	// EnvironmentPrepared is called once the Environment is built, before
	// the container context is created.
	EnvironmentPrepared(ctx context.Context, env *environment.Environment) error

	// ContextPrepared is called once the container context exists, before
	// startup sources are loaded.
	ContextPrepared(ctx context.Context, c component.Context) error

	// ContextLoaded is called after sources are loaded, before refresh.
	ContextLoaded(ctx context.Context, c component.Context) error

	// Running is called after a successful refresh.
	Running(ctx context.Context, c component.Context) error

	// Failed is called when the run fails in any phase. The context is nil
	// if the failure happened before it was created.
	Failed(ctx context.Context, c component.Context, err error) error

	// Finished is always called last, whether the run succeeded or failed.
	// err is nil on success.
	Finished(ctx context.Context, c component.Context, err error) error
}

// BaseListener is a no-op RunListener for embedding, so listeners implement
// only the phases they care about.
type BaseListener struct{}

func (BaseListener) Starting(ctx context.Context) error { return nil }

func (BaseListener) EnvironmentPrepared(ctx context.Context, env *environment.Environment) error {
	return nil
}

func (BaseListener) ContextPrepared(ctx context.Context, c component.Context) error { return nil }

func (BaseListener) ContextLoaded(ctx context.Context, c component.Context) error { return nil }

func (BaseListener) Running(ctx context.Context, c component.Context) error { return nil }

func (BaseListener) Failed(ctx context.Context, c component.Context, err error) error { return nil }

func (BaseListener) Finished(ctx context.Context, c component.Context, err error) error { return nil }
