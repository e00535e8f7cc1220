package bootstrap

import (
	"time"

	"github.com/kbukum/runkit/component"
	"github.com/kbukum/runkit/environment"
	"github.com/kbukum/runkit/extension"
	"github.com/kbukum/runkit/lifecycle"
	"github.com/kbukum/runkit/logger"
)

// Option configures the App during creation.
type Option func(*App)

// WithLogger sets a custom logger for the application.
func WithLogger(l *logger.Logger) Option {
	return func(a *App) { a.log = l }
}

// WithRegistry replaces the default extension registry. The default registry
// (with its built-in listeners and reporters) is not merged in; supply a
// fully assembled registry, e.g. for tests.
func WithRegistry(r *extension.Registry) Option {
	return func(a *App) { a.registry = r }
}

// WithContextFactory replaces the standard container factory.
func WithContextFactory(f component.Factory) Option {
	return func(a *App) { a.factory = f }
}

// WithEnvironmentOptions passes options through to the environment Builder.
func WithEnvironmentOptions(opts ...environment.Option) Option {
	return func(a *App) { a.envOpts = append(a.envOpts, opts...) }
}

// WithSources registers startup sources loaded into the context before
// refresh, in the order given.
func WithSources(sources ...Source) Option {
	return func(a *App) { a.sources = append(a.sources, sources...) }
}

// WithListeners adds run listeners directly, alongside discovered ones.
// Unlike discovered listeners they are not re-constructed per run, so they
// must not carry per-run state.
func WithListeners(listeners ...lifecycle.RunListener) Option {
	return func(a *App) { a.listeners = append(a.listeners, listeners...) }
}

// WithReporters adds exception reporters directly, alongside discovered ones.
func WithReporters(reporters ...ExceptionReporter) Option {
	return func(a *App) { a.reporters = append(a.reporters, reporters...) }
}

// WithGracefulTimeout sets the maximum duration RunAndWait spends closing
// the context during shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(a *App) { a.gracefulTimeout = d }
}
