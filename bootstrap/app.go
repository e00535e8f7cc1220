package bootstrap

import (
	"time"

	"github.com/kbukum/runkit/component"
	"github.com/kbukum/runkit/environment"
	"github.com/kbukum/runkit/extension"
	"github.com/kbukum/runkit/lifecycle"
	"github.com/kbukum/runkit/logger"
	"github.com/kbukum/runkit/version"
)

// Source is one startup source: a named unit of component registrations the
// orchestrator loads into the container before refresh.
type Source struct {
	Name string
	Load component.Source
}

// App is the application run orchestrator. One App may execute multiple
// runs; listener and reporter instances are constructed fresh per run while
// the extension registry is shared.
type App struct {
	Name    string
	Version version.Info

	log      *logger.Logger
	registry *extension.Registry
	factory  component.Factory
	envOpts  []environment.Option
	sources  []Source

	listeners []lifecycle.RunListener
	reporters []ExceptionReporter

	gracefulTimeout time.Duration
}

// New creates an App for the named application.
func New(name string, opts ...Option) *App {
	if name == "" {
		name = "application"
	}
	a := &App{
		Name:            name,
		Version:         version.Get(),
		log:             logger.GetGlobalLogger(),
		factory:         component.StandardFactory(),
		gracefulTimeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.registry == nil {
		a.registry = a.defaultRegistry()
	}
	return a
}

// Registry returns the extension registry, for registering additional
// factories or declaration locations before a run.
func (a *App) Registry() *extension.Registry {
	return a.registry
}

// sourceNames lists the startup source names handed to extension factories.
func (a *App) sourceNames() []string {
	names := make([]string, len(a.sources))
	for i, s := range a.sources {
		names[i] = s.Name
	}
	return names
}

// loadFuncs flattens the startup sources into registration functions.
func (a *App) loadFuncs() []component.Source {
	funcs := make([]component.Source, len(a.sources))
	for i, s := range a.sources {
		funcs[i] = s.Load
	}
	return funcs
}
