package component

import (
	"context"
	"fmt"

	"github.com/kbukum/runkit/environment"
	"github.com/kbukum/runkit/logger"
)

// Source registers components into a context's registry. Startup sources are
// the units the orchestrator loads into the container before refresh.
type Source func(reg *Registry) error

// Context is the container boundary the orchestrator drives. It is opaque to
// the run lifecycle: the orchestrator creates it, wires the Environment,
// loads sources, and triggers refresh.
type Context interface {
	// SetEnvironment hands the run's Environment to the container. The
	// container co-owns it for additive mutation only.
	SetEnvironment(env *environment.Environment)

	// Environment returns the wired Environment, nil before SetEnvironment.
	Environment() *environment.Environment

	// Load applies startup sources. Must be called before Refresh.
	Load(ctx context.Context, sources ...Source) error

	// Refresh starts the container. Blocking; at most once.
	Refresh(ctx context.Context) error

	// Refreshed reports whether Refresh completed successfully.
	Refreshed() bool

	// Close stops the container, releasing all component resources.
	Close(ctx context.Context) error
}

// Factory creates contexts. The orchestrator calls it once per run.
type Factory interface {
	CreateContext(ctx context.Context) (Context, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(ctx context.Context) (Context, error)

func (f FactoryFunc) CreateContext(ctx context.Context) (Context, error) {
	return f(ctx)
}

// StandardFactory creates StandardContext instances.
func StandardFactory() Factory {
	return FactoryFunc(func(ctx context.Context) (Context, error) {
		return NewStandardContext(), nil
	})
}

// StandardContext is the default Context, backed by a component Registry.
type StandardContext struct {
	registry  *Registry
	env       *environment.Environment
	refreshed bool

	log *logger.Logger
}

// NewStandardContext creates an empty, unrefreshed context.
func NewStandardContext() *StandardContext {
	return &StandardContext{
		registry: NewRegistry(),
		log:      logger.GetGlobalLogger().WithComponent("context"),
	}
}

func (c *StandardContext) SetEnvironment(env *environment.Environment) {
	c.env = env
}

func (c *StandardContext) Environment() *environment.Environment {
	return c.env
}

// Registry exposes the backing component registry for application code.
func (c *StandardContext) Registry() *Registry {
	return c.registry
}

// Load runs each source against the registry. Loading into a refreshed
// context is an error.
func (c *StandardContext) Load(ctx context.Context, sources ...Source) error {
	if c.refreshed {
		return fmt.Errorf("context: cannot load sources after refresh")
	}
	for i, source := range sources {
		if err := source(c.registry); err != nil {
			return fmt.Errorf("context: loading source %d: %w", i, err)
		}
	}
	return nil
}

// Refresh starts all registered components in registration order.
func (c *StandardContext) Refresh(ctx context.Context) error {
	if c.refreshed {
		return fmt.Errorf("context: already refreshed")
	}
	if err := c.registry.StartAll(ctx); err != nil {
		return err
	}
	c.refreshed = true
	c.log.Debug("Context refreshed", logger.Fields("components", len(c.registry.All())))
	return nil
}

func (c *StandardContext) Refreshed() bool {
	return c.refreshed
}

// Close stops all started components in reverse order.
func (c *StandardContext) Close(ctx context.Context) error {
	return c.registry.StopAll(ctx)
}
