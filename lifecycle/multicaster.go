package lifecycle

import (
	"context"
	"fmt"

	"github.com/kbukum/runkit/component"
	"github.com/kbukum/runkit/environment"
	"github.com/kbukum/runkit/logger"
	"github.com/kbukum/runkit/ordering"
)

// Multicaster broadcasts one lifecycle phase call to every listener in its
// fixed, ordered list. It holds no other mutable state.
type Multicaster struct {
	listeners []RunListener
	log       *logger.Logger
}

// NewMulticaster creates a multicaster over an already-ordered listener list.
func NewMulticaster(listeners []RunListener, log *logger.Logger) *Multicaster {
	return &Multicaster{
		listeners: append([]RunListener(nil), listeners...),
		log:       log.WithComponent("lifecycle"),
	}
}

// Listeners returns the listeners in broadcast order.
func (m *Multicaster) Listeners() []RunListener {
	return append([]RunListener(nil), m.listeners...)
}

func (m *Multicaster) Starting(ctx context.Context) error {
	return m.broadcast("starting", func(l RunListener) error {
		return l.Starting(ctx)
	})
}

func (m *Multicaster) EnvironmentPrepared(ctx context.Context, env *environment.Environment) error {
	return m.broadcast("environmentPrepared", func(l RunListener) error {
		return l.EnvironmentPrepared(ctx, env)
	})
}

func (m *Multicaster) ContextPrepared(ctx context.Context, c component.Context) error {
	return m.broadcast("contextPrepared", func(l RunListener) error {
		return l.ContextPrepared(ctx, c)
	})
}

func (m *Multicaster) ContextLoaded(ctx context.Context, c component.Context) error {
	return m.broadcast("contextLoaded", func(l RunListener) error {
		return l.ContextLoaded(ctx, c)
	})
}

func (m *Multicaster) Running(ctx context.Context, c component.Context) error {
	return m.broadcast("running", func(l RunListener) error {
		return l.Running(ctx, c)
	})
}

// Failed notifies every listener of the failure, containing individual
// listener errors so all of them hear about it.
func (m *Multicaster) Failed(ctx context.Context, c component.Context, err error) {
	m.broadcastAll("failed", func(l RunListener) error {
		return l.Failed(ctx, c, err)
	})
}

// Finished notifies every listener that the run is over, containing
// individual listener errors.
func (m *Multicaster) Finished(ctx context.Context, c component.Context, err error) {
	m.broadcastAll("finished", func(l RunListener) error {
		return l.Finished(ctx, c, err)
	})
}

// broadcast invokes listeners in order and stops at the first error. The
// error propagates untouched so the orchestrator rethrows the original
// failure; listener and phase are logged here instead of wrapped in.
func (m *Multicaster) broadcast(phase string, call func(RunListener) error) error {
	for _, l := range m.listeners {
		if err := call(l); err != nil {
			m.log.Error("Listener failed", logger.Fields(
				logger.FieldListener, listenerName(l),
				logger.FieldPhase, phase,
				logger.FieldError, err.Error(),
			))
			return err
		}
	}
	return nil
}

// broadcastAll invokes every listener regardless of errors.
func (m *Multicaster) broadcastAll(phase string, call func(RunListener) error) {
	for _, l := range m.listeners {
		if err := call(l); err != nil {
			m.log.Error("Listener error contained", logger.Fields(
				logger.FieldListener, listenerName(l),
				logger.FieldPhase, phase,
				logger.FieldError, err.Error(),
			))
		}
	}
}

func listenerName(l RunListener) string {
	if n, ok := l.(ordering.Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", l)
}
