package bootstrap

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/kbukum/runkit/component"
	"github.com/kbukum/runkit/environment"
	"github.com/kbukum/runkit/extension"
	"github.com/kbukum/runkit/lifecycle"
	"github.com/kbukum/runkit/logger"
	"github.com/kbukum/runkit/ordering"
)

// Run executes the full run lifecycle and returns the refreshed container
// context. The phase sequence is fixed: starting, environmentPrepared,
// contextPrepared, contextLoaded, then running on success or failed on any
// error, and always finished last. On failure the error returned is the
// original one, so callers can distinguish discovery, ordering, profile, and
// listener failures by type.
//
// Discovery and ordering of listeners happens before the starting phase;
// failures there abort the run with no listener notified.
func (a *App) Run(ctx context.Context, args ...string) (component.Context, error) {
	runID := uuid.NewString()
	input := extension.RunInput{
		Sources: a.sourceNames(),
		Args:    append([]string(nil), args...),
		RunID:   runID,
	}
	log := a.log.WithFields(logger.Fields(logger.FieldRunID, runID))

	listeners, reporters, err := a.discoverExtensions(input)
	if err != nil {
		log.Error("Extension discovery failed", logger.ErrorFields("discover", err))
		return nil, err
	}

	multicaster := lifecycle.NewMulticaster(listeners, log)
	result := a.execute(ctx, multicaster, input.Args)

	if result.err != nil {
		result.phase = PhaseFailed
		log.Error("Run failed", logger.Fields(
			logger.FieldPhase, result.phase.String(),
			logger.FieldError, result.err.Error(),
		))
		multicaster.Failed(ctx, result.context, result.err)
		a.report(ctx, reporters, result)
	}

	result.phase = PhaseFinished
	multicaster.Finished(ctx, result.context, result.err)

	if result.err != nil {
		a.closeAbandoned(ctx, result.context)
		return nil, result.err
	}
	return result.context, nil
}

// RunAndWait runs the application, blocks until an interrupt/termination
// signal or context cancellation, and closes the context within the
// graceful timeout.
func (a *App) RunAndWait(ctx context.Context, args ...string) error {
	c, err := a.Run(ctx, args...)
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.log.Info("Received shutdown signal", logger.Fields("signal", sig.String()))
	case <-ctx.Done():
		a.log.Info("Context canceled, shutting down")
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()
	return c.Close(closeCtx)
}

// discoverExtensions constructs run-scoped listener and reporter instances
// and puts them in execution order.
func (a *App) discoverExtensions(input extension.RunInput) ([]lifecycle.RunListener, []ExceptionReporter, error) {
	listeners, err := extension.Instances[lifecycle.RunListener](a.registry, RunListenersContract, input)
	if err != nil {
		return nil, nil, err
	}
	listeners = append(listeners, a.listeners...)
	listeners, err = ordering.Sort(listeners)
	if err != nil {
		return nil, nil, err
	}

	reporters, err := extension.Instances[ExceptionReporter](a.registry, ExceptionReportersContract, input)
	if err != nil {
		return nil, nil, err
	}
	reporters = append(reporters, a.reporters...)
	reporters, err = ordering.Sort(reporters)
	if err != nil {
		return nil, nil, err
	}
	return listeners, reporters, nil
}

// execute walks the phase state machine until running or the first error.
// It never panics across phases: each transition is one multicaster call
// plus the orchestrator's own work for that phase.
func (a *App) execute(ctx context.Context, mc *lifecycle.Multicaster, args []string) runResult {
	res := runResult{phase: PhaseCreated}

	res.phase = PhaseStarting
	if res.err = mc.Starting(ctx); res.err != nil {
		return res
	}

	env, err := environment.NewBuilder(args, a.environmentOptions()...).Build()
	if err != nil {
		res.err = err
		return res
	}
	res.phase = PhaseEnvironmentPrepared
	if res.err = mc.EnvironmentPrepared(ctx, env); res.err != nil {
		return res
	}

	c, err := a.factory.CreateContext(ctx)
	if err != nil {
		res.err = err
		return res
	}
	c.SetEnvironment(env)
	res.context = c
	res.phase = PhaseContextPrepared
	if res.err = mc.ContextPrepared(ctx, c); res.err != nil {
		return res
	}

	if res.err = c.Load(ctx, a.loadFuncs()...); res.err != nil {
		return res
	}
	res.phase = PhaseContextLoaded
	if res.err = mc.ContextLoaded(ctx, c); res.err != nil {
		return res
	}

	// Container refresh is the opaque, blocking collaborator call.
	if res.err = c.Refresh(ctx); res.err != nil {
		return res
	}

	res.phase = PhaseRunning
	res.err = mc.Running(ctx, c)
	return res
}

// report invokes every reporter once. A reporter's own failure is logged
// and never prevents the remaining reporters or the finished broadcast.
func (a *App) report(ctx context.Context, reporters []ExceptionReporter, res runResult) {
	for _, r := range reporters {
		if err := r.Report(ctx, res.context, res.err); err != nil {
			a.log.Error("Exception reporter failed", logger.ErrorFields(reporterName(r), err))
		}
	}
}

// closeAbandoned stops whatever the failed run managed to start.
func (a *App) closeAbandoned(ctx context.Context, c component.Context) {
	if c == nil {
		return
	}
	if err := c.Close(ctx); err != nil {
		a.log.Warn("Context close after failure", logger.ErrorFields("close", err))
	}
}

// environmentOptions injects the app logger ahead of user options.
func (a *App) environmentOptions() []environment.Option {
	return append([]environment.Option{environment.WithLogger(a.log)}, a.envOpts...)
}

func reporterName(r ExceptionReporter) string {
	if n, ok := r.(ordering.Named); ok {
		return n.Name()
	}
	return "reporter"
}
