package bootstrap_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/kbukum/runkit/bootstrap"
	"github.com/kbukum/runkit/component"
	"github.com/kbukum/runkit/extension"
	"github.com/kbukum/runkit/lifecycle"
	"github.com/kbukum/runkit/lifecycle/testutil"
	"github.com/kbukum/runkit/logger"
)

// stateError is a distinct error type so tests can assert the original
// failure surfaces unwrapped by type.
type stateError struct{ msg string }

func (e *stateError) Error() string { return e.msg }

// countingReporter tracks invocations across run-scoped instances.
type reporterStats struct {
	mu      sync.Mutex
	calls   int
	lastErr error
	lastCtx component.Context
}

type countingReporter struct {
	stats *reporterStats
	fail  error
}

func (r *countingReporter) Report(ctx context.Context, c component.Context, err error) error {
	r.stats.mu.Lock()
	defer r.stats.mu.Unlock()
	r.stats.calls++
	r.stats.lastErr = err
	r.stats.lastCtx = c
	return r.fail
}

func declFS(content string) fstest.MapFS {
	return fstest.MapFS{
		"runkit.extensions": &fstest.MapFile{Data: []byte(content)},
	}
}

// testHarness wires a registry with recording listeners and a counting
// reporter, returning the pieces tests assert on.
type testHarness struct {
	registry  *extension.Registry
	recorder  *testutil.Recorder
	listeners map[string]*testutil.RecordingListener
	stats     *reporterStats
}

func newHarness(listenerNames ...string) *testHarness {
	h := &testHarness{
		registry:  extension.NewRegistry(),
		recorder:  &testutil.Recorder{},
		listeners: make(map[string]*testutil.RecordingListener),
		stats:     &reporterStats{},
	}

	decl := "runkit.RunListener="
	for i, name := range listenerNames {
		if i > 0 {
			decl += ","
		}
		decl += name
	}
	decl += "\nrunkit.ExceptionReporter=counter\n"
	h.registry.AddLocation(declFS(decl), "runkit.extensions")

	for _, name := range listenerNames {
		name := name
		h.registry.RegisterFactory(bootstrap.RunListenersContract, name,
			func(run extension.RunInput) (any, error) {
				l := &testutil.RecordingListener{ListenerName: name, Recorder: h.recorder}
				h.listeners[name] = l
				return l, nil
			})
	}
	h.registry.RegisterFactory(bootstrap.ExceptionReportersContract, "counter",
		func(run extension.RunInput) (any, error) {
			return &countingReporter{stats: h.stats}, nil
		})
	return h
}

func (h *testHarness) app(opts ...bootstrap.Option) *bootstrap.App {
	opts = append([]bootstrap.Option{
		bootstrap.WithLogger(logger.Nop()),
		bootstrap.WithRegistry(h.registry),
	}, opts...)
	return bootstrap.New("test-app", opts...)
}

func assertEvents(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d events %v,\ngot %d events %v", len(want), want, len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %q, got %q\nfull: %v", i, want[i], got[i], got)
		}
	}
}

func TestRunSuccessPhaseSequence(t *testing.T) {
	h := newHarness("l1", "l2")
	c, err := h.app().Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if c == nil || !c.Refreshed() {
		t.Fatal("expected a refreshed context")
	}

	assertEvents(t, h.recorder.Events(),
		"l1:starting", "l2:starting",
		"l1:environmentPrepared", "l2:environmentPrepared",
		"l1:contextPrepared", "l2:contextPrepared",
		"l1:contextLoaded", "l2:contextLoaded",
		"l1:running", "l2:running",
		"l1:finished", "l2:finished",
	)
	if h.listeners["l2"].FinishedErr != nil {
		t.Errorf("expected nil error in finished on success, got %v", h.listeners["l2"].FinishedErr)
	}
	if h.stats.calls != 0 {
		t.Errorf("reporters must not run on success, got %d calls", h.stats.calls)
	}
}

func TestRunListenerFailureDuringContextPrepared(t *testing.T) {
	h := newHarness("l1", "l2")
	boom := &stateError{msg: "context not usable"}
	// Re-register l1 with a failing phase.
	h.registry.RegisterFactory(bootstrap.RunListenersContract, "l1",
		func(run extension.RunInput) (any, error) {
			l := &testutil.RecordingListener{
				ListenerName: "l1",
				Recorder:     h.recorder,
				FailPhase:    "contextPrepared",
				FailErr:      boom,
			}
			h.listeners["l1"] = l
			return l, nil
		})

	c, err := h.app().Run(context.Background())
	if c != nil {
		t.Error("expected nil context on failure")
	}

	var se *stateError
	if !errors.As(err, &se) {
		t.Fatalf("expected original *stateError, got %T: %v", err, err)
	}

	assertEvents(t, h.recorder.Events(),
		"l1:starting", "l2:starting",
		"l1:environmentPrepared", "l2:environmentPrepared",
		// l2 is skipped within the failing phase, then everyone hears
		// failed and finished.
		"l1:contextPrepared",
		"l1:failed", "l2:failed",
		"l1:finished", "l2:finished",
	)

	if h.stats.calls != 1 {
		t.Errorf("expected reporter chain to run exactly once, got %d", h.stats.calls)
	}
	if !errors.Is(h.stats.lastErr, boom) {
		t.Errorf("reporter got %v, expected the original error", h.stats.lastErr)
	}
	if h.stats.lastCtx == nil {
		t.Error("reporter should receive the context created before the failure")
	}
	if !errors.Is(h.listeners["l2"].FinishedErr, boom) {
		t.Error("finished must carry the original error to every listener")
	}
}

func TestRunListenerFailureDuringStarting(t *testing.T) {
	h := newHarness("l1", "l2")
	boom := errors.New("early failure")
	h.registry.RegisterFactory(bootstrap.RunListenersContract, "l1",
		func(run extension.RunInput) (any, error) {
			l := &testutil.RecordingListener{
				ListenerName: "l1",
				Recorder:     h.recorder,
				FailPhase:    "starting",
				FailErr:      boom,
			}
			h.listeners["l1"] = l
			return l, nil
		})

	_, err := h.app().Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected original error, got %v", err)
	}

	// No context exists, but failed and finished still reach all listeners.
	assertEvents(t, h.recorder.Events(),
		"l1:starting",
		"l1:failed", "l2:failed",
		"l1:finished", "l2:finished",
	)
	if h.stats.lastCtx != nil {
		t.Error("reporter context must be nil before the context phase")
	}
}

func TestRunRefreshFailure(t *testing.T) {
	h := newHarness("l1")
	startErr := errors.New("db unreachable")
	app := h.app(bootstrap.WithSources(bootstrap.Source{
		Name: "db",
		Load: func(reg *component.Registry) error {
			return reg.Register(&failingComponent{name: "db", startErr: startErr})
		},
	}))

	_, err := app.Run(context.Background())
	if !errors.Is(err, startErr) {
		t.Fatalf("expected refresh failure to surface, got %v", err)
	}
	if h.stats.calls != 1 {
		t.Errorf("expected one reporter invocation, got %d", h.stats.calls)
	}

	events := h.recorder.Events()
	last := events[len(events)-1]
	if last != "l1:finished" {
		t.Errorf("finished must fire last, got %q", last)
	}
}

func TestRunFreshInstancesPerRun(t *testing.T) {
	h := newHarness("l1")
	var constructions int
	h.registry.RegisterFactory(bootstrap.RunListenersContract, "l1",
		func(run extension.RunInput) (any, error) {
			constructions++
			return &testutil.RecordingListener{ListenerName: "l1", Recorder: h.recorder}, nil
		})

	app := h.app()
	for i := 0; i < 2; i++ {
		c, err := app.Run(context.Background())
		if err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
		if err := c.Close(context.Background()); err != nil {
			t.Fatalf("close %d failed: %v", i, err)
		}
	}
	if constructions != 2 {
		t.Errorf("expected a fresh listener per run, got %d constructions", constructions)
	}
}

func TestRunDiscoveryFailureAbortsBeforeStarting(t *testing.T) {
	h := newHarness("l1")
	// Declare a listener identifier that has no factory.
	h.registry.AddLocation(declFS("runkit.RunListener=ghost\n"), "runkit.extensions")

	_, err := h.app().Run(context.Background())
	var de *extension.DiscoveryError
	if !errors.As(err, &de) {
		t.Fatalf("expected DiscoveryError, got %T: %v", err, err)
	}
	if events := h.recorder.Events(); len(events) != 0 {
		t.Errorf("no listener may be notified when discovery fails, got %v", events)
	}
}

func TestRunReporterFailureContained(t *testing.T) {
	h := newHarness("l1")
	boom := errors.New("phase failure")
	h.registry.RegisterFactory(bootstrap.RunListenersContract, "l1",
		func(run extension.RunInput) (any, error) {
			l := &testutil.RecordingListener{
				ListenerName: "l1",
				Recorder:     h.recorder,
				FailPhase:    "environmentPrepared",
				FailErr:      boom,
			}
			h.listeners["l1"] = l
			return l, nil
		})
	h.registry.RegisterFactory(bootstrap.ExceptionReportersContract, "counter",
		func(run extension.RunInput) (any, error) {
			return &countingReporter{stats: h.stats, fail: errors.New("reporter broke")}, nil
		})

	_, err := h.app().Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("reporter failure must not replace the run error, got %v", err)
	}
	if h.stats.calls != 1 {
		t.Errorf("expected reporter to run despite failing, got %d calls", h.stats.calls)
	}
	// finished still fires after a reporter failure.
	events := h.recorder.Events()
	if events[len(events)-1] != "l1:finished" {
		t.Errorf("finished must still fire, got %v", events)
	}
}

func TestRunListenerPriorityOrdering(t *testing.T) {
	h := newHarness("l1", "l2")
	h.registry.RegisterFactory(bootstrap.RunListenersContract, "l2",
		func(run extension.RunInput) (any, error) {
			l := &testutil.RecordingListener{ListenerName: "l2", ListenerPriority: -1, Recorder: h.recorder}
			h.listeners["l2"] = l
			return l, nil
		})

	if _, err := h.app().Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	events := h.recorder.Events()
	if events[0] != "l2:starting" || events[1] != "l1:starting" {
		t.Errorf("expected l2 (priority -1) before l1, got %v", events[:2])
	}
}

func TestRunEnvironmentReachesContext(t *testing.T) {
	h := newHarness("l1")
	c, err := h.app().Run(context.Background(), "--app.name=from-args")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	env := c.Environment()
	if env == nil {
		t.Fatal("context must hold the run environment")
	}
	if v, _ := env.Property("app.name"); v != "from-args" {
		t.Errorf("expected command-line property wired through, got %q", v)
	}
}

func TestDefaultRegistryDeclarations(t *testing.T) {
	app := bootstrap.New("svc", bootstrap.WithLogger(logger.Nop()))
	ids, err := app.Registry().Resolve(bootstrap.RunListenersContract)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != lifecycle.LogListenerID || ids[1] != lifecycle.TraceListenerID {
		t.Errorf("expected built-in listeners [logging tracing], got %v", ids)
	}

	reporters, err := app.Registry().Resolve(bootstrap.ExceptionReportersContract)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(reporters) != 1 || reporters[0] != bootstrap.LogReporterID {
		t.Errorf("expected built-in reporter [logreporter], got %v", reporters)
	}
}

func TestRunWithDefaultRegistry(t *testing.T) {
	// The built-in listeners must carry a run through cleanly.
	app := bootstrap.New("svc", bootstrap.WithLogger(logger.Nop()))
	c, err := app.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !c.Refreshed() {
		t.Error("expected refreshed context")
	}
	if err := c.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

// failingComponent starts with an error.
type failingComponent struct {
	name     string
	startErr error
}

func (f *failingComponent) Name() string                     { return f.name }
func (f *failingComponent) Start(ctx context.Context) error  { return f.startErr }
func (f *failingComponent) Stop(ctx context.Context) error   { return nil }
func (f *failingComponent) Health(ctx context.Context) component.Health {
	return component.Health{Name: f.name, Status: component.StatusUnhealthy}
}
