package bootstrap

import "github.com/kbukum/runkit/component"

// Phase is a state of the run state machine. Transitions happen strictly in
// declaration order; PhaseFailed is reachable from every non-terminal state
// and PhaseFinished is always the last state.
type Phase int

const (
	PhaseCreated Phase = iota
	PhaseStarting
	PhaseEnvironmentPrepared
	PhaseContextPrepared
	PhaseContextLoaded
	PhaseRunning
	PhaseFailed
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "created"
	case PhaseStarting:
		return "starting"
	case PhaseEnvironmentPrepared:
		return "environmentPrepared"
	case PhaseContextPrepared:
		return "contextPrepared"
	case PhaseContextLoaded:
		return "contextLoaded"
	case PhaseRunning:
		return "running"
	case PhaseFailed:
		return "failed"
	case PhaseFinished:
		return "finished"
	}
	return "unknown"
}

// runResult threads the state machine outcome through the run: the last
// phase completed, the container context if one was created (nil otherwise),
// and the first error. The finished transition is always derived from this
// value.
type runResult struct {
	phase   Phase
	context component.Context
	err     error
}
