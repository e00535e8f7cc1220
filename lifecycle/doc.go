// Package lifecycle defines the run listener contract and the multicaster
// that broadcasts each lifecycle phase to an ordered set of listeners.
//
// Phases happen in a fixed order: Starting, EnvironmentPrepared,
// ContextPrepared, ContextLoaded, then Running on success or Failed on any
// error, and always Finished last. Within a phase listeners run sequentially
// in resolved order; the first listener error aborts the rest of that phase
// broadcast and fails the run. Failed and Finished are best-effort: every
// listener is notified and individual errors there are logged, not
// propagated.
package lifecycle
