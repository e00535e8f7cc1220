// Package component provides the container the orchestrator drives.
//
// The orchestrator only sees the Context boundary: create a context, hand it
// the Environment, load startup sources into it, and refresh it. The
// StandardContext implementation backs that boundary with a Registry of
// lifecycle-managed components, started in registration order and stopped in
// reverse. Alternative containers plug in through the Factory interface.
package component
