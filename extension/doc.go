// Package extension resolves pluggable implementations for contract keys.
//
// A Registry combines two inputs: declaration resources (text files mapping a
// contract key to an ordered list of implementation identifiers) and typed
// factory functions registered in code under those identifiers. Declarations
// from all discovery locations are merged in location order and deduplicated
// keeping first-seen order; the merged view is cached until the location set
// changes.
//
// Resolution is declaration-level and never fails for unknown contracts;
// instantiation fails with a DiscoveryError when an identifier has no
// factory, a factory errors, or an instance does not satisfy the requested
// contract type. Instances are constructed fresh for every call and must not
// be reused across runs.
package extension
