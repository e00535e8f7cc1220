// Package ordering computes a deterministic total order over extension
// instances.
//
// Elements are sorted by an optional numeric priority (lower runs earlier),
// then refined topologically to honor explicit before/after constraints.
// Elements with equal priority and no constraints keep their discovery order.
package ordering
