package ordering

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultPriority is assumed for elements that do not implement Prioritized.
const DefaultPriority = 0

// Prioritized is implemented by elements declaring an explicit priority.
// Lower values run earlier.
type Prioritized interface {
	Priority() int
}

// Named is implemented by elements that can be referenced in before/after
// constraints. Elements without a name are identified by their Go type.
type Named interface {
	Name() string
}

// RunsBefore declares that the element must run before the named elements.
type RunsBefore interface {
	Before() []string
}

// RunsAfter declares that the element must run after the named elements.
type RunsAfter interface {
	After() []string
}

// OrderingError reports a cycle in before/after constraints.
type OrderingError struct {
	// Remaining names the elements that could not be placed.
	Remaining []string
}

func (e *OrderingError) Error() string {
	return fmt.Sprintf("ordering: constraint cycle involving [%s]", strings.Join(e.Remaining, ", "))
}

// Sort returns the elements in execution order: a stable sort on priority,
// refined by the topological constraints declared via RunsBefore/RunsAfter.
// Constraints naming unknown elements are ignored. A constraint cycle
// returns an OrderingError and no result.
//
// The input slice is not modified.
func Sort[T any](items []T) ([]T, error) {
	n := len(items)
	ranked := make([]int, n)
	for i := range ranked {
		ranked[i] = i
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return priorityOf(items[ranked[a]]) < priorityOf(items[ranked[b]])
	})

	edges := constraintEdges(items)
	if len(edges) == 0 {
		out := make([]T, 0, n)
		for _, idx := range ranked {
			out = append(out, items[idx])
		}
		return out, nil
	}

	// Kahn's algorithm over the constraint graph, always taking the earliest
	// ranked element among those with no pending predecessor. Unconstrained
	// elements therefore keep their priority order exactly.
	inDegree := make(map[int]int, n)
	dependents := make(map[int][]int, n)
	for _, e := range edges {
		inDegree[e.to]++
		dependents[e.from] = append(dependents[e.from], e.to)
	}

	out := make([]T, 0, n)
	placed := make([]bool, n)
	for len(out) < n {
		next := -1
		for _, idx := range ranked {
			if !placed[idx] && inDegree[idx] == 0 {
				next = idx
				break
			}
		}
		if next == -1 {
			var remaining []string
			for _, idx := range ranked {
				if !placed[idx] {
					remaining = append(remaining, nameOf(items[idx]))
				}
			}
			return nil, &OrderingError{Remaining: remaining}
		}
		placed[next] = true
		out = append(out, items[next])
		for _, dep := range dependents[next] {
			inDegree[dep]--
		}
	}
	return out, nil
}

type edge struct {
	from, to int
}

// constraintEdges translates RunsBefore/RunsAfter declarations into directed
// edges between element indices. A name may match several elements.
func constraintEdges[T any](items []T) []edge {
	byName := make(map[string][]int, len(items))
	for i, item := range items {
		name := nameOf(item)
		byName[name] = append(byName[name], i)
	}

	var edges []edge
	for i, item := range items {
		if rb, ok := any(item).(RunsBefore); ok {
			for _, name := range rb.Before() {
				for _, j := range byName[name] {
					if j != i {
						edges = append(edges, edge{from: i, to: j})
					}
				}
			}
		}
		if ra, ok := any(item).(RunsAfter); ok {
			for _, name := range ra.After() {
				for _, j := range byName[name] {
					if j != i {
						edges = append(edges, edge{from: j, to: i})
					}
				}
			}
		}
	}
	return edges
}

func priorityOf(item any) int {
	if p, ok := item.(Prioritized); ok {
		return p.Priority()
	}
	return DefaultPriority
}

func nameOf(item any) string {
	if n, ok := item.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", item)
}
