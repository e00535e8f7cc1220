package extension

import (
	"fmt"
	"io/fs"
	"sync"

	"github.com/kbukum/runkit/logger"
)

// ContractKey identifies an abstract extension point, e.g. "runkit.RunListener".
type ContractKey string

// RunInput carries the orchestrator's startup sources and raw argument
// vector into extension constructors. Every run passes a fresh RunInput, so
// constructed instances are run-scoped.
type RunInput struct {
	Sources []string
	Args    []string
	RunID   string
}

// Factory constructs one extension instance for a run.
type Factory func(run RunInput) (any, error)

type location struct {
	fsys fs.FS
	path string
}

// Registry maps contract keys to ordered implementation identifiers declared
// in discovery resources, and identifiers to factories registered in code.
// A Registry is safe for concurrent use and may be shared across runs; the
// merged declarations are cached until the location set changes.
type Registry struct {
	mu        sync.RWMutex
	factories map[ContractKey]map[string]Factory
	locations []location
	merged    map[ContractKey][]string
	mergedAt  int

	log *logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[ContractKey]map[string]Factory),
		log:       logger.GetGlobalLogger().WithComponent("extension"),
	}
}

// AddLocation appends a declaration resource to the discovery search path.
// Declarations merge in the order locations were added.
func (r *Registry) AddLocation(fsys fs.FS, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locations = append(r.locations, location{fsys: fsys, path: path})
}

// RegisterFactory binds a factory to an implementation identifier for a
// contract. Registering the same identifier twice replaces the factory.
func (r *Registry) RegisterFactory(contract ContractKey, identifier string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.factories[contract] == nil {
		r.factories[contract] = make(map[string]Factory)
	}
	r.factories[contract][identifier] = factory
}

// Resolve returns the implementation identifiers declared for the contract,
// merged across all locations in discovery order and deduplicated keeping
// the first occurrence. An undeclared contract resolves to an empty list.
func (r *Registry) Resolve(contract ContractKey) ([]string, error) {
	merged, err := r.mergedDeclarations()
	if err != nil {
		return nil, err
	}
	return append([]string(nil), merged[contract]...), nil
}

// Instantiate resolves the contract and constructs one instance per
// identifier using the registered factories. An identifier without a factory
// or a failing factory yields a DiscoveryError.
func (r *Registry) Instantiate(contract ContractKey, run RunInput) ([]any, error) {
	ids, err := r.Resolve(contract)
	if err != nil {
		return nil, err
	}

	instances := make([]any, 0, len(ids))
	for _, id := range ids {
		r.mu.RLock()
		factory := r.factories[contract][id]
		r.mu.RUnlock()
		if factory == nil {
			return nil, &DiscoveryError{
				Contract:       contract,
				Implementation: id,
				Reason:         "no factory registered for declared implementation",
			}
		}
		inst, err := factory(run)
		if err != nil {
			return nil, &DiscoveryError{
				Contract:       contract,
				Implementation: id,
				Reason:         "constructor failed",
				Err:            err,
			}
		}
		instances = append(instances, inst)
	}
	r.log.Debug("Extensions instantiated", logger.Fields(
		logger.FieldContract, string(contract),
		"count", len(instances),
	))
	return instances, nil
}

// Instances resolves and constructs the contract's implementations, typed.
// An instance that does not implement T yields a DiscoveryError.
func Instances[T any](r *Registry, contract ContractKey, run RunInput) ([]T, error) {
	ids, err := r.Resolve(contract)
	if err != nil {
		return nil, err
	}
	raw, err := r.Instantiate(contract, run)
	if err != nil {
		return nil, err
	}

	typed := make([]T, 0, len(raw))
	for i, inst := range raw {
		v, ok := inst.(T)
		if !ok {
			return nil, &DiscoveryError{
				Contract:       contract,
				Implementation: ids[i],
				Reason:         fmt.Sprintf("instance %T does not implement the contract type", inst),
			}
		}
		typed = append(typed, v)
	}
	return typed, nil
}

// mergedDeclarations returns the cached merged declaration view, reparsing
// when locations were added since the last merge.
func (r *Registry) mergedDeclarations() (map[ContractKey][]string, error) {
	r.mu.RLock()
	if r.merged != nil && r.mergedAt == len(r.locations) {
		merged := r.merged
		r.mu.RUnlock()
		return merged, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.merged != nil && r.mergedAt == len(r.locations) {
		return r.merged, nil
	}

	merged := make(map[ContractKey][]string)
	seen := make(map[ContractKey]map[string]bool)
	for _, loc := range r.locations {
		entries, err := parseDeclarations(loc.fsys, loc.path)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if seen[e.Contract] == nil {
				seen[e.Contract] = make(map[string]bool)
			}
			if seen[e.Contract][e.Implementation] {
				continue
			}
			seen[e.Contract][e.Implementation] = true
			merged[e.Contract] = append(merged[e.Contract], e.Implementation)
		}
	}
	r.merged = merged
	r.mergedAt = len(r.locations)
	return merged, nil
}
