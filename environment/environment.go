package environment

// Position selects where AddPropertySource inserts a source.
type Position int

const (
	// PositionLast appends the source with the lowest precedence.
	PositionLast Position = iota
	// PositionFirst prepends the source with the highest precedence.
	PositionFirst
)

// DefaultProfile is the profile assumed active when none are set.
const DefaultProfile = "default"

// Environment is the mutable layered configuration view for one run.
//
// Sources are consulted in order; the first containing a key wins. After the
// environment is handed to later phases, mutation is additive only: sources
// may be added at either end, never removed or reordered.
type Environment struct {
	sources  []PropertySource
	active   []string
	defaults []string
}

// New creates an empty Environment with the standard default profile.
func New() *Environment {
	return &Environment{defaults: []string{DefaultProfile}}
}

// Property returns the value for key from the highest-precedence source
// containing it.
func (e *Environment) Property(key string) (string, bool) {
	for _, src := range e.sources {
		if v, ok := src.Lookup(key); ok {
			return v, true
		}
	}
	return "", false
}

// PropertyOrDefault returns the value for key, or def if no source has it.
func (e *Environment) PropertyOrDefault(key, def string) string {
	if v, ok := e.Property(key); ok {
		return v
	}
	return def
}

// AddPropertySource inserts a source at the requested end of the precedence
// chain. Existing sources are never displaced relative to each other.
func (e *Environment) AddPropertySource(src PropertySource, pos Position) {
	if pos == PositionFirst {
		e.sources = append([]PropertySource{src}, e.sources...)
		return
	}
	e.sources = append(e.sources, src)
}

// SourceNames returns the names of all property sources in precedence order.
func (e *Environment) SourceNames() []string {
	names := make([]string, len(e.sources))
	for i, src := range e.sources {
		names[i] = src.Name()
	}
	return names
}

// ActiveProfiles returns the active profile names in activation order.
func (e *Environment) ActiveProfiles() []string {
	return append([]string(nil), e.active...)
}

// DefaultProfiles returns the profiles assumed when none are active.
func (e *Environment) DefaultProfiles() []string {
	return append([]string(nil), e.defaults...)
}

// SetActiveProfiles replaces the active profile set. Activation is a set:
// duplicates are dropped, first occurrence wins, matching is case-sensitive.
func (e *Environment) SetActiveProfiles(profiles ...string) {
	e.active = dedupeProfiles(profiles)
}

// SetDefaultProfiles replaces the default profile set.
func (e *Environment) SetDefaultProfiles(profiles ...string) {
	e.defaults = dedupeProfiles(profiles)
}

// AcceptsProfile reports whether the named profile is in effect: it is
// active, or no profiles are active and it is a default profile.
func (e *Environment) AcceptsProfile(name string) bool {
	if len(e.active) > 0 {
		return containsProfile(e.active, name)
	}
	return containsProfile(e.defaults, name)
}

func dedupeProfiles(profiles []string) []string {
	seen := make(map[string]bool, len(profiles))
	out := make([]string, 0, len(profiles))
	for _, p := range profiles {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func containsProfile(profiles []string, name string) bool {
	for _, p := range profiles {
		if p == name {
			return true
		}
	}
	return false
}
