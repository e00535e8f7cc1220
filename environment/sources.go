package environment

import (
	"os"
	"strings"
)

// PropertySource is a named mapping contributing configuration values.
type PropertySource interface {
	// Name identifies the source in the precedence chain.
	Name() string
	// Lookup returns the value for key and whether the source contains it.
	Lookup(key string) (string, bool)
}

// MapSource is a PropertySource backed by a string map.
type MapSource struct {
	name   string
	values map[string]string
}

// NewMapSource creates a map-backed property source. The map is copied.
func NewMapSource(name string, values map[string]string) *MapSource {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &MapSource{name: name, values: copied}
}

func (s *MapSource) Name() string { return s.name }

func (s *MapSource) Lookup(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Keys returns the keys contained in the source, in no particular order.
func (s *MapSource) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}

// EnvironSource exposes process environment variables as a property source
// with relaxed key translation: looking up "app.name" checks APP_NAME, then
// the literal key. Dots and dashes map to underscores.
type EnvironSource struct {
	name   string
	getenv func(string) (string, bool)
}

// NewEnvironSource creates a source over the process environment.
func NewEnvironSource(name string) *EnvironSource {
	return &EnvironSource{name: name, getenv: os.LookupEnv}
}

func (s *EnvironSource) Name() string { return s.name }

func (s *EnvironSource) Lookup(key string) (string, bool) {
	if v, ok := s.getenv(environKey(key)); ok {
		return v, true
	}
	if v, ok := s.getenv(key); ok {
		return v, true
	}
	return "", false
}

// environKey converts a property key to its environment variable form:
// app.server-port -> APP_SERVER_PORT.
func environKey(key string) string {
	replaced := strings.NewReplacer(".", "_", "-", "_").Replace(key)
	return strings.ToUpper(replaced)
}
