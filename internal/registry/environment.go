package registry

import (
	"maps"
	"os/exec"
	"slices"
	"sync"
)

// Environment holds construction variables and registered builders.
type Environment struct {
	mu       sync.RWMutex
	vars     map[string]string
	builders map[string]*Builder
	whereIs  func(string) (string, error)
}

// NewEnvironment creates an Environment seeded with vars.
func NewEnvironment(vars map[string]string) *Environment {
	e := &Environment{
		vars:     make(map[string]string, len(vars)),
		builders: make(map[string]*Builder),
		whereIs:  exec.LookPath,
	}
	maps.Copy(e.vars, vars)
	return e
}

// Get returns the value of a variable.
func (e *Environment) Get(key string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.vars[key]
	return v, ok
}

// Set sets a variable, replacing any previous value.
func (e *Environment) Set(key, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vars[key] = value
}

// SetDefault sets a variable only if it is not set yet.
func (e *Environment) SetDefault(key, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.vars[key]; !ok {
		e.vars[key] = value
	}
}

// Vars returns a copy of all variables.
func (e *Environment) Vars() map[string]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return maps.Clone(e.vars)
}

// SetWhereIs replaces the executable search used by WhereIs.
func (e *Environment) SetWhereIs(fn func(string) (string, error)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.whereIs = fn
}

// WhereIs searches for an executable the way the build would run it.
func (e *Environment) WhereIs(name string) (string, error) {
	e.mu.RLock()
	fn := e.whereIs
	e.mu.RUnlock()
	return fn(name)
}

// AddBuilder registers a builder. Registering a name twice panics.
func (e *Environment) AddBuilder(b *Builder) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.builders[b.Name]; exists {
		panic("builder '" + b.Name + "' already registered")
	}
	e.builders[b.Name] = b
}

// Builder returns the builder registered under name.
func (e *Environment) Builder(name string) (*Builder, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, ok := e.builders[name]
	return b, ok
}

// BuilderNames returns the names of all builders, sorted.
func (e *Environment) BuilderNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Sorted(maps.Keys(e.builders))
}
