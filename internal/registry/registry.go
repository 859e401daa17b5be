package registry

import (
	"context"
	"fmt"

	"github.com/specialistvlad/pandocdeps/internal/ctxlog"
)

// Tool is the interface every tool must implement to be registered.
type Tool interface {
	// Name identifies the tool in logs and errors.
	Name() string
	// Generate sets the tool's variables and registers its builders.
	Generate(env *Environment) error
	// Exists reports whether whatever the tool runs can be found.
	Exists(env *Environment) bool
}

// Registry holds the tools of a single application instance.
type Registry struct {
	tools map[string]Tool
	order []string
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Registering two tools with the same name panics.
func (r *Registry) Register(t Tool) {
	name := t.Name()
	if _, exists := r.tools[name]; exists {
		panic(fmt.Sprintf("tool with name '%s' already registered", name))
	}
	r.tools[name] = t
	r.order = append(r.order, name)
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []Tool {
	tools := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.tools[name])
	}
	return tools
}

// Tool returns the tool registered under name.
func (r *Registry) Tool(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Generate runs every tool's Generate against env, in registration order,
// and validates the result.
func (r *Registry) Generate(ctx context.Context, env *Environment) error {
	logger := ctxlog.FromContext(ctx)
	for _, t := range r.Tools() {
		logger.Debug("Generating tool.", "tool", t.Name())
		if err := t.Generate(env); err != nil {
			return fmt.Errorf("tool '%s': %w", t.Name(), err)
		}
	}
	if err := env.Validate(); err != nil {
		return err
	}
	logger.Debug("Environment ready.", "builders", env.BuilderNames())
	return nil
}
