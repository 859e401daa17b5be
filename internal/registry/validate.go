package registry

import (
	"fmt"
	"strings"
)

var specials = map[string]bool{"TARGET": true, "TARGETS": true, "SOURCE": true, "SOURCES": true}

// Validate checks that every builder has an action and that every variable
// its action refers to, directly or through other variables, is defined.
// Per-target overrides are not considered.
func (e *Environment) Validate() error {
	var errs []string
	for _, name := range e.BuilderNames() {
		b, _ := e.Builder(name)
		if strings.TrimSpace(b.Action) == "" {
			errs = append(errs, fmt.Sprintf("builder '%s': action is empty", name))
			continue
		}
		for _, missing := range e.undefined(b.Action) {
			errs = append(errs, fmt.Sprintf("builder '%s': variable '%s' is not defined", name, missing))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("environment validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// undefined returns the variables reachable from text that have no value.
func (e *Environment) undefined(text string) []string {
	var missing []string
	seen := make(map[string]bool)
	queue := references(text)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if seen[name] || specials[name] {
			continue
		}
		seen[name] = true
		v, ok := e.Get(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		queue = append(queue, references(v)...)
	}
	return missing
}
