package registry

import (
	"context"
	"fmt"

	"github.com/kballard/go-shellquote"
	"github.com/specialistvlad/pandocdeps/internal/scanner"
)

// ScanFunc reports the implicit dependencies of a target.
type ScanFunc func(ctx context.Context, env *Environment, t *Target) (*scanner.Result, error)

// Builder turns sources into a target by running a command.
type Builder struct {
	Name string
	// Action is the command template, substituted per target.
	Action string
	// ActionStr is what gets logged instead of the command; when it
	// substitutes to the empty string the command itself is logged.
	ActionStr string
	// Scanner is optional.
	Scanner ScanFunc
}

// Command substitutes the builder's action for t and splits it into
// arguments.
func (e *Environment) Command(b *Builder, t *Target) ([]string, error) {
	line := e.Subst(b.Action, t)
	args, err := shellquote.Split(line)
	if err != nil {
		return nil, fmt.Errorf("builder '%s': invalid command line %q: %w", b.Name, line, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("builder '%s': command for %s is empty", b.Name, t.Path)
	}
	return args, nil
}

// Describe returns the line to log for building t.
func (e *Environment) Describe(b *Builder, t *Target) string {
	if s := e.Subst(b.ActionStr, t); s != "" {
		return s
	}
	return e.Subst(b.Action, t)
}

// Scan runs the builder's scanner for t. Builders without a scanner report
// no dependencies.
func (e *Environment) Scan(ctx context.Context, b *Builder, t *Target) (*scanner.Result, error) {
	if b.Scanner == nil {
		return &scanner.Result{Target: t.Path, Declared: []string{}, Images: []string{}, Bibliographies: []string{}}, nil
	}
	return b.Scanner(ctx, e, t)
}
