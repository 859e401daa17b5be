// Package pandoc adds the Pandoc builder to a build environment.
//
// The module only wires things together: variables and their defaults, the
// builder, and a target scanner that hands the substituted command line to
// internal/scanner.
package pandoc

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kballard/go-shellquote"
	"github.com/specialistvlad/pandocdeps/internal/cmdline"
	"github.com/specialistvlad/pandocdeps/internal/converter"
	"github.com/specialistvlad/pandocdeps/internal/ctxlog"
	"github.com/specialistvlad/pandocdeps/internal/registry"
	"github.com/specialistvlad/pandocdeps/internal/scanner"
)

// Construction variables.
const (
	VarPandoc     = "PANDOC"
	VarFlags      = "PANDOCFLAGS"
	VarCommand    = "PANDOCCOM"
	VarCommandStr = "PANDOCCOMSTR"
	// VarDataDir overrides the user data directory used to find filters.
	VarDataDir = "PANDOC_DATADIR"
	// VarSkipIntermediateImages is parsed with strconv.ParseBool.
	VarSkipIntermediateImages = "PANDOC_SKIP_INTERMEDIATE_IMAGES"
)

// Defaults applied by Generate when the variables are unset.
const (
	DefaultFlags   = "--standalone"
	DefaultCommand = "$PANDOC $PANDOCFLAGS -o ${TARGET} ${SOURCES}"
)

// BuilderName is the name the builder is registered under.
const BuilderName = "Pandoc"

// Module implements registry.Tool for pandoc. It keeps no state between
// scans.
type Module struct{}

// Name implements registry.Tool.
func (m *Module) Name() string { return "pandoc" }

// Generate sets PANDOC to the detected executable, fills in the default
// flags and command, and registers the builder.
func (m *Module) Generate(env *registry.Environment) error {
	explicit, _ := env.Get(VarPandoc)
	path, err := converter.Detect(explicit, env.WhereIs)
	if err != nil {
		return err
	}
	env.Set(VarPandoc, path)
	env.SetDefault(VarFlags, DefaultFlags)
	env.SetDefault(VarCommand, DefaultCommand)
	env.SetDefault(VarCommandStr, "")

	env.AddBuilder(&registry.Builder{
		Name:      BuilderName,
		Action:    "$" + VarCommand,
		ActionStr: "$" + VarCommandStr,
		Scanner:   m.scan,
	})
	return nil
}

// Exists implements registry.Tool.
func (m *Module) Exists(env *registry.Environment) bool {
	explicit, _ := env.Get(VarPandoc)
	_, err := converter.Detect(explicit, env.WhereIs)
	return err == nil
}

// scan is the builder's target scanner.
func (m *Module) scan(ctx context.Context, env *registry.Environment, t *registry.Target) (*scanner.Result, error) {
	ctx = ctxlog.With(ctx, "builder", BuilderName)

	line := env.Subst("$"+VarCommand, t)
	tokens, err := shellquote.Split(line)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", VarCommand, line, err)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%s is empty for %s", VarCommand, t.Path)
	}

	var opts scanner.Options
	if v, ok := env.Get(VarSkipIntermediateImages); ok && v != "" {
		skip, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", VarSkipIntermediateImages, v, err)
		}
		opts.SkipIntermediateImages = skip
	}

	req := scanner.Request{
		Pandoc:  tokens[0],
		Args:    tokens[1:],
		Target:  t.Path,
		Sources: t.Sources,
		Dir:     t.Dir,
	}
	if len(cmdline.Split(req.Args, req.Sources).Filters()) > 0 {
		req.DataDir = dataDir(ctx, env, req.Pandoc)
	}
	return scanner.New(opts).Scan(ctx, req)
}

// dataDir returns the user data directory, asking the executable when
// PANDOC_DATADIR is unset.
func dataDir(ctx context.Context, env *registry.Environment, pandoc string) string {
	if dir, ok := env.Get(VarDataDir); ok && dir != "" {
		return dir
	}
	info, err := converter.Probe(ctx, pandoc)
	if err != nil {
		ctxlog.FromContext(ctx).Debug("Could not read the user data directory.", "pandoc", pandoc, "error", err)
		return ""
	}
	return info.DataDir
}
