package app

import (
	"context"
	"errors"

	"github.com/specialistvlad/pandocdeps/internal/config"
	"github.com/specialistvlad/pandocdeps/internal/converter"
	"github.com/specialistvlad/pandocdeps/internal/ctxlog"
	"github.com/specialistvlad/pandocdeps/internal/registry"
	"github.com/specialistvlad/pandocdeps/modules/pandoc"
)

// CheckReport tells whether the tools can run.
type CheckReport struct {
	// Tools maps each registered tool to whether it exists.
	Tools  map[string]bool `json:"tools" yaml:"tools"`
	Pandoc *converter.Info `json:"pandoc,omitempty" yaml:"pandoc,omitempty"`
	Error  string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// Check reports the converter the build would use. Build files are read
// for their pandoc settings when present. The returned error is
// converter.ErrNotFound or converter.ErrIncompatible when the converter
// cannot be used; the report is returned either way.
func (a *App) Check(ctx context.Context) (*CheckReport, error) {
	ctx = a.context(ctx)
	logger := ctxlog.FromContext(ctx)

	model, err := a.loader.Load(ctx, a.cfg.BuildPaths...)
	switch {
	case errors.Is(err, config.ErrNoFiles):
		logger.Debug("No build files, checking with defaults.")
		model = &config.Model{}
	case err != nil:
		return nil, err
	}

	env := registry.NewEnvironment(toolVariables(model.Tool))
	if a.cfg.Pandoc != "" {
		env.Set(pandoc.VarPandoc, a.cfg.Pandoc)
	}
	if a.whereIs != nil {
		env.SetWhereIs(a.whereIs)
	}

	report := &CheckReport{Tools: make(map[string]bool)}
	for _, t := range a.registry.Tools() {
		report.Tools[t.Name()] = t.Exists(env)
	}

	explicit, _ := env.Get(pandoc.VarPandoc)
	path, err := converter.Detect(explicit, env.WhereIs)
	if err == nil {
		report.Pandoc, err = converter.Probe(ctx, path)
	}
	if err != nil {
		report.Error = err.Error()
		return report, err
	}
	logger.Debug("Converter found.", "path", report.Pandoc.Path, "version", report.Pandoc.Version)
	return report, nil
}
