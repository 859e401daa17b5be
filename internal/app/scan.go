package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/pandocdeps/internal/config"
	"github.com/specialistvlad/pandocdeps/internal/ctxlog"
	"github.com/specialistvlad/pandocdeps/internal/registry"
	"github.com/specialistvlad/pandocdeps/internal/scanner"
	"github.com/specialistvlad/pandocdeps/modules/pandoc"
	"golang.org/x/sync/errgroup"
)

// Report is the scan outcome of one document.
type Report struct {
	Target         string            `json:"target" yaml:"target"`
	Dir            string            `json:"dir" yaml:"dir"`
	Format         string            `json:"format,omitempty" yaml:"format,omitempty"`
	Sources        []string          `json:"sources" yaml:"sources"`
	Dependencies   []string          `json:"dependencies" yaml:"dependencies"`
	Declared       []string          `json:"declared" yaml:"declared"`
	Images         []string          `json:"images" yaml:"images"`
	Bibliographies []string          `json:"bibliographies" yaml:"bibliographies"`
	Warnings       []scanner.Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func newReport(d *config.Document, res *scanner.Result) *Report {
	return &Report{
		Target:         d.Target,
		Dir:            d.Dir,
		Format:         res.Format,
		Sources:        d.Sources,
		Dependencies:   res.Dependencies(),
		Declared:       res.Declared,
		Images:         res.Images,
		Bibliographies: res.Bibliographies,
		Warnings:       res.Warnings,
	}
}

// Scan loads the build files and reports the dependencies of the named
// documents, or of all documents, in build file order.
func (a *App) Scan(ctx context.Context, names ...string) ([]*Report, error) {
	ctx = a.context(ctx)
	if err := a.load(ctx); err != nil {
		return nil, err
	}
	docs, err := a.selectDocuments(names)
	if err != nil {
		return nil, err
	}
	return a.scanAll(ctx, docs)
}

// scanAll scans docs on the worker pool. It stops at the first failure.
func (a *App) scanAll(ctx context.Context, docs []*config.Document) ([]*Report, error) {
	_, env := a.snapshot()
	reports := make([]*Report, len(docs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.WorkerCount)
	for i, d := range docs {
		g.Go(func() error {
			report, err := a.scanDocument(ctx, env, d)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func (a *App) scanDocument(ctx context.Context, env *registry.Environment, d *config.Document) (*Report, error) {
	b, ok := env.Builder(pandoc.BuilderName)
	if !ok {
		return nil, fmt.Errorf("builder '%s' is not registered", pandoc.BuilderName)
	}
	ctx = ctxlog.With(ctx, "file", d.FSInfo.FilePath)
	res, err := env.Scan(ctx, b, target(env, d))
	if err != nil {
		return nil, fmt.Errorf("dependency scan of %s failed: %w", d.Path(), err)
	}
	return newReport(d, res), nil
}
