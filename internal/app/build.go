package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/specialistvlad/pandocdeps/internal/config"
	"github.com/specialistvlad/pandocdeps/internal/ctxlog"
	"github.com/specialistvlad/pandocdeps/internal/fsutil"
	"github.com/specialistvlad/pandocdeps/internal/registry"
	"github.com/specialistvlad/pandocdeps/internal/scanner"
	"github.com/specialistvlad/pandocdeps/modules/pandoc"
	"golang.org/x/sync/errgroup"
)

// ErrMissingDependency is returned for a target whose scan reported a file
// that does not exist.
var ErrMissingDependency = errors.New("missing dependency")

// Outcome is the result of building one document.
type Outcome struct {
	Target   string        `json:"target" yaml:"target"`
	Dir      string        `json:"dir" yaml:"dir"`
	Command  string        `json:"command,omitempty" yaml:"command,omitempty"`
	Duration time.Duration `json:"duration" yaml:"duration"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
	// Report is the dependency scan that preceded the build.
	Report *Report `json:"-" yaml:"-"`
}

// Build loads the build files and builds the named documents, or all of
// them. Every target is attempted; failures are joined into the error.
func (a *App) Build(ctx context.Context, names ...string) ([]*Outcome, error) {
	ctx = a.context(ctx)
	if err := a.load(ctx); err != nil {
		return nil, err
	}
	docs, err := a.selectDocuments(names)
	if err != nil {
		return nil, err
	}
	return a.buildAll(ctx, docs)
}

// buildAll builds docs on the worker pool and records the result for the
// health endpoint.
func (a *App) buildAll(ctx context.Context, docs []*config.Document) ([]*Outcome, error) {
	logger := ctxlog.FromContext(ctx)
	_, env := a.snapshot()
	outcomes := make([]*Outcome, len(docs))

	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(a.cfg.WorkerCount)
	for i, d := range docs {
		g.Go(func() error {
			outcome, err := a.buildDocument(ctx, env, d)
			outcomes[i] = outcome
			if err != nil {
				logger.Error("Build failed.", "target", d.Path(), "error", err)
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	err := errors.Join(errs...)
	a.status.record(outcomes, err)
	logger.Info("Build finished.", "targets", len(docs), "failed", len(errs))
	return outcomes, err
}

// buildDocument scans d, checks that all of its inputs exist and runs the
// builder's command.
func (a *App) buildDocument(ctx context.Context, env *registry.Environment, d *config.Document) (*Outcome, error) {
	start := time.Now()
	outcome := &Outcome{Target: d.Target, Dir: d.Dir}
	fail := func(err error) (*Outcome, error) {
		outcome.Duration = time.Since(start)
		outcome.Error = err.Error()
		return outcome, err
	}

	report, err := a.scanDocument(ctx, env, d)
	if err != nil {
		return fail(err)
	}
	outcome.Report = report

	var missing []string
	for _, p := range append(append([]string{}, d.Sources...), report.Dependencies...) {
		if scanner.IsRemote(p) {
			continue
		}
		if !fsutil.Exists(fsutil.Resolve(d.Dir, p)) {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return fail(fmt.Errorf("%w: %s needs %s", ErrMissingDependency, d.Path(), strings.Join(missing, ", ")))
	}

	b, _ := env.Builder(pandoc.BuilderName)
	t := target(env, d)
	args, err := env.Command(b, t)
	if err != nil {
		return fail(err)
	}
	outcome.Command = env.Describe(b, t)

	if dir := filepath.Dir(d.Path()); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fail(fmt.Errorf("failed to create directory for %s: %w", d.Path(), err))
		}
	}

	ctxlog.FromContext(ctx).Info(outcome.Command, "target", d.Path())
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = d.Dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fail(fmt.Errorf("building %s failed: %w\nOutput: %s", d.Path(), err, strings.TrimSpace(string(output))))
	}

	outcome.Duration = time.Since(start)
	return outcome, nil
}
