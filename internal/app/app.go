package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/kballard/go-shellquote"
	"github.com/specialistvlad/pandocdeps/internal/config"
	"github.com/specialistvlad/pandocdeps/internal/ctxlog"
	"github.com/specialistvlad/pandocdeps/internal/registry"
	"github.com/specialistvlad/pandocdeps/modules/pandoc"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	cfg      *Config
	loader   config.Loader
	registry *registry.Registry

	// Set by load.
	model *config.Model
	env   *registry.Environment

	httpServer *http.Server
	status     *buildStatus
	whereIs    func(string) (string, error)
	mu         sync.Mutex
}

// NewApp is the constructor for the main application. Reports are written
// to outW and logs to logW. When no tools are given the core tools are used.
func NewApp(outW, logW io.Writer, cfg *Config, loader config.Loader, tools ...registry.Tool) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	if len(tools) == 0 {
		tools = coreTools()
	}
	for _, t := range tools {
		reg.Register(t)
	}
	logger.Debug("All tools registered.", "count", len(tools))

	return &App{
		outW:     outW,
		logger:   logger,
		cfg:      cfg,
		loader:   loader,
		registry: reg,
		status:   &buildStatus{},
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// context attaches the app's logger to ctx.
func (a *App) context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// load reads the build files and generates a fresh environment from them.
func (a *App) load(ctx context.Context) error {
	model, err := a.loader.Load(ctx, a.cfg.BuildPaths...)
	if err != nil {
		return fmt.Errorf("failed to load build files: %w", err)
	}

	env, err := a.generate(ctx, model)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.model, a.env = model, env
	a.mu.Unlock()
	ctxlog.FromContext(ctx).Debug("Build files loaded.", "documents", len(model.Documents))
	return nil
}

// generate creates the environment for model and lets every tool configure it.
func (a *App) generate(ctx context.Context, model *config.Model) (*registry.Environment, error) {
	env := registry.NewEnvironment(toolVariables(model.Tool))
	if a.cfg.Pandoc != "" {
		env.Set(pandoc.VarPandoc, a.cfg.Pandoc)
	}
	if a.whereIs != nil {
		env.SetWhereIs(a.whereIs)
	}
	if err := a.registry.Generate(ctx, env); err != nil {
		return nil, err
	}
	return env, nil
}

// toolVariables maps the pandoc block onto construction variables.
func toolVariables(t *config.ToolSettings) map[string]string {
	vars := make(map[string]string)
	if t == nil {
		return vars
	}
	if t.Path != "" {
		vars[pandoc.VarPandoc] = t.Path
	}
	if t.Flags != nil {
		vars[pandoc.VarFlags] = shellquote.Join(*t.Flags...)
	}
	if t.Command != "" {
		vars[pandoc.VarCommand] = t.Command
	}
	if t.CommandStr != nil {
		vars[pandoc.VarCommandStr] = *t.CommandStr
	}
	if t.DataDir != "" {
		vars[pandoc.VarDataDir] = t.DataDir
	}
	if t.SkipIntermediateImages {
		vars[pandoc.VarSkipIntermediateImages] = strconv.FormatBool(true)
	}
	return vars
}

// target turns a document into a build target. Document flags are appended
// to the flags in effect for it.
func target(env *registry.Environment, d *config.Document) *registry.Target {
	overrides := make(map[string]string, len(d.Variables)+1)
	maps.Copy(overrides, d.Variables)

	if len(d.Flags) > 0 {
		flags, ok := overrides[pandoc.VarFlags]
		if !ok {
			flags, _ = env.Get(pandoc.VarFlags)
		}
		overrides[pandoc.VarFlags] = strings.TrimSpace(flags + " " + shellquote.Join(d.Flags...))
	}

	return &registry.Target{
		Path:      d.Target,
		Sources:   d.Sources,
		Overrides: overrides,
		Dir:       d.Dir,
	}
}

// snapshot returns the loaded model and environment.
func (a *App) snapshot() (*config.Model, *registry.Environment) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.model, a.env
}

// selectDocuments returns the named documents, or all of them.
func (a *App) selectDocuments(names []string) ([]*config.Document, error) {
	model, _ := a.snapshot()
	docs, unknown := model.Select(names...)
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown target(s): %s", strings.Join(unknown, ", "))
	}
	return docs, nil
}
