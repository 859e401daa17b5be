package app

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/specialistvlad/pandocdeps/internal/config"
	"github.com/specialistvlad/pandocdeps/internal/ctxlog"
	"github.com/specialistvlad/pandocdeps/internal/scanner"
)

// Watch builds every document, then rebuilds the documents whose sources or
// dependencies change until ctx is cancelled. A change to a build file
// reloads the build files and rebuilds everything. Changes are debounced.
func (a *App) Watch(ctx context.Context) error {
	ctx = a.context(ctx)
	logger := ctxlog.FromContext(ctx)

	if a.cfg.HealthcheckPort > 0 {
		if _, err := a.startHealthCheckServer(); err != nil {
			return err
		}
		defer a.closeHealthCheckServer()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := a.load(ctx); err != nil {
		return err
	}
	ws := newWatchSet(watcher, logger)
	rebuildAll := func() {
		model, _ := a.snapshot()
		ws.reset(model)
		outcomes, _ := a.buildAll(ctx, model.Documents)
		for i, d := range model.Documents {
			ws.track(d, outcomes[i])
		}
	}
	rebuildAll()

	timer := time.NewTimer(a.cfg.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	reload := false
	pending := make(map[string]*config.Document)

	logger.Info("Watching for changes.", "files", ws.count())
	for {
		select {
		case <-ctx.Done():
			logger.Info("Watch stopped.")
			return nil

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error.", "error", err)

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			path := filepath.Clean(ev.Name)
			switch {
			case ws.buildFiles[path]:
				logger.Debug("Build file changed.", "path", path)
				reload = true
			default:
				owners := ws.owners(path)
				if len(owners) == 0 {
					continue
				}
				logger.Debug("Input changed.", "path", path, "targets", len(owners))
				for _, d := range owners {
					pending[d.Path()] = d
				}
			}
			timer.Reset(a.cfg.Debounce)

		case <-timer.C:
			if reload {
				reload = false
				clear(pending)
				if err := a.load(ctx); err != nil {
					logger.Error("Reload failed.", "error", err)
					a.status.record(nil, err)
					continue
				}
				rebuildAll()
				continue
			}
			if len(pending) == 0 {
				continue
			}
			model, _ := a.snapshot()
			var docs []*config.Document
			for _, d := range model.Documents {
				if _, ok := pending[d.Path()]; ok {
					docs = append(docs, d)
				}
			}
			clear(pending)
			outcomes, _ := a.buildAll(ctx, docs)
			for i, d := range docs {
				ws.track(d, outcomes[i])
			}
		}
	}
}

// watchSet maps watched files to the documents that read them.
type watchSet struct {
	watcher    *fsnotify.Watcher
	logger     *slog.Logger
	dirs       map[string]bool
	files      map[string][]string // document path -> absolute input paths
	docs       map[string]*config.Document
	buildFiles map[string]bool
}

func newWatchSet(w *fsnotify.Watcher, logger *slog.Logger) *watchSet {
	return &watchSet{
		watcher:    w,
		logger:     logger,
		dirs:       make(map[string]bool),
		files:      make(map[string][]string),
		docs:       make(map[string]*config.Document),
		buildFiles: make(map[string]bool),
	}
}

// reset forgets all documents and watches the build files of model.
func (s *watchSet) reset(model *config.Model) {
	clear(s.files)
	clear(s.docs)
	clear(s.buildFiles)
	if model.Tool != nil {
		s.buildFiles[filepath.Clean(model.Tool.FSInfo.FilePath)] = true
	}
	for _, d := range model.Documents {
		s.buildFiles[filepath.Clean(d.FSInfo.FilePath)] = true
	}
	for f := range s.buildFiles {
		s.watchDir(filepath.Dir(f))
	}
}

// track records the inputs of d: its sources and, when the build got that
// far, the dependencies its scan reported.
func (s *watchSet) track(d *config.Document, o *Outcome) {
	inputs := slices.Clone(d.Sources)
	if o != nil && o.Report != nil {
		inputs = append(inputs, o.Report.Dependencies...)
	}

	files := make([]string, 0, len(inputs))
	for _, p := range inputs {
		if scanner.IsRemote(p) {
			continue
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(d.Dir, p)
		}
		p = filepath.Clean(p)
		files = append(files, p)
		s.watchDir(filepath.Dir(p))
	}
	s.files[d.Path()] = files
	s.docs[d.Path()] = d
}

// owners returns the documents that read path.
func (s *watchSet) owners(path string) []*config.Document {
	var docs []*config.Document
	for key, files := range s.files {
		if slices.Contains(files, path) {
			docs = append(docs, s.docs[key])
		}
	}
	return docs
}

func (s *watchSet) count() int {
	n := len(s.buildFiles)
	for _, files := range s.files {
		n += len(files)
	}
	return n
}

// watchDir watches a directory once. Editors often replace files instead of
// writing them, so directories are watched rather than files.
func (s *watchSet) watchDir(dir string) {
	if s.dirs[dir] {
		return
	}
	if err := s.watcher.Add(dir); err != nil {
		s.logger.Debug("Cannot watch directory.", "dir", dir, "error", err)
		return
	}
	s.dirs[dir] = true
}
