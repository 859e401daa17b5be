// Package scanner finds the files a pandoc build depends on.
//
// Declared dependencies come from the file-bearing flags of the build
// command line. Discovered dependencies come from the document itself: the
// sources are run through the same filter chain as the real build, the
// resulting JSON tree is walked for images, and its metadata is read for
// bibliography files.
package scanner

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/pandocdeps/internal/cmdline"
	"github.com/specialistvlad/pandocdeps/internal/converter"
	"github.com/specialistvlad/pandocdeps/internal/ctxlog"
	"github.com/specialistvlad/pandocdeps/internal/fsutil"
	"github.com/specialistvlad/pandocdeps/internal/pandocast"
)

// intermediateFormats are output formats that embed no image data.
var intermediateFormats = map[string]bool{
	"asciidoc": true, "commonmark": true, "context": true, "gfm": true,
	"json": true, "latex": true, "markdown": true, "markdown_mmd": true,
	"markdown_phpextra": true, "markdown_strict": true, "native": true,
	"org": true, "plain": true, "rst": true, "tex": true,
}

// Options configure a Scanner.
type Options struct {
	// SkipIntermediateImages drops images for formats in which they stay
	// references instead of being embedded.
	SkipIntermediateImages bool
}

// Scanner computes dependency sets. It holds no per-scan state and is safe
// for concurrent use.
type Scanner struct {
	opts Options
}

// New creates a Scanner.
func New(opts Options) *Scanner {
	return &Scanner{opts: opts}
}

// Request describes one target build.
type Request struct {
	// Pandoc is the converter executable.
	Pandoc string
	// Args are the build's pandoc arguments without the program name.
	Args    []string
	Target  string
	Sources []string
	// Dir is the working directory of the build; relative paths are
	// relative to it.
	Dir string
	// DataDir is the user data directory reported by the converter. It is
	// used to look up filters when the command line has no --data-dir.
	DataDir string
}

// Scan returns the dependencies of req. Declared files are kept only when
// they exist; discovered files are always reported.
func (s *Scanner) Scan(ctx context.Context, req Request) (*Result, error) {
	logger := ctxlog.FromContext(ctx).With("target", req.Target)
	logger.Debug("Scanning target.", "sources", req.Sources, "dir", req.Dir)

	res := &Result{Target: req.Target, Declared: []string{}, Images: []string{}, Bibliographies: []string{}}

	in := cmdline.Inspect(req.Args, req.Target, req.Dir)
	if in.ParseError != nil {
		logger.Debug("Command line parsing stopped early.", "error", in.ParseError)
	}
	res.Format = in.Format
	res.Declared = append(res.Declared, in.Paths()...)
	for _, d := range in.Dropped {
		res.warn(WarningDroppedArgument, d.Path, fmt.Sprintf("--%s argument is not an existing file", longName(d.Category)))
	}

	var existing []string
	for _, src := range req.Sources {
		if fsutil.Exists(fsutil.Resolve(req.Dir, src)) {
			existing = append(existing, src)
			continue
		}
		res.warn(WarningMissingFile, src, "source does not exist")
	}
	if len(existing) == 0 {
		res.warn(WarningNoSources, "", "no source exists; document was not scanned")
		s.log(ctx, res)
		return res, nil
	}

	dataDir := in.DataDir
	if dataDir == "" {
		dataDir = req.DataDir
	}
	pl := converter.JSONPipeline(converter.JSONRequest{
		Pandoc:        req.Pandoc,
		Plan:          cmdline.Split(req.Args, req.Sources),
		Sources:       existing,
		Format:        in.Format,
		DataDir:       in.DataDir,
		FilterDataDir: dataDir,
		Dir:           req.Dir,
	})
	logger.Debug("Running converter.", "pipeline", pl.String())

	out, err := pl.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to convert %s to a document tree: %w", req.Target, err)
	}
	doc, err := pandocast.Parse(out)
	if err != nil {
		return nil, fmt.Errorf("failed to read document tree of %s: %w", req.Target, err)
	}

	base := filepath.Dir(req.Sources[0])
	if s.opts.SkipIntermediateImages && intermediateFormats[in.Format] {
		logger.Debug("Skipping images for intermediate format.", "format", in.Format)
	} else {
		for _, img := range doc.Images() {
			if IsRemote(img) {
				res.Images = append(res.Images, img)
				continue
			}
			res.Images = append(res.Images, s.discovered(res, req.Dir, base, img))
		}
	}
	// pandoc copies --bibliography into the metadata; those files are
	// already declared relative to the working directory.
	if len(in.Args["bibliography"]) > 0 {
		logger.Debug("Bibliography given on the command line, ignoring metadata.")
	} else {
		for _, bib := range doc.Bibliography() {
			res.Bibliographies = append(res.Bibliographies, s.discovered(res, req.Dir, base, bib))
		}
	}

	s.log(ctx, res)
	return res, nil
}

// discovered resolves a path found in the document against the directory
// of the first source and records a warning when it does not exist.
func (s *Scanner) discovered(res *Result, dir, base, path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}
	if !fsutil.Exists(fsutil.Resolve(dir, path)) {
		res.warn(WarningMissingFile, path, "referenced by the document but does not exist")
	}
	return path
}

func (s *Scanner) log(ctx context.Context, res *Result) {
	logger := ctxlog.FromContext(ctx).With("target", res.Target)
	for _, w := range res.Warnings {
		logger.Warn(w.Message, "type", string(w.Type), "path", w.Path)
	}
	logger.Debug("Scan complete.",
		"declared", len(res.Declared),
		"images", len(res.Images),
		"bibliographies", len(res.Bibliographies),
	)
}

// IsRemote reports whether an image target is a URL rather than a file.
// Remote targets are reported verbatim and never checked for existence.
func IsRemote(target string) bool {
	return strings.Contains(target, "://") || strings.HasPrefix(target, "data:")
}

func longName(category string) string {
	for _, c := range cmdline.Categories {
		if c.Name == category {
			return c.Long
		}
	}
	return category
}
