package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/pandocdeps/internal/config"
	"github.com/specialistvlad/pandocdeps/internal/ctxlog"
	"github.com/specialistvlad/pandocdeps/internal/fsutil"
	"github.com/specialistvlad/pandocdeps/internal/schema"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	// Environ supplies the `env` variable of build files.
	Environ func() []string
}

// NewLoader creates a new HCL configuration loader that exposes the process
// environment to build files.
func NewLoader() *Loader {
	return &Loader{Environ: os.Environ}
}

// Load parses every build file found in paths and merges them into one
// model. A path may be a file or a directory, which is searched recursively.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(hclFiles) == 0 {
		return nil, fmt.Errorf("%w in %v", config.ErrNoFiles, paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	var environ []string
	if l.Environ != nil {
		environ = l.Environ()
	}

	model := &config.Model{}
	seen := make(map[string]string)
	parser := hclparse.NewParser()

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		dir := filepath.Dir(file)
		var root schema.File
		diags = gohcl.DecodeBody(hclFile.Body, evalContext(dir, environ), &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, p := range root.Pandoc {
			if model.Tool != nil {
				return nil, fmt.Errorf("%s: pandoc block already defined in %s", file, model.Tool.FSInfo.FilePath)
			}
			model.Tool = translatePandoc(p, file)
		}
		for _, d := range root.Documents {
			doc, err := translateDocument(d, file)
			if err != nil {
				return nil, err
			}
			if other, dup := seen[doc.Path()]; dup {
				return nil, fmt.Errorf("%s: document %q already defined in %s", file, doc.Target, other)
			}
			seen[doc.Path()] = file
			model.Documents = append(model.Documents, doc)
		}
	}

	logger.Debug("HCL loading complete.", "documents", len(model.Documents), "pandoc_block", model.Tool != nil)
	return model, nil
}

// findAllHCLFiles walks all given paths and returns a flat list of the
// absolute paths of all .hcl files found.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) error {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		if _, wasSeen := seen[abs]; !wasSeen {
			allFiles = append(allFiles, abs)
			seen[abs] = struct{}{}
		}
		return nil
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue // It's not an error if a configured path doesn't exist.
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			if filepath.Ext(path) == ".hcl" {
				if err := add(path); err != nil {
					return nil, err
				}
			}
			continue
		}

		files, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if err := add(f); err != nil {
				return nil, err
			}
		}
	}
	return allFiles, nil
}
