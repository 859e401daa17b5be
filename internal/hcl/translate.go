// This file contains the logic for translating HCL schema structs into the
// format-agnostic configuration model defined in the config package.

package hcl

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/pandocdeps/internal/config"
	"github.com/specialistvlad/pandocdeps/internal/schema"
)

// translatePandoc converts the `pandoc` block. Relative paths that contain a
// directory are taken relative to the build file.
func translatePandoc(p *schema.Pandoc, file string) *config.ToolSettings {
	dir := filepath.Dir(file)
	return &config.ToolSettings{
		Path:                   localPath(dir, p.Path),
		Flags:                  p.Flags,
		Command:                p.Command,
		CommandStr:             p.CommandStr,
		DataDir:                dataDir(dir, p.DataDir),
		SkipIntermediateImages: p.SkipIntermediateImages,
		FSInfo:                 config.FSInfo{FilePath: file},
	}
}

// translateDocument converts a `document` block.
func translateDocument(d *schema.Document, file string) (*config.Document, error) {
	if strings.TrimSpace(d.Target) == "" {
		return nil, fmt.Errorf("%s: document target must not be empty", file)
	}
	if len(d.Sources) == 0 {
		return nil, fmt.Errorf("%s: document %q has no sources", file, d.Target)
	}
	return &config.Document{
		Target:    filepath.Clean(d.Target),
		Sources:   d.Sources,
		Flags:     d.Flags,
		Variables: d.Variables,
		Dir:       filepath.Dir(file),
		FSInfo:    config.FSInfo{FilePath: file},
	}, nil
}

// localPath leaves bare executable names for the search path.
func localPath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) || !strings.ContainsRune(p, filepath.Separator) && !strings.ContainsRune(p, '/') {
		return p
	}
	return filepath.Join(dir, p)
}

func dataDir(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
