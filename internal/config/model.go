package config

import (
	"path/filepath"
)

// Model is the unified, format-agnostic representation of a build.
type Model struct {
	// Tool is nil when no file configures the converter.
	Tool      *ToolSettings
	Documents []*Document
}

// FSInfo connects a definition to the file it was read from.
type FSInfo struct {
	FilePath string
}

// ToolSettings configure the pandoc tool. Empty fields keep the tool's
// defaults.
type ToolSettings struct {
	Path string
	// Flags replace the default flags when set, even when empty.
	Flags   *[]string
	Command string
	// CommandStr replaces the logged command line when set.
	CommandStr             *string
	DataDir                string
	SkipIntermediateImages bool
	FSInfo                 FSInfo
}

// Document is one target built from one or more sources.
type Document struct {
	// Target and Sources are relative to Dir.
	Target  string
	Sources []string
	// Flags are appended to the tool's flags for this document only.
	Flags []string
	// Variables are construction variables for this document only.
	Variables map[string]string
	// Dir is the directory of the file that defines the document.
	Dir    string
	FSInfo FSInfo
}

// Path returns the target joined onto the document's directory.
func (d *Document) Path() string {
	return filepath.Join(d.Dir, d.Target)
}

// Select returns the documents whose Target or Path equals one of names, in
// model order, plus the names that matched nothing. No names selects all.
func (m *Model) Select(names ...string) ([]*Document, []string) {
	if len(names) == 0 {
		return m.Documents, nil
	}

	matched := make(map[string]bool, len(names))
	var docs []*Document
	for _, d := range m.Documents {
		for _, name := range names {
			if name == d.Target || filepath.Clean(name) == d.Path() {
				docs = append(docs, d)
				matched[name] = true
				break
			}
		}
	}

	var unknown []string
	for _, name := range names {
		if !matched[name] {
			unknown = append(unknown, name)
		}
	}
	return docs, unknown
}
