package scanner

// WarningType categorizes scan warnings.
type WarningType string

const (
	// WarningDroppedArgument marks a file-bearing flag whose argument does
	// not name an existing file.
	WarningDroppedArgument WarningType = "dropped_argument"
	// WarningMissingFile marks a discovered or source path that does not exist.
	WarningMissingFile WarningType = "missing_file"
	// WarningNoSources marks a target none of whose sources exist.
	WarningNoSources WarningType = "no_sources"
)

// Warning is a non-fatal issue found while scanning.
type Warning struct {
	Type    WarningType `json:"type" yaml:"type"`
	Path    string      `json:"path,omitempty" yaml:"path,omitempty"`
	Message string      `json:"message" yaml:"message"`
}

// Result holds the dependencies of one target.
type Result struct {
	Target string `json:"target" yaml:"target"`
	// Format is the output format the command line selects.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
	// Declared are the files named by command-line flags.
	Declared []string `json:"declared" yaml:"declared"`
	// Images are the image targets of the document, in document order.
	Images []string `json:"images" yaml:"images"`
	// Bibliographies are the bibliography metadata entries.
	Bibliographies []string  `json:"bibliographies" yaml:"bibliographies"`
	Warnings       []Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Dependencies returns declared files, then images, then bibliographies.
// Duplicates are kept.
func (r *Result) Dependencies() []string {
	deps := make([]string, 0, len(r.Declared)+len(r.Images)+len(r.Bibliographies))
	deps = append(deps, r.Declared...)
	deps = append(deps, r.Images...)
	deps = append(deps, r.Bibliographies...)
	return deps
}

func (r *Result) warn(t WarningType, path, msg string) {
	r.Warnings = append(r.Warnings, Warning{Type: t, Path: path, Message: msg})
}
