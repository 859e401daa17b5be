package converter

import (
	"path/filepath"
	"strings"

	"github.com/specialistvlad/pandocdeps/internal/fsutil"
)

// interpreters maps script extensions to the program that runs them.
var interpreters = map[string][]string{
	".py":  {"python"},
	".hs":  {"runhaskell"},
	".pl":  {"perl"},
	".rb":  {"ruby"},
	".php": {"php"},
	".js":  {"node"},
	".r":   {"Rscript"},
}

// Interpreter returns the program that runs a script with the given name,
// or nil when the extension is unknown.
func Interpreter(name string) []string {
	return interpreters[strings.ToLower(filepath.Ext(name))]
}

// FindFilter returns the command that runs a JSON filter, without the
// format argument. The filter is looked up as given, then under
// dataDir/filters, and is otherwise left to the search path. A file that is
// not executable is prefixed with the interpreter for its extension.
// Relative paths are checked against dir.
func FindFilter(name, dataDir, dir string) []string {
	var path string
	switch {
	case fsutil.Exists(fsutil.Resolve(dir, name)):
		path = name
	case dataDir != "" && fsutil.Exists(fsutil.Resolve(dir, filepath.Join(dataDir, "filters", name))):
		path = filepath.Join(dataDir, "filters", name)
	default:
		return []string{name}
	}

	if fsutil.IsExecutable(fsutil.Resolve(dir, path)) {
		if !filepath.IsAbs(path) && !strings.ContainsRune(path, filepath.Separator) {
			// Keep exec from searching PATH for a file in dir.
			path = "." + string(filepath.Separator) + path
		}
		return []string{path}
	}
	if interp := Interpreter(path); interp != nil {
		return append(append([]string{}, interp...), path)
	}
	return []string{path}
}
