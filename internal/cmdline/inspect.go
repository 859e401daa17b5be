// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file contains the flag extraction for declared dependencies.
package cmdline

import (
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/specialistvlad/pandocdeps/internal/fsutil"
	"github.com/spf13/pflag"
)

// DefaultTemplate is pandoc's template name when --template is not given.
const DefaultTemplate = "default"

// Declared is a file named on the command line.
type Declared struct {
	Category string
	Path     string
}

// Inspection is what the command line says about a build.
type Inspection struct {
	// Files are the declared arguments that name existing files, in category
	// order and, within a category, in the order given.
	Files []Declared
	// Dropped are the declared arguments that do not name existing files.
	Dropped []Declared
	// Args holds every extracted argument per category, existing or not.
	Args map[string][]string

	// Format is the output format pandoc will write.
	Format string
	// From is the input format, if given.
	From string
	// DataDir is the --data-dir value, if given.
	DataDir string
	// Template is the resolved template file; empty when none applies.
	Template string

	// ParseError is set when parsing stopped early, e.g. on a flag missing
	// its argument. Everything extracted before that point is kept.
	ParseError error
}

// Paths returns the paths of Files.
func (in *Inspection) Paths() []string {
	paths := make([]string, 0, len(in.Files))
	for _, f := range in.Files {
		paths = append(paths, f.Path)
	}
	return paths
}

// Inspect extracts the declared dependencies from args, the pandoc arguments
// without the program name. target is the build output used to infer the
// format; relative paths are checked against dir.
func Inspect(args []string, target, dir string) *Inspection {
	fs := pflag.NewFlagSet("pandoc", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.ParseErrorsWhitelist.UnknownFlags = true

	values := make(map[string]*[]string, len(Categories))
	for _, c := range Categories {
		values[c.Name] = fs.StringArrayP(c.Long, c.Short, nil, "")
	}

	var to, from string
	fs.StringVarP(&to, "to", "t", "", "")
	fs.StringVarP(&to, "write", "w", "", "")
	fs.StringVarP(&from, "from", "f", "", "")
	fs.StringVarP(&from, "read", "r", "", "")
	dataDir := fs.String("data-dir", "", "")
	template := fs.String("template", DefaultTemplate, "")

	in := &Inspection{Args: make(map[string][]string, len(Categories))}
	in.ParseError = fs.Parse(StripOutput(args))

	in.Format = OutputFormat(to, target)
	in.From = from
	in.DataDir = *dataDir

	for _, c := range Categories {
		for _, arg := range *values[c.Name] {
			in.Args[c.Name] = append(in.Args[c.Name], arg)
			d := Declared{Category: c.Name, Path: arg}
			if fsutil.Exists(fsutil.Resolve(dir, arg)) {
				in.Files = append(in.Files, d)
			} else {
				in.Dropped = append(in.Dropped, d)
			}
		}
	}

	if tmpl, ok := ResolveTemplate(*template, in.Format, in.DataDir, dir); ok {
		in.Template = tmpl
		in.Files = append(in.Files, Declared{Category: "template", Path: tmpl})
	}

	return in
}

// StripOutput removes the output flag and its argument from args.
func StripOutput(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		tok := args[i]
		if tok == "--" {
			return append(out, args[i:]...)
		}
		if _, inline, ok := outputFlag.match(tok); ok {
			if !inline {
				i++
			}
			continue
		}
		out = append(out, tok)
	}
	return out
}

var formatName = regexp.MustCompile(`^\w+`)

// OutputFormat returns the writer name for a --to value, without extensions.
// Without --to it falls back to the target's extension.
func OutputFormat(to, target string) string {
	if to == "" {
		return strings.TrimPrefix(filepath.Ext(target), ".")
	}
	format := to
	if m := formatName.FindString(to); m != "" {
		format = m
	}
	if format == "beamer" {
		return "latex"
	}
	return format
}

// ResolveTemplate locates the template pandoc would use. A name without an
// extension gets the output format appended; a missing file is looked up in
// the data directory's templates folder. Templates are not reported for docx
// and pptx, whose writers ignore them.
func ResolveTemplate(name, format, dataDir, dir string) (string, bool) {
	if name == "" {
		name = DefaultTemplate
	}
	if filepath.Ext(name) == "" && format != "" {
		name += "." + format
	}
	if !fsutil.Exists(fsutil.Resolve(dir, name)) && dataDir != "" {
		name = filepath.Join(dataDir, "templates", name)
	}
	if !fsutil.Exists(fsutil.Resolve(dir, name)) {
		return "", false
	}
	switch format {
	case "docx", "pptx":
		return "", false
	}
	return name, true
}
