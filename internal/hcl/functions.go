package hcl

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"github.com/zclconf/go-cty/cty/gocty"
)

// evalContext returns the variables and functions available in a build file
// located in dir.
func evalContext(dir string, environ []string) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": envValue(environ),
		},
		Functions: map[string]function.Function{
			"glob":   globFunc(dir),
			"concat": stdlib.ConcatFunc,
			"format": stdlib.FormatFunc,
			"upper":  stdlib.UpperFunc,
			"lower":  stdlib.LowerFunc,
			"join":   stdlib.JoinFunc,
		},
	}
}

func envValue(environ []string) cty.Value {
	vars := make(map[string]cty.Value, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vars[k] = cty.StringVal(v)
	}
	if len(vars) == 0 {
		return cty.MapValEmpty(cty.String)
	}
	return cty.MapVal(vars)
}

// globFunc matches a pattern against the file system. Relative patterns are
// matched in dir and the matches are returned relative to it, sorted.
func globFunc(dir string) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "pattern", Type: cty.String},
		},
		Type: function.StaticReturnType(cty.List(cty.String)),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			pattern := args[0].AsString()
			abs := filepath.IsAbs(pattern)
			if !abs {
				pattern = filepath.Join(dir, pattern)
			}

			matches, err := filepath.Glob(pattern)
			if err != nil {
				return cty.NilVal, function.NewArgError(0, err)
			}

			var files []string
			for _, m := range matches {
				if info, err := os.Stat(m); err != nil || info.IsDir() {
					continue
				}
				if !abs {
					if rel, err := filepath.Rel(dir, m); err == nil {
						m = rel
					}
				}
				files = append(files, m)
			}
			if len(files) == 0 {
				return cty.ListValEmpty(cty.String), nil
			}
			sort.Strings(files)
			return gocty.ToCtyValue(files, retType)
		},
	})
}
