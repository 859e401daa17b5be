package registry

import (
	"strings"

	"github.com/kballard/go-shellquote"
)

// maxDepth bounds nested variable expansion so self-referencing variables
// terminate.
const maxDepth = 16

// Target is one output of a builder.
type Target struct {
	Path    string
	Sources []string
	// Overrides are variables that apply to this target only.
	Overrides map[string]string
	// Dir is the working directory of the build; Path and Sources are
	// relative to it.
	Dir string
}

// Subst expands $VAR and ${VAR} in text. Variable values are expanded
// recursively; TARGET, TARGETS, SOURCE and SOURCES expand to the target's
// shell-quoted paths. "$$" is a literal dollar. Unknown variables expand to
// the empty string.
func (e *Environment) Subst(text string, t *Target) string {
	return e.subst(text, t, 0)
}

func (e *Environment) subst(text string, t *Target, depth int) string {
	var b strings.Builder
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '$' || i+1 >= len(text) {
			b.WriteByte(c)
			continue
		}

		next := text[i+1]
		switch {
		case next == '$':
			b.WriteByte('$')
			i++
		case next == '{':
			end := strings.IndexByte(text[i+2:], '}')
			if end < 0 {
				b.WriteString(text[i:])
				return b.String()
			}
			b.WriteString(e.value(text[i+2:i+2+end], t, depth))
			i += 2 + end
		case isNameStart(next):
			j := i + 1
			for j < len(text) && isNameChar(text[j]) {
				j++
			}
			b.WriteString(e.value(text[i+1:j], t, depth))
			i = j - 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func (e *Environment) value(name string, t *Target, depth int) string {
	if v, ok := special(name, t); ok {
		return v
	}
	v, ok := lookup(e, name, t)
	if !ok {
		return ""
	}
	if depth >= maxDepth {
		return v
	}
	return e.subst(v, t, depth+1)
}

func lookup(e *Environment, name string, t *Target) (string, bool) {
	if t != nil {
		if v, ok := t.Overrides[name]; ok {
			return v, true
		}
	}
	return e.Get(name)
}

func special(name string, t *Target) (string, bool) {
	if t == nil {
		return "", false
	}
	switch name {
	case "TARGET", "TARGETS":
		return shellquote.Join(t.Path), true
	case "SOURCE":
		if len(t.Sources) == 0 {
			return "", true
		}
		return shellquote.Join(t.Sources[0]), true
	case "SOURCES":
		return shellquote.Join(t.Sources...), true
	}
	return "", false
}

// references returns the variable names used directly in text, in order.
func references(text string) []string {
	var names []string
	for i := 0; i < len(text)-1; i++ {
		if text[i] != '$' {
			continue
		}
		next := text[i+1]
		switch {
		case next == '$':
			i++
		case next == '{':
			if end := strings.IndexByte(text[i+2:], '}'); end >= 0 {
				names = append(names, text[i+2:i+2+end])
				i += 2 + end
			}
		case isNameStart(next):
			j := i + 1
			for j < len(text) && isNameChar(text[j]) {
				j++
			}
			names = append(names, text[i+1:j])
			i = j - 1
		}
	}
	return names
}

func isNameStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || ('0' <= c && c <= '9')
}
