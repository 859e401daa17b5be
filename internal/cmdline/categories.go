// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package cmdline

import "strings"

// Category is one kind of file argument and the flags that introduce it.
type Category struct {
	// Name identifies the category in results and logs.
	Name string
	// Long is the long flag name without dashes.
	Long string
	// Short is the single-letter shorthand, if any.
	Short string
}

// Categories is the static flag-to-dependency table, in reporting order.
var Categories = []Category{
	{Name: "filter", Long: "filter", Short: "F"},
	{Name: "lua", Long: "lua-filter"},
	{Name: "metadata", Long: "metadata-file"},
	{Name: "abbreviations", Long: "abbreviations"},
	{Name: "highlight", Long: "highlight-style"},
	{Name: "syntax", Long: "syntax-definition"},
	{Name: "header", Long: "include-in-header", Short: "H"},
	{Name: "before", Long: "include-before-body", Short: "B"},
	{Name: "after", Long: "include-after-body", Short: "A"},
	{Name: "css", Long: "css", Short: "c"},
	{Name: "reference", Long: "reference-doc"},
	{Name: "epubcover", Long: "epub-cover-image"},
	{Name: "epubmeta", Long: "epub-metadata"},
	{Name: "epubfont", Long: "epub-embed-font"},
	{Name: "bibliography", Long: "bibliography"},
	{Name: "csl", Long: "csl"},
	{Name: "citeabbrev", Long: "citation-abbreviations"},
}

// spelling lists the ways a value-taking flag can be written.
type spelling struct {
	shorts string
	longs  []string
}

var (
	outputFlag  = spelling{shorts: "o", longs: []string{"output"}}
	toFlag      = spelling{shorts: "tw", longs: []string{"to", "write"}}
	fromFlag    = spelling{shorts: "fr", longs: []string{"from", "read"}}
	filterFlag  = spelling{shorts: "F", longs: []string{"filter"}}
	dataDirFlag = spelling{longs: []string{"data-dir"}}
)

// match reports whether tok is this flag. When the value is attached
// (--to=html, -thtml) it is returned with inline set; otherwise the value is
// the next token.
func (s spelling) match(tok string) (value string, inline bool, ok bool) {
	if len(tok) < 2 || tok[0] != '-' {
		return "", false, false
	}
	if tok[1] == '-' {
		name := tok[2:]
		for _, long := range s.longs {
			if name == long {
				return "", false, true
			}
			if value, found := strings.CutPrefix(name, long+"="); found {
				return value, true, true
			}
		}
		return "", false, false
	}
	if !strings.ContainsRune(s.shorts, rune(tok[1])) {
		return "", false, false
	}
	if len(tok) == 2 {
		return "", false, true
	}
	return tok[2:], true, true
}
