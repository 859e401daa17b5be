// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file holds the tree walks used for dependency discovery.
package pandocast

import "strings"

// MetaBibliography is the metadata key that lists bibliography files.
const MetaBibliography = "bibliography"

// Images returns the target of every image under nodes, depth-first and
// left-to-right. Images are not descended into and empty targets are dropped.
func Images(nodes []Node) []string {
	var targets []string
	for _, n := range nodes {
		targets = append(targets, imagesOf(n)...)
	}
	return targets
}

func imagesOf(n Node) []string {
	switch v := n.(type) {
	case *Image:
		if v.Target == "" {
			return nil
		}
		return []string{v.Target}
	case Parent:
		return Images(v.Children())
	default:
		return nil
	}
}

// Images returns the image targets of the document body.
func (d *Document) Images() []string {
	return Images(d.Blocks)
}

// Bibliography returns the bibliography entries listed in the document
// metadata, in declared order. A single value is treated as a one-element list.
func (d *Document) Bibliography() []string {
	value, ok := d.Meta[MetaBibliography]
	if !ok {
		return nil
	}

	entries := []Node{value}
	if list, ok := value.(Parent); ok && list.Tag() == TagMetaList {
		entries = list.Children()
	}

	var paths []string
	for _, entry := range entries {
		if text := strings.TrimSpace(Stringify(entry)); text != "" {
			paths = append(paths, text)
		}
	}
	return paths
}

// Stringify flattens a node into its plain text.
func Stringify(n Node) string {
	el, ok := n.(*Element)
	if !ok {
		return ""
	}
	switch el.Type {
	case TagSpace, TagSoftBreak, TagLineBreak:
		return " "
	}
	if len(el.Content) == 0 {
		return el.Text
	}
	var b strings.Builder
	for _, child := range el.Content {
		b.WriteString(Stringify(child))
	}
	if b.Len() == 0 {
		return el.Text
	}
	return b.String()
}
