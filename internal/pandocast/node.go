// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the node variants of the document tree.
package pandocast

// Node is a single node of the document tree. The set of implementations is
// closed: *Image and *Element.
type Node interface {
	// Tag returns the pandoc type tag of the node, e.g. "Image" or "Para".
	Tag() string
	node()
}

// Parent is implemented by nodes that can hold child nodes.
type Parent interface {
	Node
	Children() []Node
}

// Image is an image reference. It is a leaf for dependency discovery.
type Image struct {
	Target string
	Title  string
}

func (*Image) Tag() string { return TagImage }
func (*Image) node()       {}

// Element is any tagged node other than an image.
type Element struct {
	// Type is the pandoc type tag.
	Type string
	// Text is the node's own string payload, e.g. the text of a "Str" or a
	// "MetaString". Empty for pure containers.
	Text string
	// Content holds the tagged nodes found in the node's payload.
	Content []Node
}

func (e *Element) Tag() string      { return e.Type }
func (e *Element) Children() []Node { return e.Content }
func (*Element) node()              {}

// Type tags the walker cares about.
const (
	TagImage     = "Image"
	TagMetaList  = "MetaList"
	TagMetaMap   = "MetaMap"
	TagSpace     = "Space"
	TagSoftBreak = "SoftBreak"
	TagLineBreak = "LineBreak"
)

// Document is a decoded pandoc document.
type Document struct {
	// APIVersion is the pandoc-types API version. Empty for the legacy format.
	APIVersion []int
	// Meta maps metadata keys to their typed values.
	Meta map[string]Node
	// Blocks is the document body.
	Blocks []Node
}
