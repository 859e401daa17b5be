// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file turns the raw JSON produced by pandoc into the typed node model.
package pandocast

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ErrMalformed is returned when the input is valid JSON but not a pandoc document.
var ErrMalformed = errors.New("malformed pandoc document")

// Decode reads a single JSON document from r.
func Decode(r io.Reader) (*Document, error) {
	var raw any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode document tree: %w", err)
	}
	return fromRaw(raw)
}

// Parse decodes a document held in memory.
func Parse(data []byte) (*Document, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode document tree: %w", err)
	}
	return fromRaw(raw)
}

func fromRaw(raw any) (*Document, error) {
	switch v := raw.(type) {
	case map[string]any:
		blocks, ok := v["blocks"]
		if !ok {
			return nil, fmt.Errorf("%w: missing \"blocks\"", ErrMalformed)
		}
		doc := &Document{
			APIVersion: apiVersion(v["pandoc-api-version"]),
			Meta:       metaOf(v["meta"]),
			Blocks:     nodesOf(blocks),
		}
		return doc, nil

	case []any:
		// Legacy layout: [{"unMeta": {...}}, [blocks...]]
		if len(v) != 2 {
			return nil, fmt.Errorf("%w: expected a two-element array, got %d elements", ErrMalformed, len(v))
		}
		head, ok := v[0].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: first element is not an object", ErrMalformed)
		}
		return &Document{
			Meta:   metaOf(head["unMeta"]),
			Blocks: nodesOf(v[1]),
		}, nil

	default:
		return nil, fmt.Errorf("%w: unexpected top-level %T", ErrMalformed, raw)
	}
}

func apiVersion(raw any) []int {
	parts, ok := raw.([]any)
	if !ok {
		return nil
	}
	version := make([]int, 0, len(parts))
	for _, p := range parts {
		if n, ok := p.(float64); ok {
			version = append(version, int(n))
		}
	}
	return version
}

func metaOf(raw any) map[string]Node {
	meta := make(map[string]Node)
	fields, ok := raw.(map[string]any)
	if !ok {
		return meta
	}
	for key, value := range fields {
		if nodes := nodesOf(value); len(nodes) > 0 {
			meta[key] = nodes[0]
		}
	}
	return meta
}

// nodesOf collects the tagged objects inside raw in payload order. Arrays are
// flattened; untagged objects (a MetaMap payload) contribute their values in
// key order; scalars contribute nothing.
func nodesOf(raw any) []Node {
	switch v := raw.(type) {
	case map[string]any:
		if tag, ok := v["t"].(string); ok {
			return []Node{newNode(tag, v["c"])}
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var nodes []Node
		for _, k := range keys {
			nodes = append(nodes, nodesOf(v[k])...)
		}
		return nodes

	case []any:
		var nodes []Node
		for _, item := range v {
			nodes = append(nodes, nodesOf(item)...)
		}
		return nodes

	default:
		return nil
	}
}

func newNode(tag string, payload any) Node {
	if strings.EqualFold(tag, TagImage) {
		return newImage(payload)
	}
	return &Element{
		Type:    tag,
		Text:    textOf(payload),
		Content: nodesOf(payload),
	}
}

// newImage extracts the target from either payload shape. The target pair
// [url, title] is always the last element when it is nested; a flat
// two-element payload is the pair itself.
func newImage(payload any) *Image {
	img := &Image{}
	parts, ok := payload.([]any)
	if !ok || len(parts) == 0 {
		return img
	}
	if target, ok := parts[len(parts)-1].([]any); ok {
		img.Target = stringAt(target, 0)
		img.Title = stringAt(target, 1)
		return img
	}
	if len(parts) == 2 {
		img.Target = stringAt(parts, 0)
		img.Title = stringAt(parts, 1)
	}
	return img
}

// textOf returns a node's own string payload: the payload itself when it is a
// string, otherwise the last top-level string of an array payload.
func textOf(payload any) string {
	switch v := payload.(type) {
	case string:
		return v
	case []any:
		for i := len(v) - 1; i >= 0; i-- {
			if s, ok := v[i].(string); ok {
				return s
			}
		}
	}
	return ""
}

func stringAt(values []any, i int) string {
	if i >= len(values) {
		return ""
	}
	s, _ := values[i].(string)
	return s
}
