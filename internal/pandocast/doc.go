// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package pandocast decodes the JSON document tree emitted by `pandoc --to json`
// and walks it for the files a document build depends on.
//
// # Node model
//
// The tree is decoded into a closed set of node kinds:
//
//   - Image: the only terminal kind of interest. It carries the image target
//     (a path or URL) and its title, and is never descended into.
//
//   - Element: every other tagged node ("Para", "Header", "MetaInlines", ...).
//     Its Content holds the tagged nodes found anywhere inside the JSON payload,
//     in payload order. An element with no content is a plain leaf.
//
// Whether a node has children is an explicit capability (the Parent interface),
// not something probed at walk time.
//
// # Format versions
//
// Both document shapes pandoc has produced are accepted: the object form
// (`pandoc-api-version`, `meta`, `blocks`) and the older two-element array form
// (`[{"unMeta": {...}}, [...]]`). Image payloads may have two elements
// (`[alt, [url, title]]` before pandoc 1.16, or a bare `[url, title]`) or three
// (`[attr, alt, [url, title]]`).
package pandocast
