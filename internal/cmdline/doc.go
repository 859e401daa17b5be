// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package cmdline reads a substituted pandoc command line for the files it
// depends on, independently of the document itself.
//
// It is not a full pandoc argument parser. It knows a fixed table of
// file-bearing flags (Categories) plus the few flags that steer dependency
// discovery (--to, --from, --data-dir, --template, --output) and ignores
// everything else.
package cmdline
