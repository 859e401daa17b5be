// Package config defines the format-agnostic model of a build: the pandoc
// tool settings and the documents to build, along with the Loader interface
// that concrete file formats implement.
//
// The `config.Model` is the single source of truth for the `app` package.
// Concrete implementations of the interface, such as for HCL, are provided
// in separate packages.
package config
