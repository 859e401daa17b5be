// Package hcl provides the concrete HCL implementation of the configuration
// loading interface defined in the `config` package. It is responsible for
// finding and parsing build files, evaluating their expressions and
// translating them into the format-agnostic model.
package hcl
