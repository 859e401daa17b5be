// Package schema holds the HCL-tagged structs a build file decodes into.
package schema

// File is the top-level structure of a build file.
type File struct {
	Pandoc    []*Pandoc   `hcl:"pandoc,block"`
	Documents []*Document `hcl:"document,block"`
}

// Pandoc represents the `pandoc` block that configures the converter.
type Pandoc struct {
	Path                   string    `hcl:"path,optional"`
	Flags                  *[]string `hcl:"flags,optional"`
	Command                string    `hcl:"command,optional"`
	CommandStr             *string   `hcl:"command_str,optional"`
	DataDir                string    `hcl:"data_dir,optional"`
	SkipIntermediateImages bool      `hcl:"skip_intermediate_images,optional"`
}

// Document represents a `document "<target>"` block.
type Document struct {
	Target    string            `hcl:"target,label"`
	Sources   []string          `hcl:"sources"`
	Flags     []string          `hcl:"flags,optional"`
	Variables map[string]string `hcl:"variables,optional"`
}
