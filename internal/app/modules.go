package app

import (
	"github.com/specialistvlad/pandocdeps/internal/registry"
	"github.com/specialistvlad/pandocdeps/modules/pandoc"
)

// coreTools is the definitive list of all tools that are compiled into
// the pandocdeps binary.
func coreTools() []registry.Tool {
	return []registry.Tool{
		&pandoc.Module{},
	}
}
