package hcl

import (
	"fmt"

	"github.com/specialistvlad/doop/internal/attrs"
	"github.com/specialistvlad/doop/internal/config"
)

// apply merges the values set in root into model.
func apply(model *config.Model, root *fileRoot) error {
	if root.Orphans != nil {
		model.Orphans = *root.Orphans
	}
	if root.ChunkSize != nil {
		model.ChunkSize = *root.ChunkSize
	}

	for _, a := range root.Aliases {
		set, err := attrs.FromObject(a.Attrs)
		if err != nil {
			return fmt.Errorf("alias %q: %w", a.Name, err)
		}
		model.Aliases[a.Name] = set
	}

	if idx := root.Index; idx != nil {
		if idx.GlobalEmitter != nil {
			model.Index.GlobalEmitter = *idx.GlobalEmitter
		}
		if idx.URL != nil {
			model.Index.URL = *idx.URL
		}
		if idx.Template != nil {
			model.Index.Template = *idx.Template
		}
	}
	return nil
}
