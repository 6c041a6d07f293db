package hcl

import "github.com/zclconf/go-cty/cty"

// fileRoot is decoded from every configuration file. Optional attributes
// are pointers so that a later file only overrides what it sets.
type fileRoot struct {
	Orphans   *bool         `hcl:"orphans,optional"`
	ChunkSize *int          `hcl:"chunk_size,optional"`
	Aliases   []*aliasBlock `hcl:"alias,block"`
	Index     *indexBlock   `hcl:"index,block"`
}

// aliasBlock is an `alias "name" { attrs = {...} }` block.
type aliasBlock struct {
	Name  string    `hcl:"name,label"`
	Attrs cty.Value `hcl:"attrs"`
}

// indexBlock is the `index { ... }` block.
type indexBlock struct {
	GlobalEmitter *string `hcl:"global_emitter,optional"`
	URL           *bool   `hcl:"url,optional"`
	Template      *string `hcl:"template,optional"`
}
