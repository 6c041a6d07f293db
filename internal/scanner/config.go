package scanner

import (
	"log/slog"

	"github.com/specialistvlad/doop/internal/attrs"
	"github.com/specialistvlad/doop/internal/block"
	"github.com/zclconf/go-cty/cty"
)

// Aliases maps a flag attribute name to the attributes that replace it. A
// start tag carrying the flag has the flag removed and the replacement
// merged in before its id is derived.
type Aliases map[string]*attrs.Attrs

// DefaultStages are the lifecycle event names that have a flag alias by
// default, e.g. `<script middleware>` is read as `<script on="middleware">`.
var DefaultStages = []string{"init", "middleware", "endpoint", "server", "ready"}

// DefaultAliases returns a fresh copy of the default alias table.
func DefaultAliases() Aliases {
	out := make(Aliases, len(DefaultStages))
	for _, stage := range DefaultStages {
		a := attrs.New()
		a.Set("on", cty.StringVal(stage))
		out[stage] = a
	}
	return out
}

// OrphanEvent carries lines found outside of any block.
type OrphanEvent struct {
	Lines []string
	// BeforeLine is the line number of the start tag that follows the
	// orphans, or 0 for lines trailing the last block.
	BeforeLine int
}

// Config controls optional scanner behaviour.
type Config struct {
	// Aliases replaces the default alias table when non-nil. Use an empty
	// table to disable aliasing.
	Aliases Aliases

	// Orphans enables orphan notifications through OnOrphans.
	Orphans   bool
	OnOrphans func(OrphanEvent)

	// OnSeal runs once for every block, right after its closing tag has
	// been matched. It may fill in SourceHeaders.
	OnSeal func(*block.Block)

	Logger *slog.Logger
}
