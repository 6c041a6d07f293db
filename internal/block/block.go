package block

import (
	"github.com/specialistvlad/doop/internal/attrs"
)

// Block is one tagged region of a source file.
type Block struct {
	ID    string
	Tag   string
	Attrs *attrs.Attrs

	// LineStart and LineEnd are 1-based and bound the body only; the tag
	// lines themselves are excluded.
	LineStart int
	LineEnd   int

	Source        []string
	SourceHeaders []string

	// Sealed is set once the closing tag has been matched. A sealed block
	// is never mutated again.
	Sealed bool
}

// On returns the event the block is bound to, if any.
func (b *Block) On() (string, bool) {
	return b.Attrs.String("on")
}

// Lines returns the header lines followed by the body lines.
func (b *Block) Lines() []string {
	out := make([]string, 0, len(b.SourceHeaders)+len(b.Source))
	out = append(out, b.SourceHeaders...)
	out = append(out, b.Source...)
	return out
}
