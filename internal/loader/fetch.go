package loader

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/specialistvlad/doop/internal/blockref"
	"github.com/specialistvlad/doop/internal/manifest"
	"github.com/zeebo/blake3"
)

// Module is the text served for one reference.
type Module struct {
	Ref    *blockref.Ref
	Source string
	// ETag changes whenever the underlying source content does.
	ETag string
}

// Fetch resolves raw, a path or file:// URL ending in `.doop` with an
// optional `?block=id`, to the generated index or to one block's source.
// References to other files return an error matching blockref.ErrNotHandled.
func (c *Cache) Fetch(ctx context.Context, raw string) (*Module, error) {
	ref, err := blockref.Parse(raw)
	if err != nil {
		return nil, err
	}
	return c.FetchRef(ctx, ref)
}

// FetchRef is Fetch for an already parsed reference.
func (c *Cache) FetchRef(ctx context.Context, ref *blockref.Ref) (*Module, error) {
	src, err := c.Get(ctx, ref.Path)
	if err != nil {
		return nil, err
	}

	var text string
	if ref.IsIndex() {
		settings := manifest.Settings{
			SourcePath:    src.Path(),
			URL:           true,
			GlobalEmitter: c.opts.Index.GlobalEmitter,
		}
		if c.opts.Index.Template != "" {
			r, err := manifest.NewTemplateRenderer(c.opts.Index.Template)
			if err != nil {
				return nil, err
			}
			settings.Renderer = r
		}
		text, err = src.Index(settings)
	} else {
		text, err = src.Source(ref.Block)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ref, err)
	}

	return &Module{
		Ref:    ref,
		Source: text,
		ETag:   etag(src, ref.Block),
	}, nil
}

// etag derives a strong entity tag from the source digest, so the text
// itself is never hashed again.
func etag(src *Source, blockID string) string {
	h := blake3.New()
	for _, part := range []string{src.Digest, src.Path(), blockID} {
		io.WriteString(h, part)
		h.Write([]byte{0})
	}
	return `"` + hex.EncodeToString(h.Sum(nil)[:16]) + `"`
}
