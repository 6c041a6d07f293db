package app

import (
	"context"

	"github.com/specialistvlad/doop/internal/block"
	"github.com/specialistvlad/doop/internal/loader"
	"github.com/specialistvlad/doop/internal/parser"
	"github.com/specialistvlad/doop/internal/scanner"
	"github.com/specialistvlad/doop/internal/server"
)

// Result is a parsed source and the orphaned text found in it.
type Result struct {
	*parser.Parser
	Orphans []scanner.OrphanEvent
}

// Parse reads the source at path with the configured options. Orphans are
// collected when enabled. A block left open at end of stream is logged and
// left out of the result's store.
func (a *App) Parse(ctx context.Context, path string) (*Result, error) {
	ctx = a.Context(ctx)
	res := &Result{}

	opts := a.model.ParserOptions()
	opts.OnOrphans = func(ev scanner.OrphanEvent) {
		res.Orphans = append(res.Orphans, ev)
	}

	p, err := parser.New(path, opts).Parse(ctx)
	if err != nil {
		return nil, err
	}
	res.Parser = p
	return res, nil
}

// Index parses path and renders its index with the configured settings.
func (a *App) Index(ctx context.Context, path string) (string, error) {
	res, err := a.Parse(ctx, path)
	if err != nil {
		return "", err
	}
	return res.Index(a.index)
}

// Source parses path and returns the lines of block id.
func (a *App) Source(ctx context.Context, path, id string) ([]string, error) {
	res, err := a.Parse(ctx, path)
	if err != nil {
		return nil, err
	}
	return res.SourceLines(id)
}

// Blocks parses path and returns its blocks in file order.
func (a *App) Blocks(ctx context.Context, path string) ([]*block.Block, error) {
	res, err := a.Parse(ctx, path)
	if err != nil {
		return nil, err
	}
	return res.Blocks(), nil
}

// Fetch resolves a `.doop` or `.doop?block=id` reference through the
// shared loader cache.
func (a *App) Fetch(ctx context.Context, raw string) (*loader.Module, error) {
	return a.cache.Fetch(a.Context(ctx), raw)
}

// Serve serves the sources below root on addr until ctx is cancelled.
func (a *App) Serve(ctx context.Context, root, addr string) error {
	srv := server.New(root, a.cache, a.logger)
	return srv.ListenAndServe(a.Context(ctx), addr)
}
