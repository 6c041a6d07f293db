package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/specialistvlad/doop/internal/block"
	"github.com/specialistvlad/doop/internal/ctxlog"
	"github.com/specialistvlad/doop/internal/manifest"
	"github.com/specialistvlad/doop/internal/scanner"
)

// DefaultChunkSize is the read size used when Options.ChunkSize is unset.
const DefaultChunkSize = 4096

// Options controls a parse.
type Options struct {
	// Orphans enables orphan notifications. Without OnOrphans they are
	// logged as warnings.
	Orphans   bool
	OnOrphans func(scanner.OrphanEvent)

	// Aliases replaces the default alias table when non-nil.
	Aliases scanner.Aliases

	// OnSeal runs for every block when its closing tag is matched.
	OnSeal func(*block.Block)

	ChunkSize int
}

// Parser parses one source into a block store.
type Parser struct {
	path  string
	open  func() (io.ReadCloser, error)
	opts  Options
	store *block.Store

	once         sync.Once
	err          error
	unterminated *block.Block
}

// New returns a parser for the file at path. Nothing is read until Parse.
func New(path string, opts Options) *Parser {
	return &Parser{
		path:  path,
		open:  func() (io.ReadCloser, error) { return OpenFile(path) },
		opts:  opts,
		store: block.NewStore(),
	}
}

// NewFromReader returns a parser that reads r. name is used as the source
// path in errors and generated indexes.
func NewFromReader(name string, r io.Reader, opts Options) *Parser {
	return &Parser{
		path:  name,
		open:  func() (io.ReadCloser, error) { return io.NopCloser(r), nil },
		opts:  opts,
		store: block.NewStore(),
	}
}

// Parse reads the whole source. It runs at most once; later calls return the
// first outcome.
func (p *Parser) Parse(ctx context.Context) (*Parser, error) {
	p.once.Do(func() {
		p.err = p.parse(ctx)
	})
	if p.err != nil {
		return nil, p.err
	}
	return p, nil
}

func (p *Parser) parse(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx).With("source", p.path)
	logger.Debug("Parsing source.")

	rc, err := p.open()
	if err != nil {
		return &StreamError{Path: p.path, Err: err}
	}
	defer rc.Close()

	sc := scanner.New(p.store, scanner.Config{
		Aliases:   p.opts.Aliases,
		Orphans:   p.opts.Orphans,
		OnOrphans: p.opts.OnOrphans,
		OnSeal:    p.opts.OnSeal,
		Logger:    logger,
	})

	size := p.opts.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	buf := make([]byte, size)
	for {
		if err := ctx.Err(); err != nil {
			return &StreamError{Path: p.path, Err: err}
		}
		n, readErr := rc.Read(buf)
		if n > 0 {
			if err := sc.Feed(string(buf[:n])); err != nil {
				return fmt.Errorf("parse %s: %w", p.path, err)
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return &StreamError{Path: p.path, Err: readErr}
		}
	}

	if err := sc.Close(); err != nil {
		return fmt.Errorf("parse %s: %w", p.path, err)
	}
	p.unterminated = sc.Unterminated()

	logger.Debug("Source parsed.", "blocks", p.store.Len(), "lines", sc.Consumed())
	return nil
}

// Path returns the source path.
func (p *Parser) Path() string {
	return p.path
}

// Store returns the block store. It is read-only once Parse has returned.
func (p *Parser) Store() *block.Store {
	return p.store
}

// Blocks returns the sealed blocks in file order.
func (p *Parser) Blocks() []*block.Block {
	return p.store.Blocks()
}

// Unterminated returns the block left open at end of stream, if any. Such a
// block is not part of the store.
func (p *Parser) Unterminated() *block.Block {
	return p.unterminated
}

// Source returns a block's header and body lines joined by newlines.
func (p *Parser) Source(id string) (string, error) {
	return p.store.Source(id)
}

// SourceLines returns a block's header and body lines.
func (p *Parser) SourceLines(id string) ([]string, error) {
	return p.store.SourceLines(id)
}

// Index renders the manifest of all blocks. An empty SourcePath defaults to
// the parser's path.
func (p *Parser) Index(settings manifest.Settings) (string, error) {
	if settings.SourcePath == "" {
		settings.SourcePath = p.path
	}
	return manifest.Generate(p.store.Blocks(), settings)
}
