package loader

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/specialistvlad/doop/internal/ctxlog"
	"github.com/specialistvlad/doop/internal/parser"
	"github.com/zeebo/blake3"
	"golang.org/x/sync/singleflight"
)

// Source is a parsed file together with the version it was parsed from.
type Source struct {
	*parser.Parser

	// Digest is the hex BLAKE3 digest of the decoded source bytes. It keys
	// the ETags of everything served from this version.
	Digest  string
	ModTime time.Time
	Size    int64
}

// Options configures a Cache.
type Options struct {
	Parser parser.Options
	Index  IndexOptions
}

// IndexOptions controls the indexes served by Fetch. Block paths are always
// rendered as file:// URLs.
type IndexOptions struct {
	GlobalEmitter string
	Template      string
}

// Cache holds one parse per source path.
type Cache struct {
	opts Options

	mu      sync.RWMutex
	sources map[string]*Source
	group   singleflight.Group

	stat func(string) (fs.FileInfo, error)
	open func(string) (io.ReadCloser, error)
}

// New returns an empty cache.
func New(opts Options) *Cache {
	return &Cache{
		opts:    opts,
		sources: make(map[string]*Source),
		stat:    os.Stat,
		open:    parser.OpenFile,
	}
}

// Get returns the parsed source at path, parsing it when it is not cached or
// has changed on disk since it was cached.
//
// Callers asking for the same path while it is being parsed share that
// parse. The shared parse is not bound to any one caller's context: a
// caller whose ctx ends gets its own error while the others keep waiting.
func (c *Cache) Get(ctx context.Context, path string) (*Source, error) {
	key, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, &parser.StreamError{Path: key, Err: err}
	}
	logger := ctxlog.FromContext(ctx).With("source", key)

	info, err := c.stat(key)
	if err != nil {
		return nil, &parser.StreamError{Path: key, Err: err}
	}

	c.mu.RLock()
	src, ok := c.sources[key]
	c.mu.RUnlock()
	if ok && src.ModTime.Equal(info.ModTime()) && src.Size == info.Size() {
		logger.Debug("Loader cache hit.")
		return src, nil
	}

	logger.Debug("Loader cache miss.", "stale", ok)
	ch := c.group.DoChan(key, func() (any, error) {
		return c.load(context.WithoutCancel(ctx), key, info)
	})

	select {
	case <-ctx.Done():
		logger.Debug("Caller left before the parse finished.", "error", ctx.Err())
		return nil, &parser.StreamError{Path: key, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			logger.Debug("Joined in-flight parse.")
		}
		return res.Val.(*Source), nil
	}
}

func (c *Cache) load(ctx context.Context, path string, info fs.FileInfo) (*Source, error) {
	rc, err := c.open(path)
	if err != nil {
		return nil, &parser.StreamError{Path: path, Err: err}
	}
	defer rc.Close()

	h := blake3.New()
	p, err := parser.NewFromReader(path, io.TeeReader(rc, h), c.opts.Parser).Parse(ctx)
	if err != nil {
		return nil, err
	}

	src := &Source{
		Parser:  p,
		Digest:  hex.EncodeToString(h.Sum(nil)),
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}

	c.mu.Lock()
	c.sources[path] = src
	c.mu.Unlock()
	return src, nil
}

// Invalidate drops the cached parse of path.
func (c *Cache) Invalidate(path string) {
	key, err := filepath.Abs(path)
	if err != nil {
		return
	}
	c.mu.Lock()
	delete(c.sources, key)
	c.mu.Unlock()
}

// Len returns the number of cached sources.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sources)
}

// IsNotExist reports whether err was caused by a missing source file.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
