package loader

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/specialistvlad/doop/internal/block"
	"github.com/specialistvlad/doop/internal/blockref"
	"github.com/specialistvlad/doop/internal/manifest"
	"github.com/specialistvlad/doop/internal/parser"
	"github.com/specialistvlad/doop/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_Get_ParsesOnce(t *testing.T) {
	// Arrange
	root := testutil.WriteFiles(t, map[string]string{"web.doop": testutil.WebserverDoop})
	path := filepath.Join(root, "web.doop")
	c := New(Options{})

	// Act
	first, err := c.Get(context.Background(), path)
	require.NoError(t, err)
	second, err := c.Get(context.Background(), path)
	require.NoError(t, err)

	// Assert
	assert.Same(t, first, second)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, []string{"middleware0", "middleware1", "endpoint0", "endpoint1"}, first.Store().IDs())
	assert.Len(t, first.Digest, 64)
}

func TestCache_Get_ReparsesChangedFile(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{"web.doop": testutil.MinimalDoop})
	path := filepath.Join(root, "web.doop")
	c := New(Options{})

	first, err := c.Get(context.Background(), path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(testutil.WebserverDoop), 0o644))
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	second, err := c.Get(context.Background(), path)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.NotEqual(t, first.Digest, second.Digest)
	assert.Equal(t, 4, second.Store().Len())
	assert.Equal(t, 1, c.Len())
}

func TestCache_Get_Concurrent(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{"web.doop": testutil.SimpleDoop})
	path := filepath.Join(root, "web.doop")
	c := New(Options{})

	const n = 16
	results := make([]*Source, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			src, err := c.Get(context.Background(), path)
			assert.NoError(t, err)
			results[i] = src
		}()
	}
	wg.Wait()

	for _, src := range results {
		require.NotNil(t, src)
		assert.Equal(t, []string{"script0", "script1", "three"}, src.Store().IDs())
	}
	assert.Equal(t, 1, c.Len())
}

func TestCache_Get_MissingFile(t *testing.T) {
	c := New(Options{})

	_, err := c.Get(context.Background(), filepath.Join(t.TempDir(), "nope.doop"))

	var streamErr *parser.StreamError
	require.ErrorAs(t, err, &streamErr)
	assert.True(t, IsNotExist(err))
	assert.Equal(t, 0, c.Len())
}

func TestCache_Get_ParseErrorIsNotCached(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{
		"dup.doop": "<a id=\"x\">\n</a>\n<b id=\"x\">\n</b>\n",
	})
	c := New(Options{})

	_, err := c.Get(context.Background(), filepath.Join(root, "dup.doop"))

	require.ErrorIs(t, err, block.ErrDuplicateBlockID)
	assert.Equal(t, 0, c.Len())
}

func TestCache_Invalidate(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{"web.doop": testutil.MinimalDoop})
	path := filepath.Join(root, "web.doop")
	c := New(Options{})

	first, err := c.Get(context.Background(), path)
	require.NoError(t, err)
	c.Invalidate(path)
	assert.Equal(t, 0, c.Len())

	second, err := c.Get(context.Background(), path)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, first.Digest, second.Digest)
}

func TestCache_Fetch(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{"web.doop": testutil.WebserverDoop})
	path := filepath.Join(root, "web.doop")
	c := New(Options{})
	ctx := context.Background()

	t.Run("index", func(t *testing.T) {
		mod, err := c.Fetch(ctx, path)
		require.NoError(t, err)

		lines := strings.Split(mod.Source, "\n")
		require.Len(t, lines, 5)
		assert.Equal(t, manifest.Header, lines[0])
		assert.Equal(t, "app.on('middleware', ()=> import('file://"+path+"?block=middleware0'));", lines[1])
		assert.Equal(t, "app.on('endpoint', ()=> import('file://"+path+"?block=endpoint1'));", lines[4])
		assert.NotEmpty(t, mod.ETag)
	})

	t.Run("block", func(t *testing.T) {
		mod, err := c.Fetch(ctx, path+"?block=endpoint1")
		require.NoError(t, err)
		assert.Equal(t, "app.get('/ping', (req, res) => res.send('pong'));", mod.Source)
		assert.Equal(t, "endpoint1", mod.Ref.Block)
	})

	t.Run("file url", func(t *testing.T) {
		mod, err := c.Fetch(ctx, "file://"+path+"?block=middleware1")
		require.NoError(t, err)
		assert.Equal(t, "app.use(express.json());", mod.Source)
	})

	t.Run("index and blocks share one parse", func(t *testing.T) {
		assert.Equal(t, 1, c.Len())
	})

	t.Run("unknown block", func(t *testing.T) {
		_, err := c.Fetch(ctx, path+"?block=nope")
		require.ErrorIs(t, err, block.ErrUnknownBlock)
	})

	t.Run("not handled", func(t *testing.T) {
		_, err := c.Fetch(ctx, filepath.Join(root, "main.js"))
		require.ErrorIs(t, err, blockref.ErrNotHandled)
	})
}

func TestCache_Fetch_ETagFollowsContent(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{"web.doop": testutil.WebserverDoop})
	path := filepath.Join(root, "web.doop")
	c := New(Options{})

	a, err := c.Fetch(context.Background(), path+"?block=middleware0")
	require.NoError(t, err)
	again, err := c.Fetch(context.Background(), path+"?block=middleware0")
	require.NoError(t, err)
	b, err := c.Fetch(context.Background(), path+"?block=endpoint0")
	require.NoError(t, err)

	assert.Equal(t, a.ETag, again.ETag)
	assert.NotEqual(t, a.ETag, b.ETag)
}

func TestCache_Fetch_IndexOptions(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{"web.doop": testutil.WebserverDoop})
	path := filepath.Join(root, "web.doop")

	t.Run("emitter", func(t *testing.T) {
		c := New(Options{Index: IndexOptions{GlobalEmitter: "bus"}})
		mod, err := c.Fetch(context.Background(), path)
		require.NoError(t, err)
		assert.Contains(t, mod.Source, "bus.on('middleware'")
	})

	t.Run("template", func(t *testing.T) {
		c := New(Options{Index: IndexOptions{Template: "{{.Block.ID}}"}})
		mod, err := c.Fetch(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, manifest.Header+"\nmiddleware0\nmiddleware1\nendpoint0\nendpoint1", mod.Source)
	})

	t.Run("bad template", func(t *testing.T) {
		c := New(Options{Index: IndexOptions{Template: "{{"}})
		_, err := c.Fetch(context.Background(), path)
		require.Error(t, err)
	})
}

func TestCache_Get_Cancelled(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{"web.doop": testutil.MinimalDoop})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Options{}).Get(ctx, filepath.Join(root, "web.doop"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCache_Get_CancelledCallerLeavesSharedParseRunning(t *testing.T) {
	// Arrange
	root := testutil.WriteFiles(t, map[string]string{"web.doop": testutil.WebserverDoop})
	path := filepath.Join(root, "web.doop")
	c := New(Options{})

	pr, pw := io.Pipe()
	opened := make(chan struct{})
	var first sync.Once
	c.open = func(p string) (io.ReadCloser, error) {
		isFirst := false
		first.Do(func() { isFirst = true })
		if !isFirst {
			return parser.OpenFile(p)
		}
		close(opened)
		return pr, nil
	}
	statted := make(chan struct{}, 8)
	c.stat = func(p string) (fs.FileInfo, error) {
		statted <- struct{}{}
		return os.Stat(p)
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	errA := make(chan error, 1)
	go func() {
		_, err := c.Get(ctxA, path)
		errA <- err
	}()
	<-statted
	<-opened

	type result struct {
		src *Source
		err error
	}
	resB := make(chan result, 1)
	go func() {
		src, err := c.Get(context.Background(), path)
		resB <- result{src, err}
	}()
	<-statted
	time.Sleep(20 * time.Millisecond)

	// Act
	cancelA()

	// Assert
	select {
	case err := <-errA:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller did not return")
	}

	_, err := io.WriteString(pw, testutil.WebserverDoop)
	require.NoError(t, err)
	require.NoError(t, pw.Close())

	select {
	case r := <-resB:
		require.NoError(t, r.err)
		assert.Equal(t, []string{"middleware0", "middleware1", "endpoint0", "endpoint1"}, r.src.Store().IDs())
	case <-time.After(2 * time.Second):
		t.Fatal("live caller did not return")
	}
	assert.Equal(t, 1, c.Len())
}

func TestCache_Fetch_ETagFollowsSourceDigest(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{"web.doop": testutil.WebserverDoop})
	path := filepath.Join(root, "web.doop")
	ref := path + "?block=endpoint0"
	c := New(Options{})

	before, err := c.Fetch(context.Background(), ref)
	require.NoError(t, err)

	// A touch forces a re-parse but leaves the content, and so the tag, alone.
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))
	touched, err := c.Fetch(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, before.ETag, touched.ETag)

	// Editing another block changes the file digest and every tag with it.
	edited := strings.Replace(testutil.WebserverDoop, "pong", "PONG", 1)
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))
	evenLater := later.Add(time.Hour)
	require.NoError(t, os.Chtimes(path, evenLater, evenLater))
	changed, err := c.Fetch(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, before.Source, changed.Source)
	assert.NotEqual(t, before.ETag, changed.ETag)
}
