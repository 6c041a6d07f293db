package server

import (
	"bytes"
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/specialistvlad/doop/internal/loader"
	"github.com/specialistvlad/doop/internal/manifest"
	"github.com/specialistvlad/doop/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	root := testutil.WriteFiles(t, map[string]string{
		"app/web.doop": testutil.WebserverDoop,
		"dup.doop":     "<a id=\"x\">\n</a>\n<b id=\"x\">\n</b>\n",
		"main.js":      "console.log(1);\n",
	})
	return New(root, loader.New(loader.Options{}), nil), root
}

func get(t *testing.T, h http.Handler, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK\n", rec.Body.String())
}

func TestServer_Index(t *testing.T) {
	s, root := newTestServer(t)

	rec := get(t, s, "/app/web.doop", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ContentType, rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("ETag"))

	lines := strings.Split(rec.Body.String(), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, manifest.Header, lines[0])
	want := "app.on('middleware', ()=> import('file://" + filepath.Join(root, "app", "web.doop") + "?block=middleware0'));"
	assert.Equal(t, want, lines[1])
}

func TestServer_Block(t *testing.T) {
	s, _ := newTestServer(t)

	rec := get(t, s, "/app/web.doop?block=endpoint0", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "app.get('/', (req, res) => res.send('hello'));", rec.Body.String())
}

func TestServer_NotModified(t *testing.T) {
	s, _ := newTestServer(t)

	first := get(t, s, "/app/web.doop?block=endpoint0", nil)
	require.Equal(t, http.StatusOK, first.Code)
	etag := first.Header().Get("ETag")

	second := get(t, s, "/app/web.doop?block=endpoint0", http.Header{"If-None-Match": {etag}})

	assert.Equal(t, http.StatusNotModified, second.Code)
	assert.Empty(t, second.Body.String())
	assert.Equal(t, etag, second.Header().Get("ETag"))
}

func TestServer_NotModified_HeaderForms(t *testing.T) {
	s, _ := newTestServer(t)
	first := get(t, s, "/app/web.doop?block=endpoint0", nil)
	require.Equal(t, http.StatusOK, first.Code)
	etag := first.Header().Get("ETag")

	testCases := []struct {
		name   string
		header string
		status int
	}{
		{name: "list containing tag", header: `"other", ` + etag, status: http.StatusNotModified},
		{name: "wildcard", header: "*", status: http.StatusNotModified},
		{name: "weak tag", header: "W/" + etag, status: http.StatusNotModified},
		{name: "list without tag", header: `"a", "b"`, status: http.StatusOK},
		{name: "tag prefix only", header: etag[:len(etag)-2] + `"`, status: http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(t, s, "/app/web.doop?block=endpoint0", http.Header{"If-None-Match": {tc.header}})

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, etag, rec.Header().Get("ETag"))
		})
	}
}

func TestServer_RequestLoggerReachesLoader(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	root := testutil.WriteFiles(t, map[string]string{"app/web.doop": testutil.WebserverDoop})
	s := New(root, loader.New(loader.Options{}), logger)

	// Act
	rec := get(t, s, "/app/web.doop?block=endpoint0", nil)

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	var missLine string
	for line := range strings.SplitSeq(buf.String(), "\n") {
		if strings.Contains(line, "Loader cache miss.") {
			missLine = line
		}
	}
	require.NotEmpty(t, missLine, "loader did not log through the request logger:\n%s", buf.String())
	assert.Contains(t, missLine, "path=/app/web.doop")
	assert.Contains(t, missLine, `query="block=endpoint0"`)
}

func TestServer_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		target string
		status int
	}{
		{name: "unknown block", target: "/app/web.doop?block=nope", status: http.StatusNotFound},
		{name: "empty block id", target: "/app/web.doop?block=", status: http.StatusBadRequest},
		{name: "missing file", target: "/app/other.doop", status: http.StatusNotFound},
		{name: "not a block source", target: "/main.js", status: http.StatusNotFound},
		{name: "root", target: "/", status: http.StatusNotFound},
		{name: "duplicate ids", target: "/dup.doop", status: http.StatusUnprocessableEntity},
		{name: "unclean path redirects", target: "/../../app/web.doop?block=endpoint1", status: http.StatusMovedPermanently},
	}

	s, _ := newTestServer(t)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(t, s, tc.target, nil)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestServer_ListenAndServe(t *testing.T) {
	s, _ := newTestServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("server did not shut down")
	}
}
