package manifest

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/doop/internal/block"
)

// Header is the first line of every generated index.
const Header = "/* Generated index file from doop */"

// DefaultGlobalEmitter is the dispatcher name used when none is configured.
const DefaultGlobalEmitter = "app"

// Settings controls index generation.
type Settings struct {
	// SourcePath is the path of the parsed file; block paths are derived
	// from it.
	SourcePath string
	// URL renders block paths as file:// URLs instead of plain paths.
	URL bool
	// GlobalEmitter names the dispatcher that event-bound blocks subscribe
	// to. It is opaque to this package.
	GlobalEmitter string
	// Renderer produces one line per block. Nil means DefaultRenderer.
	Renderer Renderer
}

func (s Settings) withDefaults() Settings {
	if s.GlobalEmitter == "" {
		s.GlobalEmitter = DefaultGlobalEmitter
	}
	if s.Renderer == nil {
		s.Renderer = DefaultRenderer{}
	}
	return s
}

// Generate renders the index for blocks.
func Generate(blocks []*block.Block, settings Settings) (string, error) {
	settings = settings.withDefaults()

	lines := make([]string, 0, len(blocks)+1)
	lines = append(lines, Header)
	for _, b := range blocks {
		path, err := BlockPath(settings.SourcePath, b.ID, settings.URL)
		if err != nil {
			return "", err
		}
		line, err := settings.Renderer.Render(b, path, settings)
		if err != nil {
			return "", fmt.Errorf("render block %q: %w", b.ID, err)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

// BlockPath addresses one block of a source: `{source}?block={id}`, or the
// file:// URL of the absolute source path when asURL is set.
func BlockPath(sourcePath, id string, asURL bool) (string, error) {
	if !asURL {
		return sourcePath + "?block=" + id, nil
	}

	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", sourcePath, err)
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{
		Scheme:   "file",
		Path:     p,
		RawQuery: "block=" + url.QueryEscape(id),
	}
	return u.String(), nil
}
