package config

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"

	"github.com/specialistvlad/doop/internal/attrs"
	"github.com/specialistvlad/doop/internal/manifest"
	"github.com/specialistvlad/doop/internal/parser"
	"github.com/specialistvlad/doop/internal/scanner"
)

// Model is the unified, format-agnostic representation of a project's
// configuration.
type Model struct {
	Orphans   bool
	ChunkSize int

	// Aliases are applied on top of scanner.DefaultAliases. Names may be
	// hyphenated; they are matched in camel case like attribute names. An
	// alias with an empty attribute set removes the default of the same
	// name.
	Aliases map[string]*attrs.Attrs

	Index Index
}

// Index holds index generation settings.
type Index struct {
	GlobalEmitter string
	URL           bool
	// Template replaces the default per-block line when non-empty.
	Template string
}

// Default returns the configuration used when no file is present.
func Default() *Model {
	return &Model{
		ChunkSize: parser.DefaultChunkSize,
		Aliases:   make(map[string]*attrs.Attrs),
		Index: Index{
			GlobalEmitter: manifest.DefaultGlobalEmitter,
		},
	}
}

var aliasNameRegex = regexp.MustCompile(`^[\w-]+$`)

// Validate checks the model for values no parse could use.
func (m *Model) Validate() error {
	var errs []error
	if m.ChunkSize < 0 {
		errs = append(errs, fmt.Errorf("chunk_size must not be negative, got %d", m.ChunkSize))
	}
	seen := make(map[string]string, len(m.Aliases))
	for _, name := range slices.Sorted(maps.Keys(m.Aliases)) {
		if !aliasNameRegex.MatchString(name) {
			errs = append(errs, fmt.Errorf("alias %q: name must be a valid attribute name", name))
			continue
		}
		flag := attrs.CamelCase(name)
		if other, ok := seen[flag]; ok {
			errs = append(errs, fmt.Errorf("alias %q: same flag %q as alias %q", name, flag, other))
			continue
		}
		seen[flag] = name
	}
	if m.Index.Template != "" {
		if _, err := manifest.NewTemplateRenderer(m.Index.Template); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ScannerAliases returns the default alias table with the configured
// aliases applied. Names are keyed by the flag they match, so a hyphenated
// alias such as `on-ready` applies to `<script on-ready>`, which parses to
// the flag `onReady`.
func (m *Model) ScannerAliases() scanner.Aliases {
	out := scanner.DefaultAliases()
	for name, a := range m.Aliases {
		flag := attrs.CamelCase(name)
		if a == nil || a.Len() == 0 {
			delete(out, flag)
			continue
		}
		out[flag] = a.Clone()
	}
	return out
}

// ParserOptions returns the parser options described by the model.
func (m *Model) ParserOptions() parser.Options {
	return parser.Options{
		Orphans:   m.Orphans,
		Aliases:   m.ScannerAliases(),
		ChunkSize: m.ChunkSize,
	}
}

// IndexSettings returns the manifest settings described by the model.
func (m *Model) IndexSettings() (manifest.Settings, error) {
	settings := manifest.Settings{
		URL:           m.Index.URL,
		GlobalEmitter: m.Index.GlobalEmitter,
	}
	if m.Index.Template != "" {
		r, err := manifest.NewTemplateRenderer(m.Index.Template)
		if err != nil {
			return manifest.Settings{}, err
		}
		settings.Renderer = r
	}
	return settings, nil
}
