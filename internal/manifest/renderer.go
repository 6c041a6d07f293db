package manifest

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/specialistvlad/doop/internal/block"
)

// Renderer turns one block into one line of the index.
type Renderer interface {
	Render(b *block.Block, path string, settings Settings) (string, error)
}

// RendererFunc adapts a plain function to the Renderer interface.
type RendererFunc func(b *block.Block, path string, settings Settings) string

// Render calls f.
func (f RendererFunc) Render(b *block.Block, path string, settings Settings) (string, error) {
	return f(b, path, settings), nil
}

// DefaultRenderer subscribes event-bound blocks to the global emitter and
// lazily imports them when the event fires; other blocks are imported
// eagerly.
type DefaultRenderer struct{}

// Render implements Renderer.
func (DefaultRenderer) Render(b *block.Block, path string, settings Settings) (string, error) {
	if on, ok := b.On(); ok {
		return fmt.Sprintf("%s.on(%s, ()=> import(%s));", settings.GlobalEmitter, QuoteJS(on), QuoteJS(path)), nil
	}
	return fmt.Sprintf("import %s;", QuoteJS(path)), nil
}

// TemplateData is the value a TemplateRenderer executes its template with.
type TemplateData struct {
	Block   *block.Block
	ID      string
	Tag     string
	Path    string
	On      string
	HasOn   bool
	Emitter string
}

// TemplateRenderer renders each line from a text/template, which lets
// configuration files change the generated wiring.
type TemplateRenderer struct {
	tmpl *template.Template
}

// NewTemplateRenderer parses text. Besides the fields of TemplateData the
// template may call `quote`, which produces a single-quoted JS string.
func NewTemplateRenderer(text string) (*TemplateRenderer, error) {
	tmpl, err := template.New("index").
		Option("missingkey=error").
		Funcs(template.FuncMap{"quote": QuoteJS}).
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse index template: %w", err)
	}
	return &TemplateRenderer{tmpl: tmpl}, nil
}

// Render implements Renderer.
func (r *TemplateRenderer) Render(b *block.Block, path string, settings Settings) (string, error) {
	on, hasOn := b.On()
	data := TemplateData{
		Block:   b,
		ID:      b.ID,
		Tag:     b.Tag,
		Path:    path,
		On:      on,
		HasOn:   hasOn,
		Emitter: settings.GlobalEmitter,
	}
	var sb strings.Builder
	if err := r.tmpl.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

var jsReplacer = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
)

// QuoteJS returns s as a single-quoted JavaScript string literal.
func QuoteJS(s string) string {
	return "'" + jsReplacer.Replace(s) + "'"
}
