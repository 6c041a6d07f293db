package scanner

import (
	"errors"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/specialistvlad/doop/internal/attrs"
	"github.com/specialistvlad/doop/internal/block"
)

var (
	startTagRegex = regexp.MustCompile(`(?i)^<([a-z0-9-]+)(\s*.+?\s*)?>$`)
	endTagRegex   = regexp.MustCompile(`(?i)^</[a-z0-9-]+>$`)
)

// ErrClosed is returned by Feed after Close.
var ErrClosed = errors.New("scanner: feed after close")

// State is the position of the scanner relative to blocks.
type State int

const (
	// Scanning means no block is open; the scanner looks for a start tag.
	Scanning State = iota
	// InBlock means a block is open; the scanner looks for an end tag.
	InBlock
)

func (s State) String() string {
	switch s {
	case Scanning:
		return "scanning"
	case InBlock:
		return "in_block"
	}
	return "unknown"
}

// Scanner is the incremental block parser. It is not safe for concurrent use;
// feed it from one goroutine.
type Scanner struct {
	cfg    Config
	store  *block.Store
	logger *slog.Logger

	lines    []string        // complete lines not yet consumed
	tail     strings.Builder // unterminated last line
	examine  int             // first index of lines not yet matched in the current state
	consumed int             // lines permanently removed from the front
	counters map[string]int  // next generated suffix per derivation key
	current  *block.Block

	unterminated *block.Block
	closed       bool
	err          error
}

// New creates a scanner that registers blocks in store.
func New(store *block.Store, cfg Config) *Scanner {
	if cfg.Aliases == nil {
		cfg.Aliases = DefaultAliases()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scanner{
		cfg:      cfg,
		store:    store,
		logger:   logger,
		counters: make(map[string]int),
	}
}

// State reports whether a block is currently open.
func (s *Scanner) State() State {
	if s.current != nil {
		return InBlock
	}
	return Scanning
}

// Consumed returns the number of lines permanently consumed so far.
func (s *Scanner) Consumed() int {
	return s.consumed
}

// Unterminated returns the block that was still open when Close was called.
func (s *Scanner) Unterminated() *block.Block {
	return s.unterminated
}

// Write feeds p to the scanner, so a source can be drained with io.Copy.
func (s *Scanner) Write(p []byte) (int, error) {
	if err := s.Feed(string(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Feed consumes the next chunk of the source. A fatal error is sticky: every
// later call returns it again.
func (s *Scanner) Feed(chunk string) error {
	if s.err != nil {
		return s.err
	}
	if s.closed {
		return ErrClosed
	}

	parts := strings.Split(chunk, "\n")
	s.tail.WriteString(parts[0])
	if len(parts) > 1 {
		s.lines = append(s.lines, s.tail.String())
		s.lines = append(s.lines, parts[1:len(parts)-1]...)
		s.tail.Reset()
		s.tail.WriteString(parts[len(parts)-1])
	}

	return s.drain()
}

// Close marks the end of the stream. The unterminated tail is treated as a
// final line, remaining orphans are reported and a block that never saw its
// closing tag is withdrawn from the store.
func (s *Scanner) Close() error {
	if s.err != nil {
		return s.err
	}
	if s.closed {
		return nil
	}
	s.closed = true

	if s.tail.Len() > 0 {
		s.lines = append(s.lines, s.tail.String())
		s.tail.Reset()
	}
	if err := s.drain(); err != nil {
		return err
	}

	if s.current != nil {
		s.logger.Warn("Block has no closing tag, dropping it.", "id", s.current.ID, "line_start", s.current.LineStart)
		s.store.Remove(s.current.ID)
		s.unterminated = s.current
		s.current = nil
		return nil
	}

	if len(s.lines) > 0 {
		s.emitOrphans(s.lines, 0)
	}
	s.lines = nil
	return nil
}

// drain opens and closes blocks until neither step makes progress, so
// several blocks may complete within one chunk.
func (s *Scanner) drain() error {
	for {
		progressed := false
		if s.current == nil {
			opened, err := s.openNext()
			if err != nil {
				s.err = err
				return err
			}
			progressed = opened
		}
		if s.current != nil && s.closeCurrent() {
			progressed = true
		}
		if !progressed {
			return nil
		}
	}
}

func (s *Scanner) openNext() (bool, error) {
	for i := s.examine; i < len(s.lines); i++ {
		m := startTagRegex.FindStringSubmatch(trimCR(s.lines[i]))
		if m == nil {
			continue
		}

		tagLine := s.consumed + i + 1
		tag := strings.ToLower(m[1])
		a := attrs.Parse(m[2])
		s.applyAliases(a)

		id, err := s.blockID(tag, a, tagLine)
		if err != nil {
			return false, err
		}

		b := &block.Block{
			ID:        id,
			Tag:       tag,
			Attrs:     a,
			LineStart: tagLine + 1,
		}
		if err := s.store.Add(b); err != nil {
			return false, err
		}
		s.logger.Debug("Block opened.", "id", id, "tag", tag, "line", tagLine)

		orphans := s.lines[:i]
		s.lines = s.lines[i+1:]
		s.consumed += i + 1
		s.examine = 0
		s.current = b

		s.emitOrphans(orphans, tagLine)
		return true, nil
	}

	s.examine = len(s.lines)
	return false, nil
}

func (s *Scanner) closeCurrent() bool {
	for i := s.examine; i < len(s.lines); i++ {
		if !endTagRegex.MatchString(trimCR(s.lines[i])) {
			continue
		}

		b := s.current
		b.Source = make([]string, i)
		for j, line := range s.lines[:i] {
			b.Source[j] = trimCR(line)
		}
		b.LineEnd = max(s.consumed+i, b.LineStart)

		s.lines = s.lines[i+1:]
		s.consumed += i + 1
		s.examine = 0
		s.current = nil

		if s.cfg.OnSeal != nil {
			s.cfg.OnSeal(b)
		}
		b.Sealed = true
		s.logger.Debug("Block sealed.", "id", b.ID, "line_start", b.LineStart, "line_end", b.LineEnd)
		return true
	}

	s.examine = len(s.lines)
	return false
}

// applyAliases rewrites every true flag that names an alias.
func (s *Scanner) applyAliases(a *attrs.Attrs) {
	for _, name := range a.Keys() {
		replacement, ok := s.cfg.Aliases[name]
		if !ok || !a.IsFlag(name) {
			continue
		}
		a.Delete(name)
		a.Merge(replacement)
	}
}

// blockID returns the explicit id, or generates one from the `on` attribute
// (falling back to the tag) plus a per-key counter. Generated ids skip over
// ids that are already taken.
func (s *Scanner) blockID(tag string, a *attrs.Attrs, line int) (string, error) {
	if id, ok := a.String("id"); ok {
		if s.store.Has(id) {
			return "", &block.DuplicateBlockIDError{ID: id, Line: line}
		}
		return id, nil
	}

	key := tag
	if on, ok := a.String("on"); ok && on != "" {
		key = on
	}
	for {
		n := s.counters[key]
		s.counters[key] = n + 1
		id := key + strconv.Itoa(n)
		if !s.store.Has(id) {
			return id, nil
		}
	}
}

func (s *Scanner) emitOrphans(lines []string, beforeLine int) {
	if !s.cfg.Orphans {
		return
	}
	out := make([]string, len(lines))
	nonEmpty := false
	for i, line := range lines {
		out[i] = trimCR(line)
		if out[i] != "" {
			nonEmpty = true
		}
	}
	if !nonEmpty {
		return
	}

	ev := OrphanEvent{Lines: out, BeforeLine: beforeLine}
	if s.cfg.OnOrphans == nil {
		s.logger.Warn("Orphaned lines outside of any block.", "count", len(out), "before_line", beforeLine)
		return
	}
	s.cfg.OnOrphans(ev)
}

func trimCR(line string) string {
	return strings.TrimSuffix(line, "\r")
}
