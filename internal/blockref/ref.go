package blockref

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Ext is the file extension of block sources.
const Ext = ".doop"

// ErrNotHandled is returned for references that do not point at a block source.
var ErrNotHandled = errors.New("not a block source reference")

// refRegex splits `path.doop` or `path.doop?block=id`.
var refRegex = regexp.MustCompile(`^(.+\.doop)(?:\?block=(.*))?$`)

// Ref addresses a parsed source (Block == "") or one block within it.
type Ref struct {
	Path  string
	Block string
	// URL records that the reference was given as a file:// URL.
	URL bool
}

// IsIndex reports whether the reference addresses the generated index.
func (r *Ref) IsIndex() bool {
	return r.Block == ""
}

// String serializes the reference back into its canonical form.
func (r *Ref) String() string {
	if r == nil {
		return ""
	}

	if r.URL {
		u := url.URL{Scheme: "file", Path: r.Path}
		if r.Block != "" {
			u.RawQuery = "block=" + url.QueryEscape(r.Block)
		}
		return u.String()
	}
	if r.Block == "" {
		return r.Path
	}
	return r.Path + "?block=" + r.Block
}

// Equal checks for equality between two Ref pointers.
func (r *Ref) Equal(other *Ref) bool {
	if r == nil || other == nil {
		return r == other
	}
	return *r == *other
}

// Parse creates a Ref from its string form.
func Parse(raw string) (*Ref, error) {
	if raw == "" {
		return nil, fmt.Errorf("reference cannot be empty")
	}

	isURL := strings.HasPrefix(raw, "file://")
	if isURL {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid reference %q: %w", raw, err)
		}
		if !strings.HasSuffix(u.Path, Ext) {
			return nil, fmt.Errorf("%q: %w", raw, ErrNotHandled)
		}
		ref := &Ref{Path: u.Path, URL: true}
		if u.RawQuery != "" {
			q, err := url.ParseQuery(u.RawQuery)
			if err != nil {
				return nil, fmt.Errorf("invalid reference query %q: %w", raw, err)
			}
			if !q.Has("block") {
				return nil, fmt.Errorf("%q: %w", raw, ErrNotHandled)
			}
			if ref.Block = q.Get("block"); ref.Block == "" {
				return nil, fmt.Errorf("unable to parse block id from %q", raw)
			}
		}
		return ref, nil
	}

	m := refRegex.FindStringSubmatch(raw)
	if m == nil {
		return nil, fmt.Errorf("%q: %w", raw, ErrNotHandled)
	}
	ref := &Ref{Path: m[1], Block: m[2]}
	if strings.Contains(raw, "?block=") && ref.Block == "" {
		return nil, fmt.Errorf("unable to parse block id from %q", raw)
	}
	return ref, nil
}
