package attrs

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/zclconf/go-cty/cty"
)

// tokenRegex matches one attribute token. Alternatives are tried in order:
// name="quoted", name='quoted', name=bareword, then a bare name.
var tokenRegex = regexp.MustCompile(`([\w-]+)\s*=\s*(?:"([^"]*)"|'([^']*)'|([\w-]+))|([\w-]+)`)

// Parse converts a raw attribute fragment into an ordered mapping. It never
// fails: unrecognised text between tokens is skipped.
func Parse(raw string) *Attrs {
	out := New()
	if strings.TrimSpace(raw) == "" {
		return out
	}

	for _, m := range tokenRegex.FindAllStringSubmatch(raw, -1) {
		name := m[1]
		if name == "" {
			name = m[5]
		}
		if name == "" {
			continue
		}
		name = CamelCase(name)

		value := firstNonEmpty(m[2], m[3], m[4])
		if value == "" {
			// A bare name, or an empty quoted value, is a flag.
			out.Set(name, cty.True)
			continue
		}
		out.Set(name, coerce(value))
	}
	return out
}

// CamelCase removes hyphens from name and upper-cases the rune following
// each one: `data-foo-bar` becomes `dataFooBar`.
func CamelCase(name string) string {
	if !strings.Contains(name, "-") {
		return name
	}
	var sb strings.Builder
	sb.Grow(len(name))
	upper := false
	for _, r := range name {
		if r == '-' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// coerce returns a number value when s is a complete numeric literal that
// is finite as a float64, and a string value otherwise.
func coerce(s string) cty.Value {
	if n, ok := parseNumber(s); ok {
		return n
	}
	return cty.StringVal(s)
}

func parseNumber(s string) (cty.Value, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.Contains(s, "_") {
		return cty.NilVal, false
	}

	if len(s) > 2 && s[0] == '0' && strings.ContainsRune("xXoObB", rune(s[1])) {
		u, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			return cty.NilVal, false
		}
		return cty.NumberUIntVal(u), true
	}

	v, err := cty.ParseNumberVal(s)
	if err != nil {
		return cty.NilVal, false
	}
	// Literals beyond float64 range are not finite numbers to consumers.
	if f, _ := v.AsBigFloat().Float64(); math.IsInf(f, 0) {
		return cty.NilVal, false
	}
	return v, true
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
