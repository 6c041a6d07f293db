package attrs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Attrs is an insertion-ordered mapping of attribute names to scalar values.
// The zero value is an empty, usable mapping.
type Attrs struct {
	keys   []string
	values map[string]cty.Value
}

// New returns an empty mapping.
func New() *Attrs {
	return &Attrs{values: make(map[string]cty.Value)}
}

// Len returns the number of attributes.
func (a *Attrs) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}

// Keys returns the attribute names in insertion order.
func (a *Attrs) Keys() []string {
	if a == nil {
		return nil
	}
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// Has reports whether name is present.
func (a *Attrs) Has(name string) bool {
	if a == nil {
		return false
	}
	_, ok := a.values[name]
	return ok
}

// Get returns the value stored under name, or cty.NilVal.
func (a *Attrs) Get(name string) (cty.Value, bool) {
	if a == nil {
		return cty.NilVal, false
	}
	v, ok := a.values[name]
	return v, ok
}

// Set stores v under name. Re-setting an existing name replaces the value
// but keeps the name's original position.
func (a *Attrs) Set(name string, v cty.Value) {
	if a.values == nil {
		a.values = make(map[string]cty.Value)
	}
	if _, exists := a.values[name]; !exists {
		a.keys = append(a.keys, name)
	}
	a.values[name] = v
}

// Delete removes name. Deleting a missing name is a no-op.
func (a *Attrs) Delete(name string) {
	if !a.Has(name) {
		return
	}
	delete(a.values, name)
	for i, k := range a.keys {
		if k == name {
			a.keys = append(a.keys[:i], a.keys[i+1:]...)
			break
		}
	}
}

// IsFlag reports whether name is present as a true boolean.
func (a *Attrs) IsFlag(name string) bool {
	v, ok := a.Get(name)
	if !ok || v.IsNull() || !v.IsKnown() || v.Type() != cty.Bool {
		return false
	}
	return v.True()
}

// String returns the textual form of a string or number attribute. Flags
// and missing names report false.
func (a *Attrs) String(name string) (string, bool) {
	v, ok := a.Get(name)
	if !ok {
		return "", false
	}
	return Scalar(v)
}

// Merge copies every attribute of other into a, in other's order.
func (a *Attrs) Merge(other *Attrs) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		a.Set(k, other.values[k])
	}
}

// Clone returns an independent copy.
func (a *Attrs) Clone() *Attrs {
	out := New()
	out.Merge(a)
	return out
}

// MarshalJSON renders the mapping as a JSON object, preserving order.
func (a *Attrs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range a.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		v := a.values[k]
		raw, err := ctyjson.Marshal(v, v.Type())
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		buf.Write(raw)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// FromObject builds a mapping from a cty object or map of scalars, as decoded
// from configuration. Keys are visited in cty's (lexical) order.
func FromObject(obj cty.Value) (*Attrs, error) {
	out := New()
	if obj.IsNull() {
		return out, nil
	}
	if !obj.IsWhollyKnown() {
		return nil, fmt.Errorf("attribute set must be fully known")
	}
	ty := obj.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("attribute set must be an object, got %s", ty.FriendlyName())
	}
	for it := obj.ElementIterator(); it.Next(); {
		k, v := it.Element()
		name := k.AsString()
		if v.IsNull() {
			return nil, fmt.Errorf("attribute %q must not be null", name)
		}
		switch v.Type() {
		case cty.Bool, cty.Number, cty.String:
			out.Set(name, v)
		default:
			return nil, fmt.Errorf("attribute %q must be a bool, number or string, got %s", name, v.Type().FriendlyName())
		}
	}
	return out, nil
}

// Scalar renders a string or number value as text.
func Scalar(v cty.Value) (string, bool) {
	if v.IsNull() || !v.IsKnown() {
		return "", false
	}
	switch v.Type() {
	case cty.String:
		return v.AsString(), true
	case cty.Number:
		return formatNumber(v.AsBigFloat()), true
	}
	return "", false
}

func formatNumber(f *big.Float) string {
	if f.IsInt() {
		i, _ := f.Int(nil)
		return i.String()
	}
	return f.Text('g', -1)
}
