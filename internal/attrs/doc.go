// Package attrs parses the inline attribute fragment of a block start tag
// (`<script id="x" foo=123 bar>`) into an ordered mapping of camel-cased
// names to scalar cty values.
//
// Values are always one of three kinds:
//   - cty.True for a bare flag (`bar`),
//   - a cty.Number when the raw text is a finite numeric literal (`foo=123`),
//   - a cty.String for everything else (`baz="Test String"`).
//
// The parser never fails. Tokens that match none of the accepted forms are
// dropped, and an empty fragment yields an empty mapping.
package attrs
