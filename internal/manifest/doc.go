// Package manifest renders the blocks of a parsed source into an index: a
// fixed header line followed by one generated statement per block, in file
// order. How each statement looks is decided by a Renderer, so callers can
// retarget the generated wiring without touching the scanner.
package manifest
