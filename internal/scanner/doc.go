// Package scanner implements the incremental block scanner: a resumable
// state machine that is fed a source file chunk by chunk and registers every
// tagged block it recognises in a block.Store.
//
// # Source layout
//
// A block starts with a tag line and ends with a closing tag line, each
// alone on its line:
//
//	<script id="main" foo=1>
//	console.log('body');
//	</script>
//
// The closing tag's name is not compared with the opening tag's name, so
// `</div>` closes a `<script>` block. Lines outside any block are orphans.
//
// # Incremental model
//
// Chunks may end anywhere, including in the middle of a line or of a
// multi-byte rune. The scanner keeps the unterminated tail separately and
// only examines complete lines, remembering how far it has already looked so
// that each line is matched at most once per state. Close marks the end of
// the stream, at which point the tail is examined as a final line.
package scanner
