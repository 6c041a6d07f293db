// Package loader resolves block references to module source text.
//
// A Cache parses each source at most once per on-disk version, so the index
// of a file and every block requested from it share the same parse.
// Concurrent requests for the same file wait on a single parse.
package loader
