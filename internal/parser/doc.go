// Package parser drives the block scanner from a chunked text source and
// exposes the parsed blocks: Parse reads the source once, after which the
// Parser answers Source, SourceLines and Index from its block store.
//
// A Parser owns exactly one parse. Callers that want to avoid parsing the
// same source twice cache Parser values themselves (see package loader).
package parser
