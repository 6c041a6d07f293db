// Package server exposes loader resolution over HTTP.
//
// A GET for `/dir/web.doop` returns the generated index of web.doop below
// the served root, `/dir/web.doop?block=id` returns one block's source, and
// `/health` answers OK.
package server
