/*
Package blockref parses and formats references to a parsed source or to one
of its blocks.

Two canonical forms are accepted, as a plain path or as a file:// URL:

	web.doop              the generated index of web.doop
	web.doop?block=id     the source of block `id` in web.doop

References to other files are reported with ErrNotHandled so that callers
can pass them on to another resolver.
*/
package blockref
