// Package rison encodes and decodes Rison, the compact JSON dialect used
// for state in scout URLs.
//
// # Syntax
//
//	JSON                         Rison
//	{"from":"a","to":"b"}        (from:a,to:b)
//	["x","y"]                    !(x,y)
//	true / false / null          !t / !f / !n
//	"two words"                  'two words'
//	"it's"                       'it!'s'
//	""                           ''
//	42, -1.5, 1e+30              42, -1.5, 1e30
//
// Strings that are valid identifiers are written bare. An identifier may
// not start with '-' or a digit and may not contain any of " '!:(),*@$".
// Everything else is single-quoted with '!' escaping '!' and '\''.
//
// # Go values
//
// Marshal and Unmarshal go through encoding/json, so json tags, omitempty
// and custom marshalers behave as they would for JSON. The JSON token
// stream is converted in order, which means struct field order is the
// key order in the output. That keeps encoded URLs stable and diffable.
//
// Errors from malformed input wrap ErrSyntax.
package rison
