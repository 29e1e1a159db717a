/*
NAME
  errors.go - defines the tagged error taxonomy used throughout the avif
  package.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package avif

import "fmt"

// Kind identifies the category of an Error, mirroring the CrabbyAvif/libavif
// result taxonomy this encoder's error handling is grounded on.
type Kind int

// Error kinds returned by this package. See spec.md §7.
const (
	UnknownError Kind = iota
	InvalidArgument
	NoContent
	InvalidImageGrid
	EncodeColorFailed
	EncodeAlphaFailed
	EncodeGainMapFailed
	NotImplemented
	CannotChangeSetting
)

var kindNames = map[Kind]string{
	UnknownError:         "unknown error",
	InvalidArgument:      "invalid argument",
	NoContent:            "no content",
	InvalidImageGrid:     "invalid image grid",
	EncodeColorFailed:    "encode color failed",
	EncodeAlphaFailed:    "encode alpha failed",
	EncodeGainMapFailed:  "encode gain map failed",
	NotImplemented:       "not implemented",
	CannotChangeSetting:  "cannot change setting",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown error"
}

// Error is the tagged error type returned by every fallible operation in
// this package.
type Error struct {
	Kind Kind
	Msg  string
	Err  error // Optional wrapped cause.
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, avif.ErrInvalidArgument) style comparisons: any
// *Error target matches when its Kind equals e's Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(k Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

func wrapErr(k Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Sentinel instances of each Kind for errors.Is comparisons, e.g.
// errors.Is(err, avif.ErrNoContent).
var (
	ErrUnknown              = &Error{Kind: UnknownError}
	ErrInvalidArgument      = &Error{Kind: InvalidArgument}
	ErrNoContent            = &Error{Kind: NoContent}
	ErrInvalidImageGrid     = &Error{Kind: InvalidImageGrid}
	ErrEncodeColorFailed    = &Error{Kind: EncodeColorFailed}
	ErrEncodeAlphaFailed    = &Error{Kind: EncodeAlphaFailed}
	ErrEncodeGainMapFailed  = &Error{Kind: EncodeGainMapFailed}
	ErrNotImplemented       = &Error{Kind: NotImplemented}
	ErrCannotChangeSetting  = &Error{Kind: CannotChangeSetting}
)
