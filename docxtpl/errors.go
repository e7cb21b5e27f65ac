package docxtpl

import (
	"errors"
	"fmt"
)

// ArgumentError reports a null/invalid argument passed to the engine
// façade: a nil byte slice, a non-seekable/non-writable stream, etc.
type ArgumentError struct {
	Name string
	Msg  string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("argument error: %s: %s", e.Name, e.Msg)
}

// InvalidJSONError wraps a JSON decode failure, or a successfully parsed
// but Null root, which is rejected explicitly rather than rendered as an
// all-blank document.
type InvalidJSONError struct {
	Err error
}

func (e *InvalidJSONError) Error() string {
	if e.Err == nil {
		return "invalid json: root is null"
	}
	return fmt.Sprintf("invalid json: %s", e.Err.Error())
}

func (e *InvalidJSONError) Unwrap() error { return e.Err }

// UnmatchedTagError reports a closing control tag whose expression differs
// from the opener at the same nesting depth.
type UnmatchedTagError struct {
	Open, Close string
}

func (e *UnmatchedTagError) Error() string {
	return fmt.Sprintf("unmatched tag: opening expression %q does not match closing expression %q", e.Open, e.Close)
}

// UnclosedTagError reports a start marker with no matching end in the same
// composite.
type UnclosedTagError struct {
	Expr string
	Kind string
}

func (e *UnclosedTagError) Error() string {
	return fmt.Sprintf("unclosed %s tag: %q", e.Kind, e.Expr)
}

// InvalidPathError reports a malformed path expression: a bracket segment
// that isn't "[<int>]", or some other grammar violation.
type InvalidPathError struct {
	Path string
	Msg  string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Msg)
}

// UnsupportedOperatorError reports an unknown pipe operator name.
type UnsupportedOperatorError struct {
	Name string
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("unsupported operator: %q", e.Name)
}

func (e *UnsupportedOperatorError) Is(target error) bool {
	var u *UnsupportedOperatorError
	if errors.As(target, &u) {
		return e.Name == u.Name
	}
	return false
}

// OpArgError reports a missing or malformed operator argument, e.g. `take`
// without an integer argument.
type OpArgError struct {
	Operator string
	Msg      string
}

func (e *OpArgError) Error() string {
	return fmt.Sprintf("operator %q: %s", e.Operator, e.Msg)
}

// InvalidImageSourceError reports a source string that is neither base64,
// a data URI, nor an existing file.
type InvalidImageSourceError struct {
	Msg string
}

func (e *InvalidImageSourceError) Error() string {
	return fmt.Sprintf("invalid image source: %s", e.Msg)
}

// UnknownImageFormatError reports bytes that match no supported magic
// sequence and no hint (MIME/extension) helps identify the format.
type UnknownImageFormatError struct{}

func (e *UnknownImageFormatError) Error() string { return "unknown image format" }

// InvalidImageSizeError reports a non-positive explicit dimension, or a
// post-resolution non-positive size.
type InvalidImageSizeError struct {
	Msg string
}

func (e *InvalidImageSizeError) Error() string {
	return fmt.Sprintf("invalid image size: %s", e.Msg)
}
