package tiff

import (
	"fmt"

	"github.com/335g/gotiff/tiff/tag"
)

// Kind classifies decode and encode failures.
type Kind uint8

const (
	// KindInvalidHeader means the byte-order marker or magic number is wrong.
	KindInvalidHeader Kind = iota + 1
	// KindUnexpectedEOF means the source ended inside a structure being read.
	KindUnexpectedEOF
	// KindOutOfRange means an offset/count pair points outside the source.
	KindOutOfRange
	// KindMissingRequiredTag means a tag needed to decode the image is absent.
	KindMissingRequiredTag
	// KindTypeMismatch means a value was requested as an incompatible type.
	KindTypeMismatch
	// KindTagNotFound means the requested tag is not present in the IFD.
	KindTagNotFound
	// KindUnsupportedCompression means the compression scheme is recognized
	// but not implemented.
	KindUnsupportedCompression
	// KindCodecError means a compressed strip or tile is malformed.
	KindCodecError
	// KindInconsistentLayout means the strip/tile descriptors do not tile the
	// pixel grid exactly.
	KindInconsistentLayout
	// KindNoImageData means the IFD carries no strip or tile location tags.
	KindNoImageData
)

var kindNames = map[Kind]string{
	KindInvalidHeader:          "invalid header",
	KindUnexpectedEOF:          "unexpected EOF",
	KindOutOfRange:             "out of range",
	KindMissingRequiredTag:     "missing required tag",
	KindTypeMismatch:           "type mismatch",
	KindTagNotFound:            "tag not found",
	KindUnsupportedCompression: "unsupported compression",
	KindCodecError:             "codec error",
	KindInconsistentLayout:     "inconsistent layout",
	KindNoImageData:            "no image data",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("unknown kind %d", uint8(k))
}

// Error is the error type returned by every fallible operation in this
// package. Offset and Tag are set when they are known.
type Error struct {
	Kind   Kind
	Offset int64
	Tag    tag.ID
	msg    string
	cause  error
}

func (e *Error) Error() string {
	s := "tiff: " + e.Kind.String()
	if e.msg != "" {
		s += ": " + e.msg
	}
	if e.Tag != 0 {
		s += fmt.Sprintf(" (tag %s)", tag.Name(e.Tag))
	}
	if e.Offset != 0 {
		s += fmt.Sprintf(" (offset %#x)", e.Offset)
	}
	return s
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error with the same Kind, so callers can test
// errors.Is(err, ErrOutOfRange) without caring about offsets.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for use with errors.Is.
var (
	ErrInvalidHeader          = &Error{Kind: KindInvalidHeader}
	ErrUnexpectedEOF          = &Error{Kind: KindUnexpectedEOF}
	ErrOutOfRange             = &Error{Kind: KindOutOfRange}
	ErrMissingRequiredTag     = &Error{Kind: KindMissingRequiredTag}
	ErrTypeMismatch           = &Error{Kind: KindTypeMismatch}
	ErrTagNotFound            = &Error{Kind: KindTagNotFound}
	ErrUnsupportedCompression = &Error{Kind: KindUnsupportedCompression}
	ErrCodecError             = &Error{Kind: KindCodecError}
	ErrInconsistentLayout     = &Error{Kind: KindInconsistentLayout}
	ErrNoImageData            = &Error{Kind: KindNoImageData}
)

func errf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

func errAt(kind Kind, offset int64, format string, args ...any) *Error {
	return &Error{Kind: kind, Offset: offset, msg: fmt.Sprintf(format, args...)}
}

func errTag(kind Kind, id tag.ID, format string, args ...any) *Error {
	return &Error{Kind: kind, Tag: id, msg: fmt.Sprintf(format, args...)}
}
