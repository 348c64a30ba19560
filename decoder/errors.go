// Copyright 2018-present Kuei-chun Chen. All rights reserved.
// errors.go

package decoder

import "fmt"

// Kind classifies the failure modes a chunk decode can hit. The core never
// recovers from any of these internally; every kind fails the current
// chunk and is surfaced to the caller.
type Kind int

// Error kinds, see spec section 7.
const (
	// OutOfRange means a cursor read ran past the end of its buffer.
	OutOfRange Kind = iota
	// InvalidSize means a declared BSON document size was < 5 or exceeded
	// the remaining buffer.
	InvalidSize
	// InvalidTerminator means a BSON container did not end on a 0x00 byte
	// at its declared end offset.
	InvalidTerminator
	// UnsupportedType means a BSON element type byte has no known,
	// fixed-width skip rule and cannot be safely skipped without
	// desynchronizing the cursor.
	UnsupportedType
	// Utf8Error means a BSON key or string value was not valid UTF-8.
	Utf8Error
	// VarintTooLong means a LEB128 varint did not terminate within 10
	// bytes.
	VarintTooLong
	// MetricsCountMismatch means the flattened reference document's
	// numeric-leaf count did not match the chunk's declared N_metrics, or
	// the reference document contained duplicate keys.
	MetricsCountMismatch
	// ChunkTooLarge means N_metrics * N_samples exceeded the 1,000,000
	// product bound.
	ChunkTooLarge
	// InflateError means the external DEFLATE/zlib decompressor failed.
	InflateError
)

func (k Kind) String() string {
	switch k {
	case OutOfRange:
		return "OutOfRange"
	case InvalidSize:
		return "InvalidSize"
	case InvalidTerminator:
		return "InvalidTerminator"
	case UnsupportedType:
		return "UnsupportedType"
	case Utf8Error:
		return "Utf8Error"
	case VarintTooLong:
		return "VarintTooLong"
	case MetricsCountMismatch:
		return "MetricsCountMismatch"
	case ChunkTooLarge:
		return "ChunkTooLarge"
	case InflateError:
		return "InflateError"
	default:
		return "Unknown"
	}
}

// Error is the core's single error type: a Kind plus a human-readable
// message. Callers that need to branch on failure mode should use
// errors.As and inspect Kind rather than matching on the message text.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// newErr builds an *Error with a formatted message.
func newErr(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// NewError builds an *Error for collaborators outside this package, such
// as ftdcio's Inflate, that need to report a failure in one of the kinds
// this package defines (spec section 7).
func NewError(kind Kind, format string, args ...interface{}) *Error {
	return newErr(kind, format, args...)
}

// Is lets errors.Is(err, SomeKind) work by comparing Kind when the target
// is itself a *Error with no message (a sentinel-by-kind pattern). Most
// callers should prefer errors.As and check Kind directly.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}
