package codec

import (
	"errors"
	"fmt"
)

// Kind groups decode failures by what the user has to fix.
type Kind int

const (
	KindUnknown Kind = iota
	KindPercentEncoding
	KindJSONSyntax
)

func (k Kind) String() string {
	switch k {
	case KindPercentEncoding:
		return "percent-encoding"
	case KindJSONSyntax:
		return "json-syntax"
	default:
		return "unknown"
	}
}

// Classify maps an error from this package to its Kind.
func Classify(err error) Kind {
	var decodeErr *DecodeError
	var parseErr *ParseError
	switch {
	case errors.As(err, &decodeErr):
		return KindPercentEncoding
	case errors.As(err, &parseErr):
		return KindJSONSyntax
	default:
		return KindUnknown
	}
}

// Message returns a user-facing explanation for err.
func Message(err error) string {
	var decodeErr *DecodeError
	var parseErr *ParseError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &decodeErr):
		return fmt.Sprintf("Not valid percent-encoding: %s. Paste the encoded value, not decoded text.", decodeErr.Reason)
	case errors.As(err, &parseErr):
		return fmt.Sprintf("Decoded text is not valid JSON (offset %d): %v", parseErr.Offset, parseErr.Err)
	default:
		return fmt.Sprintf("Decoding failed: %v", err)
	}
}
