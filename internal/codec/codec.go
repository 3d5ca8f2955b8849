// Package codec turns percent-encoded JSON into indented JSON and explains
// why it could not when the input is bad.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// DefaultIndent matches the four-space output of the original popup.
const DefaultIndent = 4

// Options control Decode.
type Options struct {
	// Indent is the number of spaces per nesting level; zero uses DefaultIndent.
	Indent int
	// Lenient accepts input containing characters a URI never carries raw.
	Lenient bool
}

// Result is a successful decode, or the partial result of a ParseError.
type Result struct {
	Input     string
	Decoded   string
	Formatted string
}

// DecodeError reports input that is not valid percent-encoded UTF-8.
type DecodeError struct {
	Offset int
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("invalid percent-encoding at offset %d: %s", e.Offset, e.Reason)
	}
	return "invalid percent-encoding: " + e.Reason
}

// ParseError reports decoded text that is not valid JSON.
type ParseError struct {
	Offset int64
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid JSON at offset %d: %v", e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Decode percent-decodes input and re-indents the JSON it contains. When the
// JSON is malformed the returned Result still carries the decoded text.
func Decode(input string, opts Options) (Result, error) {
	res := Result{Input: input}

	decoded, err := percentDecode(input, !opts.Lenient)
	if err != nil {
		return res, err
	}
	res.Decoded = decoded

	formatted, err := FormatJSON(decoded, opts.Indent)
	if err != nil {
		return res, err
	}
	res.Formatted = formatted
	return res, nil
}

// PercentDecode reverses URL percent-encoding the way decodeURIComponent does:
// '+' is left alone, malformed escapes and invalid UTF-8 are errors.
func PercentDecode(s string) (string, error) {
	return percentDecode(s, false)
}

// PercentDecodeStrict is PercentDecode that also rejects characters RFC 3986
// never allows unescaped, so already-decoded text is not mistaken for
// percent-encoded text.
func PercentDecodeStrict(s string) (string, error) {
	return percentDecode(s, true)
}

func percentDecode(s string, strict bool) (string, error) {
	if strict {
		if i := strings.IndexFunc(s, forbiddenInURI); i >= 0 {
			r, _ := utf8.DecodeRuneInString(s[i:])
			return "", &DecodeError{Offset: i, Reason: fmt.Sprintf("unescaped %q; the input does not look percent-encoded", r)}
		}
	}
	if i := badEscape(s); i >= 0 {
		return "", &DecodeError{Offset: i, Reason: "malformed escape sequence"}
	}
	out, err := url.PathUnescape(s)
	if err != nil {
		return "", &DecodeError{Offset: -1, Reason: err.Error()}
	}
	if !utf8.ValidString(out) {
		return "", &DecodeError{Offset: -1, Reason: "escapes do not form valid UTF-8"}
	}
	return out, nil
}

// forbiddenInURI reports characters outside RFC 3986 that any encoder escapes.
// Non-ASCII letters are allowed so pasted IRIs still decode.
func forbiddenInURI(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '"', '<', '>', '\\', '^', '`', '{', '|', '}':
		return true
	}
	return r < 0x20 || r == 0x7f
}

// badEscape returns the offset of the first '%' not followed by two hex digits.
func badEscape(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			continue
		}
		if i+2 >= len(s) || !isHex(s[i+1]) || !isHex(s[i+2]) {
			return i
		}
		i += 2
	}
	return -1
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// FormatJSON validates s and re-indents it, keeping object keys in their
// original order. indent <= 0 uses DefaultIndent.
func FormatJSON(s string, indent int) (string, error) {
	if indent <= 0 {
		indent = DefaultIndent
	}
	src := []byte(strings.TrimSpace(s))
	if len(src) == 0 {
		return "", &ParseError{Offset: 0, Err: errors.New("unexpected end of JSON input")}
	}

	var out bytes.Buffer
	if err := json.Indent(&out, src, "", strings.Repeat(" ", indent)); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return "", &ParseError{Offset: syntaxErr.Offset, Err: err}
		}
		return "", &ParseError{Offset: 0, Err: err}
	}
	return out.String(), nil
}
