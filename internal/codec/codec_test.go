package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_RoundTrip(t *testing.T) {
	res, err := Decode("%7B%22a%22%3A1%7D", Options{})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, res.Decoded)
	assert.Equal(t, "{\n    \"a\": 1\n}", res.Formatted)

	_, err = Decode(res.Formatted, Options{})
	require.Error(t, err)
	assert.Equal(t, KindPercentEncoding, Classify(err))
	assert.NotEqual(t, KindJSONSyntax, Classify(err))
}

func TestDecode_PreservesKeyOrder(t *testing.T) {
	res, err := Decode("%7B%22z%22%3A1%2C%22a%22%3A%5Btrue%2Cnull%5D%7D", Options{})
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"z\": 1,\n    \"a\": [\n        true,\n        null\n    ]\n}", res.Formatted)
}

func TestFormatJSON_KeepsTokensAsWritten(t *testing.T) {
	out, err := FormatJSON(`{"a":1.0,"a":1e2,"s":"\u00e9"}`, 4)
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"a\": 1.0,\n    \"a\": 1e2,\n    \"s\": \"\\u00e9\"\n}", out)
}

func TestDecode_MalformedJSONKeepsDecodedText(t *testing.T) {
	res, err := Decode("%7Bbad%7D", Options{})
	require.Error(t, err)
	assert.Equal(t, KindJSONSyntax, Classify(err))
	assert.Equal(t, "{bad}", res.Decoded)
	assert.Empty(t, res.Formatted)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, int64(2), parseErr.Offset)
}

func TestDecode_CustomIndent(t *testing.T) {
	res, err := Decode("%5B1%5D", Options{Indent: 2})
	require.NoError(t, err)
	assert.Equal(t, "[\n  1\n]", res.Formatted)
}

func TestDecode_LenientAcceptsPlainJSON(t *testing.T) {
	res, err := Decode(`{"a": "b c"}`, Options{Lenient: true})
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"a\": \"b c\"\n}", res.Formatted)
}

func TestPercentDecode(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"plain", "abc", "abc", false},
		{"plus kept", "a+b", "a+b", false},
		{"utf8", "%ED%95%9C%EA%B8%80", "한글", false},
		{"lowercase hex", "%7b%7d", "{}", false},
		{"truncated escape", "%7", "", true},
		{"bad hex", "%zz", "", true},
		{"lone percent", "100%", "", true},
		{"invalid utf8", "%FF", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PercentDecode(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, KindPercentEncoding, Classify(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPercentDecodeStrict_RejectsRawStructure(t *testing.T) {
	for _, in := range []string{"{}", `"x"`, "a b", "line\nbreak", "a|b"} {
		_, err := PercentDecodeStrict(in)
		assert.Error(t, err, in)
	}
	got, err := PercentDecodeStrict("%7B%7D")
	require.NoError(t, err)
	assert.Equal(t, "{}", got)
}

func TestDecodeError_ReportsOffset(t *testing.T) {
	_, err := PercentDecode("ab%G1")
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, 2, decodeErr.Offset)
}

func TestFormatJSON_Errors(t *testing.T) {
	for _, in := range []string{"", "   ", "{", "1 2", "{'a':1}"} {
		_, err := FormatJSON(in, 4)
		require.Error(t, err, in)
		assert.Equal(t, KindJSONSyntax, Classify(err), in)
	}
}

func TestMessage_DistinguishesKinds(t *testing.T) {
	_, decodeErr := Decode("%zz", Options{})
	_, parseErr := Decode("%7Bbad%7D", Options{})

	dm := Message(decodeErr)
	pm := Message(parseErr)
	um := Message(assert.AnError)

	assert.Contains(t, dm, "percent-encoding")
	assert.Contains(t, pm, "not valid JSON")
	assert.True(t, strings.HasPrefix(um, "Decoding failed"))
	assert.Equal(t, KindUnknown, Classify(assert.AnError))
	assert.Empty(t, Message(nil))
}

func TestToYAML(t *testing.T) {
	out, err := ToYAML(`{"name":"flow","tags":["a","b"],"flag":"true","n":1}`)
	require.NoError(t, err)
	assert.Contains(t, out, "name: flow\n")
	assert.Contains(t, out, "tags:\n")
	assert.Contains(t, out, "- a\n")
	assert.Contains(t, out, `flag: "true"`)
	assert.Contains(t, out, "n: 1\n")
	assert.Less(t, strings.Index(out, "name"), strings.Index(out, "tags"))
}
