package cell

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeysAndEncodesCells(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{
		"b":    Number(2),
		"a":    Text("<x>"),
		"date": NewDate(2020, 1, 2),
		"none": Empty,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"<x>","b":2,"date":"2020-01-02","none":null}`, string(got))
}

func TestMarshalCanonical_Numbers(t *testing.T) {
	got, err := MarshalCanonical([]any{Number(1.5), Number(10), int64(3), math.Copysign(0, -1)})
	require.NoError(t, err)
	assert.Equal(t, `[1.5,10,3,0]`, string(got))

	_, err = MarshalCanonical(math.Inf(1))
	assert.Error(t, err)
}

func TestMarshalCanonical_NFC(t *testing.T) {
	decomposed := "e\u0301"
	composed := "\u00e9"

	a, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	b, err := MarshalCanonical(composed)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMarshalCanonical_LineSeparators(t *testing.T) {
	got, err := MarshalCanonical("a\u2028b")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\"", string(got))

	got, err = MarshalCanonical(`a\u2028b`)
	require.NoError(t, err)
	assert.Equal(t, `"a\\u2028b"`, string(got))
}

func TestMarshalCanonical_UTF16Order(t *testing.T) {
	// U+10000 encodes as a surrogate pair (0xD800...) which sorts before U+FFFD in UTF-16.
	got, err := MarshalCanonical(map[string]any{"\ufffd": 1, "\U00010000": 2})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"\ufffd\":1}", string(got))
}

func TestFingerprint_Deterministic(t *testing.T) {
	v := map[string]any{"x": []Value{Number(1), Empty}}
	a, err := Fingerprint(DomainTable, v)
	require.NoError(t, err)
	b, err := Fingerprint(DomainTable, v)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	c, err := Fingerprint(DomainSheetSet, v)
	require.NoError(t, err)
	assert.NotEqual(t, a, c, "domains separate hashes")
}
