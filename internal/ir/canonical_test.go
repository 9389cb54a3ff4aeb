package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"number value", Number(42), "42"},
		{"fraction", Number(0.5), "0.5"},
		{"string value", StringValue("hi"), `"hi"`},
		{"nil", nil, "null"},
		{"bool", true, "true"},
		{"empty array", []int{}, "[]"},
		{"empty object", map[string]int{}, "{}"},
		{"no html escaping", "<a>&", `"<a>&"`},
		{"nfc normalized", "e\u0301", "\"\u00e9\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := map[string]any{
		"z": map[string]int{"b": 1, "a": 2},
		"a": 3,
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":3,"z":{"a":2,"b":1}}`, string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+10000 encodes as a surrogate pair starting 0xD800, below U+E000.
	obj := map[string]int{
		"\uE000":     1,
		"\U00010000": 2,
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"\uE000\":1}", string(result))
}

func TestMarshalCanonicalStructTags(t *testing.T) {
	d := PatternMatch("n")
	result, err := MarshalCanonical(d)
	require.NoError(t, err)
	assert.Equal(t, `{"pattern":"n","type":"PatternMatch"}`, string(result))

	lit := Literal(Number(2))
	result, err = MarshalCanonical(lit)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"Literal","value":2}`, string(result))
}

func TestMarshalCanonicalUnsupported(t *testing.T) {
	_, err := MarshalCanonical(make(chan int))
	assert.Error(t, err)
}

// ============================================================================
// Hashes
// ============================================================================

func TestOperationHashDeterminism(t *testing.T) {
	op := &Operation{
		ID:       "double",
		Inputs:   []PatternID{"a"},
		Patterns: map[PatternID]Pattern{"a": {ID: "a"}},
		DemoSemantics: &DemoSemantics{
			Actions: []Action{{ID: "0", Operation: "increment", Inputs: []Descriptor{PatternMatch("a")}}},
		},
	}

	h1, err := OperationHash(op)
	require.NoError(t, err)
	h2, err := OperationHash(op.Clone())
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")

	edited := op.Clone()
	edited.DemoSemantics.Actions = append(edited.DemoSemantics.Actions,
		Action{ID: "1", Operation: "increment", Inputs: []Descriptor{PatternMatch("a")}})
	h3, err := OperationHash(edited)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3, "every edit changes the hash")
}

func TestHashDomainSeparation(t *testing.T) {
	data := map[string]string{"id": "x"}

	traceHash, err := TraceHash(data)
	require.NoError(t, err)
	assert.NotEqual(t, hashWithDomain(DomainOperation, []byte(`{"id":"x"}`)), traceHash)
	assert.Equal(t, hashWithDomain(DomainTrace, []byte(`{"id":"x"}`)), traceHash)
}
