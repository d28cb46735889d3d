package structurer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_WellFormedJSON(t *testing.T) {
	result := Decode(`{"title": "Thermodynamics", "tags": ["physics", "heat"]}`)

	assert.Equal(t, "Thermodynamics", result["title"])
	assert.Equal(t, []any{"physics", "heat"}, result["tags"])
}

func TestDecode_MarkdownFences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"Bare fence", "```\n{\"title\": \"Algebra\"}\n```"},
		{"Language tag", "```json\n{\"title\": \"Algebra\"}\n```"},
		{"Unterminated fence", "```json\n{\"title\": \"Algebra\"}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Decode(tt.raw)
			assert.Equal(t, "Algebra", result["title"])
		})
	}
}

func TestDecode_ProsePreamble(t *testing.T) {
	raw := "Here is the structured note you asked for:\n{\"title\": \"Cell Biology\"}"

	result := Decode(raw)

	assert.Equal(t, "Cell Biology", result["title"])
}

func TestDecode_RawControlCharactersInStrings(t *testing.T) {
	raw := "{\"summary\": \"line one\nline two\tindented\"}"

	result := Decode(raw)

	assert.Equal(t, "line one\nline two\tindented", result["summary"])
}

func TestDecode_TruncatedMidString(t *testing.T) {
	result := Decode(`{"title": "Photosynthesis: light reac`)

	assert.Equal(t, "Photosynthesis: light reac", result["title"])
}

func TestDecode_TruncatedMidArray(t *testing.T) {
	result := Decode(`{"tags": ["biology", "plants"`)

	assert.Equal(t, []any{"biology", "plants"}, result["tags"])
}

func TestDecode_TruncatedNestedStructure(t *testing.T) {
	result := Decode(`{"sections": [{"heading": "Definitions", "content": "A derivative measures`)

	sections, ok := result["sections"].([]any)
	require.True(t, ok)
	require.Len(t, sections, 1)
	section := sections[0].(map[string]any)
	assert.Equal(t, "Definitions", section["heading"])
	assert.Equal(t, "A derivative measures", section["content"])
}

func TestDecode_TruncatedAfterComma(t *testing.T) {
	result := Decode(`{"title": "Optics",`)

	assert.Equal(t, "Optics", result["title"])
}

func TestDecode_TruncatedAfterColon(t *testing.T) {
	result := Decode(`{"title": "Optics", "summary":`)

	assert.Equal(t, "Optics", result["title"])
	assert.Nil(t, result["summary"])
}

func TestDecode_UnrecoverableInputYieldsEmptyMap(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"Empty input", ""},
		{"Whitespace only", "   \n\t  "},
		{"Plain prose", "I could not produce a structured response."},
		{"Broken beyond repair", `{{{"]]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Decode(tt.raw)
			require.NotNil(t, result)
			assert.Empty(t, result)
		})
	}
}

func TestDecodeInto_TypedTarget(t *testing.T) {
	var target struct {
		Answer string `json:"answer"`
	}

	ok := DecodeInto("```json\n{\"answer\": \"42\"}\n```", &target)

	require.True(t, ok)
	assert.Equal(t, "42", target.Answer)
}

func TestDecodeInto_ReportsFailure(t *testing.T) {
	var target struct{}

	assert.False(t, DecodeInto("no json here", &target))
}

func TestRepair_BalancedInputUnchanged(t *testing.T) {
	input := `{"a": [1, 2], "b": {"c": "d"}}`

	assert.Equal(t, input, repair(input))
}

func TestRepair_EscapedQuoteInsideString(t *testing.T) {
	// The escaped quote must not flip string state.
	result := Decode(`{"title": "The \"Golden\" Ratio", "tags": ["math"`)

	assert.Equal(t, `The "Golden" Ratio`, result["title"])
	assert.Equal(t, []any{"math"}, result["tags"])
}

func TestRepair_TrailingBackslashInString(t *testing.T) {
	// A cutoff right after a backslash would otherwise escape the
	// appended closing quote.
	result := Decode(`{"path": "C:\`)

	require.NotNil(t, result)
	_, hasPath := result["path"]
	assert.True(t, hasPath)
}
