package emit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeJSONRoundTrip(t *testing.T) {
	for _, s := range []string{
		`hello "world"`,
		"line1\nline2",
		"tab\tseparated",
		`back\slash`,
		"carriage\rreturn",
		"plain",
	} {
		escaped := EscapeJSON(s)
		var decoded string
		require.NoError(t, json.Unmarshal([]byte(`"`+escaped+`"`), &decoded))
		assert.Equal(t, s, decoded)
	}
}

func TestSafeOutputEscape(t *testing.T) {
	assert.Equal(t, "100%25", SafeOutputEscape("100%"))
	assert.Equal(t, "a%0Ab", SafeOutputEscape("a\nb"))
	assert.Equal(t, "a%0Db", SafeOutputEscape("a\rb"))
	assert.Equal(t, "plain", SafeOutputEscape("plain"))
}

func TestFormatJSONArrayEmpty(t *testing.T) {
	assert.Equal(t, "[]", FormatJSONArray(nil))
	assert.Equal(t, "[]", FormatJSONArray([]string{}))
}

func TestFormatJSONArray(t *testing.T) {
	assert.Equal(t, `["a","b"]`, FormatJSONArray([]string{"a", "b"}))
}

func TestFormatMatrixEmpty(t *testing.T) {
	assert.Equal(t, `{"include":[]}`, FormatMatrix(nil))
}

func TestFormatMatrix(t *testing.T) {
	assert.Equal(t, `{"include":[{"value":"a"},{"value":"b"}]}`, FormatMatrix([]string{"a", "b"}))
}

func TestOutputWriterWriteText(t *testing.T) {
	dir := t.TempDir()
	w := OutputWriter{}
	require.NoError(t, w.WriteText(dir, "changed", []string{"a", "b"}, " "))

	content, err := os.ReadFile(filepath.Join(dir, "changed.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a b", string(content))
}

func TestOutputWriterWriteJSON(t *testing.T) {
	dir := t.TempDir()
	w := OutputWriter{}
	require.NoError(t, w.WriteJSON(dir, "changed", []string{"a", "b"}))

	content, err := os.ReadFile(filepath.Join(dir, "changed.json"))
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, string(content))
}

func TestOutputWriterMissingDirectory(t *testing.T) {
	w := OutputWriter{}
	err := w.WriteText(filepath.Join(t.TempDir(), "does-not-exist"), "changed", []string{"a"}, " ")
	assert.Error(t, err)
}
