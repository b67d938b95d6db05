package emit

import (
	"os"
	"path/filepath"
	"strings"
)

// OutputWriter writes projected file lists to a directory as plain
// text or JSON array files.
type OutputWriter struct{}

// WriteText joins items with sep and writes them to <dir>/<name>.txt.
func (OutputWriter) WriteText(dir, name string, items []string, sep string) error {
	path := filepath.Join(dir, name+".txt")
	return os.WriteFile(path, []byte(strings.Join(items, sep)), 0o644)
}

// WriteJSON writes FormatJSONArray(items) to <dir>/<name>.json.
func (OutputWriter) WriteJSON(dir, name string, items []string) error {
	path := filepath.Join(dir, name+".json")
	return os.WriteFile(path, []byte(FormatJSONArray(items)), 0o644)
}
