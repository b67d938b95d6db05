// Package pathutil normalizes repository-relative paths so the rest of
// the pipeline can reason about them without caring which platform
// produced the underlying git output.
package pathutil

import "strings"

// ToPOSIX replaces every backslash with a forward slash.
func ToPOSIX(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// NormalizeSeparator converts p to use sep as its only separator.
// sep is expected to be the value returned by Separator.
func NormalizeSeparator(p, sep string) string {
	if sep == "/" {
		return ToPOSIX(p)
	}
	return strings.ReplaceAll(ToPOSIX(p), "/", sep)
}

// HasSeparator reports whether p contains a forward or backward slash.
func HasSeparator(p string) bool {
	return strings.ContainsAny(p, `/\`)
}

// Components splits p on runs of '/' or '\' and drops empty segments.
func Components(p string) []string {
	return strings.FieldsFunc(p, func(r rune) bool {
		return r == '/' || r == '\\'
	})
}

// Separator returns the platform path separator as a one-character
// string. The engine always diffs and matches against forward-slash
// normalized paths internally; this is exposed only for callers that
// asked for NormalizeSeparator's target.
func Separator() string {
	return platformSeparator
}
