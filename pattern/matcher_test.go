package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCompile(t *testing.T, specs []Spec, negationFirst bool) *Matcher {
	t.Helper()
	m, err := Compile(specs, negationFirst)
	require.NoError(t, err)
	return m
}

func TestMatcherEmptyIncludeMatchesAll(t *testing.T) {
	m := mustCompile(t, nil, false)
	assert.True(t, m.Matches("src/main.py"))
	assert.True(t, m.Matches("anything"))
}

func TestMatcherIncludeOnly(t *testing.T) {
	m := mustCompile(t, []Spec{{Include, "**/*.py"}}, false)
	assert.True(t, m.Matches("src/main.py"))
	assert.False(t, m.Matches("src/main.rs"))
}

func TestMatcherLastMatchWins(t *testing.T) {
	m := mustCompile(t, []Spec{
		{Include, "**/*.py"},
		{Exclude, "**/vendor/**"},
	}, false)
	assert.True(t, m.Matches("src/main.py"))
	assert.False(t, m.Matches("vendor/lib/main.py"))
}

func TestMatcherEmptyExcludeNeverRemoves(t *testing.T) {
	m := mustCompile(t, []Spec{{Include, "**/*.py"}}, false)
	assert.True(t, m.Matches("src/main.py"))
}

func TestMatcherNegationMark(t *testing.T) {
	m := mustCompile(t, []Spec{
		{Include, "**/*.py"},
		{Include, "!**/secret.py"},
	}, false)
	assert.True(t, m.Matches("src/main.py"))
	assert.False(t, m.Matches("src/secret.py"))
}

func TestMatcherNegationFirst(t *testing.T) {
	m := mustCompile(t, []Spec{
		{Exclude, "**/vendor/**"},
		{Include, "**/*.py"},
	}, true)
	assert.True(t, m.Matches("src/main.py"))
	assert.False(t, m.Matches("vendor/lib/main.py"))
	assert.False(t, m.Matches("vendor/lib/main.rs"))
}

func TestMatcherAnchored(t *testing.T) {
	m := mustCompile(t, []Spec{{Include, "/build/*.log"}}, false)
	assert.True(t, m.Matches("build/out.log"))
	assert.False(t, m.Matches("sub/build/out.log"))
}

func TestMatcherTrailingSlashDirectory(t *testing.T) {
	m := mustCompile(t, []Spec{{Include, "dist/"}}, false)
	assert.True(t, m.Matches("dist/bundle.js"))
	assert.False(t, m.Matches("distinct/bundle.js"))
}

func TestMatcherInvalidPattern(t *testing.T) {
	_, err := Compile([]Spec{{Include, "["}}, false)
	assert.Error(t, err)
}

func TestMatcherFilterPreservesOrder(t *testing.T) {
	m := mustCompile(t, []Spec{{Include, "**/*.py"}}, false)
	in := []string{"b.py", "a.rs", "a.py"}
	assert.Equal(t, []string{"b.py", "a.py"}, m.Filter(in))
}

func TestMatcherPartition(t *testing.T) {
	m := mustCompile(t, []Spec{{Include, "**/*.py"}}, false)
	in := []string{"b.py", "a.rs", "a.py"}
	matched, unmatched := m.Partition(in)
	assert.Equal(t, []string{"b.py", "a.py"}, matched)
	assert.Equal(t, []string{"a.rs"}, unmatched)

	all := append(append([]string{}, matched...), unmatched...)
	assert.ElementsMatch(t, in, all)
}
