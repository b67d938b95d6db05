// Package pattern compiles gitignore-style glob lists into a
// deterministic matcher with include/exclude layering, matching the
// evaluation rules a RegexpChangeMatcher applies over a compiled
// regexp, generalized here to gitignore globs via doublestar.
package pattern

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/lituus-io/le-change-go/errs"
	"github.com/lituus-io/le-change-go/pathutil"
)

// Polarity is the sign of one pattern rule.
type Polarity int

const (
	Include Polarity = iota
	Exclude
)

// Spec is one (polarity, pattern_text) rule in an ordered pattern
// list. A leading "!" on pattern text flips polarity from Include to
// Exclude (or vice versa) the same way a gitignore "!" re-includes a
// previously excluded path; callers normally express negation this way
// rather than setting Polarity directly.
type Spec struct {
	Polarity Polarity
	Pattern  string
}

type rule struct {
	polarity Polarity
	anchored bool
	dirOnly  bool
	glob     string
}

// Matcher is a compiled, ordered pattern list. It is safe for
// concurrent read-only use once compiled.
type Matcher struct {
	rules        []rule
	negationFirst bool
	hasInclude   bool
}

// Compile parses specs into a Matcher. negationFirst selects the
// evaluation order documented in spec §4.2: when true, any matching
// exclude rejects the path before includes are considered at all.
func Compile(specs []Spec, negationFirst bool) (*Matcher, error) {
	m := &Matcher{negationFirst: negationFirst}
	for _, s := range specs {
		polarity := s.Polarity
		text := s.Pattern
		if strings.HasPrefix(text, "!") {
			text = text[1:]
			if polarity == Include {
				polarity = Exclude
			} else {
				polarity = Include
			}
		}
		r, err := compileOne(polarity, text)
		if err != nil {
			return nil, err
		}
		if r.polarity == Include {
			m.hasInclude = true
		}
		m.rules = append(m.rules, r)
	}
	return m, nil
}

func compileOne(polarity Polarity, text string) (rule, error) {
	if text == "" {
		return rule{}, &errs.ConfigError{Message: "empty pattern"}
	}
	g := pathutil.ToPOSIX(text)

	anchored := strings.HasPrefix(g, "/")
	if anchored {
		g = strings.TrimPrefix(g, "/")
	}

	dirOnly := strings.HasSuffix(g, "/") && g != "/"
	if dirOnly {
		g = strings.TrimSuffix(g, "/")
	}

	if !doublestar.ValidatePattern(g) {
		return rule{}, &errs.ConfigError{Message: "invalid pattern: " + text}
	}

	return rule{polarity: polarity, anchored: anchored, dirOnly: dirOnly, glob: g}, nil
}

func (r rule) matches(path string) bool {
	candidates := []string{r.glob}
	if !r.anchored {
		candidates = append(candidates, "**/"+r.glob)
	}
	if r.dirOnly {
		extra := make([]string, 0, len(candidates))
		for _, c := range candidates {
			extra = append(extra, c+"/**")
		}
		candidates = append(candidates, extra...)
	}
	for _, c := range candidates {
		if ok, err := doublestar.Match(c, path); err == nil && ok {
			return true
		}
	}
	return false
}

// Matches reports whether p is matched by the compiled pattern list,
// per the evaluation policy selected at Compile time.
func (m *Matcher) Matches(p string) bool {
	path := pathutil.ToPOSIX(p)

	if m.negationFirst {
		for _, r := range m.rules {
			if r.polarity == Exclude && r.matches(path) {
				return false
			}
		}
		if !m.hasInclude {
			return true
		}
		for _, r := range m.rules {
			if r.polarity == Include && r.matches(path) {
				return true
			}
		}
		return false
	}

	matchedInclude := !m.hasInclude
	for _, r := range m.rules {
		if r.matches(path) {
			matchedInclude = r.polarity == Include
		}
	}
	return matchedInclude
}

// Filter returns the subset of paths that Matches, preserving order.
func (m *Matcher) Filter(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if m.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// Partition splits paths into matched and unmatched, each preserving
// input order, such that matched ∪ unmatched == paths and
// matched ∩ unmatched == ∅.
func (m *Matcher) Partition(paths []string) (matched, unmatched []string) {
	for _, p := range paths {
		if m.Matches(p) {
			matched = append(matched, p)
		} else {
			unmatched = append(unmatched, p)
		}
	}
	return matched, unmatched
}
