package pattern

import (
	"gopkg.in/yaml.v3"

	"github.com/lituus-io/le-change-go/errs"
)

// Group is a named projection over a ChangeSet: a path "hits" Group
// when Matcher matches it.
type Group struct {
	Name    string
	Matcher *Matcher
}

// LoadGroups parses a YAML document whose top-level shape is a mapping
// name -> list<pattern_text> into an ordered list of Group. Key order
// is read straight off the document's yaml.Node content, since yaml.v3
// decodes maps without preserving order by default.
func LoadGroups(yamlText string, negationFirst bool) ([]Group, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(yamlText), &doc); err != nil {
		return nil, &errs.YamlError{Message: "failed to parse pattern groups", Cause: err}
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &errs.YamlError{Message: "pattern groups document must be a mapping"}
	}

	groups := make([]Group, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode := root.Content[i]
		valNode := root.Content[i+1]

		var patterns []string
		if err := valNode.Decode(&patterns); err != nil {
			return nil, &errs.YamlError{Message: "group " + keyNode.Value + " must be a list of strings", Cause: err}
		}

		specs := make([]Spec, 0, len(patterns))
		for _, p := range patterns {
			specs = append(specs, Spec{Polarity: Include, Pattern: p})
		}

		matcher, err := Compile(specs, negationFirst)
		if err != nil {
			return nil, err
		}

		groups = append(groups, Group{Name: keyNode.Value, Matcher: matcher})
	}

	return groups, nil
}

// ChangedKeys returns the names of groups that match at least one of
// paths, in group order.
func ChangedKeys(groups []Group, paths []string) []string {
	keys := make([]string, 0, len(groups))
	for _, g := range groups {
		for _, p := range paths {
			if g.Matcher.Matches(p) {
				keys = append(keys, g.Name)
				break
			}
		}
	}
	return keys
}
