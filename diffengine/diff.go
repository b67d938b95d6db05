// Package diffengine produces a classified ChangeSet between two
// resolved revisions by shelling `git diff --raw`, the same executor
// idiom prow/git/v2/interactor.go uses for its (unclassified)
// `Diff(head, sha)`. Using --raw instead of --name-only recovers the
// status letter, similarity score, and mode bits the classification
// rules need in one call.
package diffengine

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lituus-io/le-change-go/diag"
	"github.com/lituus-io/le-change-go/errs"
	"github.com/lituus-io/le-change-go/gitexec"
)

// ChangeKind is the classification of one path's change between base
// and head.
type ChangeKind int

const (
	Added ChangeKind = iota
	Modified
	Deleted
	Renamed
	TypeChanged
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "Added"
	case Modified:
		return "Modified"
	case Deleted:
		return "Deleted"
	case Renamed:
		return "Renamed"
	case TypeChanged:
		return "TypeChanged"
	default:
		return "Unknown"
	}
}

// Record is one changed path. For Renamed, Path is the new path and
// OldPath/Similarity are populated.
type Record struct {
	Kind       ChangeKind
	Path       string
	OldPath    string
	Similarity int
}

// ChangeSet is an ordered sequence of Record, grouped by kind in
// ChangeKind's declaration order and lexicographic by Path within each
// kind.
type ChangeSet []Record

// Paths returns every Path in the set, in order.
func (cs ChangeSet) Paths() []string {
	out := make([]string, len(cs))
	for i, r := range cs {
		out[i] = r.Path
	}
	return out
}

// Policy configures one Diff invocation.
type Policy struct {
	RenameDetectionEnabled bool
	MinSimilarity          int
	IncludeTypeChanges     bool
	SkipSameSHA            bool
}

// Diff is shorthand for DiffContext(context.Background(), exec, base, head, policy).
func Diff(exec gitexec.Executor, base, head string, policy Policy) (ChangeSet, []diag.Diagnostic, error) {
	return DiffContext(context.Background(), exec, base, head, policy)
}

// DiffContext computes the classified ChangeSet between base and head,
// both already-resolved hex revisions, aborting the underlying git
// subprocess the moment ctx is done.
func DiffContext(ctx context.Context, exec gitexec.Executor, base, head string, policy Policy) (ChangeSet, []diag.Diagnostic, error) {
	if base == head {
		if policy.SkipSameSHA {
			return ChangeSet{}, []diag.Diagnostic{diag.New(diag.CategorySkippedSameSHA, "base and head resolve to the same revision")}, nil
		}
		return ChangeSet{}, nil, nil
	}

	args := []string{"diff", "--raw", "-z", "--full-index"}
	if policy.RenameDetectionEnabled {
		sim := policy.MinSimilarity
		if sim <= 0 {
			sim = 50
		}
		args = append(args, fmt.Sprintf("-M%d%%", sim))
	} else {
		args = append(args, "--no-renames")
	}
	args = append(args, base, head)

	out, err := exec.RunContext(ctx, args...)
	if err != nil {
		return nil, nil, &errs.GitError{Message: fmt.Sprintf("diff %s..%s failed", base, head), Cause: fmt.Errorf("%s", string(out))}
	}

	records, addedBlobs, deletedBlobs, err := parseRaw(out, policy.IncludeTypeChanges)
	if err != nil {
		return nil, nil, &errs.GitError{Message: "failed to parse diff output", Cause: err}
	}

	var diagnostics []diag.Diagnostic
	if !policy.RenameDetectionEnabled && suppressedRenameExists(addedBlobs, deletedBlobs) {
		diagnostics = append(diagnostics, diag.New(diag.CategoryRenameDetectionOff,
			"rename detection is disabled; at least one deleted path's content reappeared under an added path and surfaced as delete+add instead of a rename"))
	}

	return order(records), diagnostics, nil
}

// suppressedRenameExists reports whether any deleted path's blob also
// appears as an added path's blob, the exact signal `-M` rename
// detection would have turned into a single Renamed record had
// RenameDetectionEnabled been true.
func suppressedRenameExists(addedBlobs, deletedBlobs map[string]string) bool {
	addedSHAs := make(map[string]struct{}, len(addedBlobs))
	for _, sha := range addedBlobs {
		addedSHAs[sha] = struct{}{}
	}
	for _, sha := range deletedBlobs {
		if _, ok := addedSHAs[sha]; ok {
			return true
		}
	}
	return false
}

func isZeroSHA(sha string) bool {
	for _, c := range sha {
		if c != '0' {
			return false
		}
	}
	return true
}

func parseRaw(out []byte, includeTypeChanges bool) (records []Record, addedBlobs, deletedBlobs map[string]string, err error) {
	tokens := splitNUL(out)
	addedBlobs = make(map[string]string)
	deletedBlobs = make(map[string]string)

	i := 0
	for i < len(tokens) {
		meta := tokens[i]
		if meta == "" {
			i++
			continue
		}
		if !strings.HasPrefix(meta, ":") {
			return nil, nil, nil, fmt.Errorf("unexpected token %q in raw diff output", meta)
		}
		i++

		fields := strings.Fields(meta)
		if len(fields) < 5 {
			return nil, nil, nil, fmt.Errorf("malformed raw diff metadata %q", meta)
		}
		oldSHA, newSHA := fields[2], fields[3]
		statusField := fields[4]
		status := statusField[0:1]

		switch status {
		case "R", "C":
			if i+1 >= len(tokens) {
				return nil, nil, nil, fmt.Errorf("missing rename paths after %q", meta)
			}
			oldPath := tokens[i]
			newPath := tokens[i+1]
			i += 2

			sim := 0
			if len(statusField) > 1 {
				if n, err := strconv.Atoi(statusField[1:]); err == nil {
					sim = n
				}
			}
			if status == "R" {
				records = append(records, Record{Kind: Renamed, Path: newPath, OldPath: oldPath, Similarity: sim})
			} else {
				records = append(records, Record{Kind: Added, Path: newPath})
			}
		default:
			if i >= len(tokens) {
				return nil, nil, nil, fmt.Errorf("missing path after %q", meta)
			}
			path := tokens[i]
			i++

			kind, ok := classify(status, includeTypeChanges)
			if !ok {
				continue
			}
			records = append(records, Record{Kind: kind, Path: path})

			switch status {
			case "A":
				if !isZeroSHA(newSHA) {
					addedBlobs[path] = newSHA
				}
			case "D":
				if !isZeroSHA(oldSHA) {
					deletedBlobs[path] = oldSHA
				}
			}
		}
	}

	return records, addedBlobs, deletedBlobs, nil
}

func classify(status string, includeTypeChanges bool) (ChangeKind, bool) {
	switch status {
	case "A":
		return Added, true
	case "M":
		return Modified, true
	case "D":
		return Deleted, true
	case "T":
		if includeTypeChanges {
			return TypeChanged, true
		}
		return Modified, true
	case "U":
		return Modified, true
	default:
		return Modified, false
	}
}

func splitNUL(out []byte) []string {
	parts := bytes.Split(out, []byte{0})
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		tokens = append(tokens, string(p))
	}
	if len(tokens) > 0 && tokens[len(tokens)-1] == "" {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

var kindOrder = []ChangeKind{Added, Modified, Deleted, Renamed, TypeChanged}

func order(records []Record) ChangeSet {
	byKind := make(map[ChangeKind][]Record, len(kindOrder))
	for _, r := range records {
		byKind[r.Kind] = append(byKind[r.Kind], r)
	}

	out := make(ChangeSet, 0, len(records))
	for _, k := range kindOrder {
		group := byKind[k]
		sort.Slice(group, func(i, j int) bool { return group[i].Path < group[j].Path })
		out = append(out, group...)
	}
	return out
}
