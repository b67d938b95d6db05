// Package project applies the output-shaping Config options to a
// filtered ChangeSet: directory-name projection, separator
// normalization, rename-splitting, and pattern-group hit tracking.
package project

import (
	"sort"

	"github.com/lituus-io/le-change-go/diffengine"
	"github.com/lituus-io/le-change-go/pathutil"
	"github.com/lituus-io/le-change-go/pattern"
)

// Options mirrors the subset of Config that affects projection.
type Options struct {
	DirNames                   bool
	UsePOSIXPathSeparator       bool
	OutputRenamedAsDeletedAdded bool
}

// Result is the projected view of a ChangeSet, ready to be assembled
// into the caller-facing result type.
type Result struct {
	Set                 diffengine.ChangeSet
	RenamedFilesMapping []RenamePair
}

// RenamePair is one old->new rename entry, kept as an ordered pair
// (rather than a map) so mapping order matches ChangeSet order.
type RenamePair struct {
	Old string
	New string
}

// Apply projects cs per opts: each Renamed record is first split into
// Deleted+Added when requested, then every record gets directory-name
// projection and separator normalization, and duplicate directory
// names are dropped.
func Apply(cs diffengine.ChangeSet, opts Options) Result {
	out := make(diffengine.ChangeSet, 0, len(cs))
	var renames []RenamePair

	for _, r := range cs {
		if r.Kind == diffengine.Renamed {
			renames = append(renames, RenamePair{Old: r.OldPath, New: r.Path})
		}
	}

	for _, r := range cs {
		rec := r

		if opts.OutputRenamedAsDeletedAdded && rec.Kind == diffengine.Renamed {
			old := rec
			old.Kind = diffengine.Deleted
			old.Path = rec.OldPath
			old.OldPath = ""
			added := rec
			added.Kind = diffengine.Added
			added.OldPath = ""
			out = append(out, projectOne(old, opts), projectOne(added, opts))
			continue
		}

		out = append(out, projectOne(rec, opts))
	}

	if opts.DirNames {
		out = dedupeDirNames(out)
	}

	if opts.OutputRenamedAsDeletedAdded {
		renames = nil
	}

	return Result{Set: reorder(out), RenamedFilesMapping: renames}
}

func projectOne(r diffengine.Record, opts Options) diffengine.Record {
	if opts.DirNames {
		r.Path = parentDir(r.Path)
		if r.OldPath != "" {
			r.OldPath = parentDir(r.OldPath)
		}
	}
	if opts.UsePOSIXPathSeparator {
		r.Path = pathutil.ToPOSIX(r.Path)
		if r.OldPath != "" {
			r.OldPath = pathutil.ToPOSIX(r.OldPath)
		}
	}
	return r
}

func parentDir(p string) string {
	posix := pathutil.ToPOSIX(p)
	idx := -1
	for i := len(posix) - 1; i >= 0; i-- {
		if posix[i] == '/' {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ""
	}
	return posix[:idx]
}

// dedupeDirNames deduplicates Path within each kind, preserving first
// appearance order, since dir_names projection routinely collapses
// many files in one directory to a single entry.
func dedupeDirNames(cs diffengine.ChangeSet) diffengine.ChangeSet {
	seen := make(map[diffengine.ChangeKind]map[string]struct{})
	out := make(diffengine.ChangeSet, 0, len(cs))
	for _, r := range cs {
		if seen[r.Kind] == nil {
			seen[r.Kind] = make(map[string]struct{})
		}
		if _, ok := seen[r.Kind][r.Path]; ok {
			continue
		}
		seen[r.Kind][r.Path] = struct{}{}
		out = append(out, r)
	}
	return out
}

var kindOrder = []diffengine.ChangeKind{
	diffengine.Added, diffengine.Modified, diffengine.Deleted,
	diffengine.Renamed, diffengine.TypeChanged,
}

// reorder restores kind-then-lexicographic ordering after splitting
// renames may have appended Added/Deleted records out of their group.
func reorder(cs diffengine.ChangeSet) diffengine.ChangeSet {
	byKind := make(map[diffengine.ChangeKind][]diffengine.Record, len(kindOrder))
	for _, r := range cs {
		byKind[r.Kind] = append(byKind[r.Kind], r)
	}
	out := make(diffengine.ChangeSet, 0, len(cs))
	for _, k := range kindOrder {
		group := byKind[k]
		sort.SliceStable(group, func(i, j int) bool { return group[i].Path < group[j].Path })
		out = append(out, group...)
	}
	return out
}

// ChangedKeys returns the pattern-group names hit by at least one path
// in cs.
func ChangedKeys(groups []pattern.Group, cs diffengine.ChangeSet) []string {
	return pattern.ChangedKeys(groups, cs.Paths())
}
