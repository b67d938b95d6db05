package lechange

import (
	"fmt"

	"github.com/lituus-io/le-change-go/diag"
	"github.com/lituus-io/le-change-go/project"
	"github.com/lituus-io/le-change-go/workflow"
)

// RenamePair is one old->new rename entry.
type RenamePair = project.RenamePair

// RebuildReason explains why one file was added to FilesToRebuild.
type RebuildReason = workflow.RebuildReason

// Diagnostic is a non-fatal, categorized note attached to a result.
type Diagnostic = diag.Diagnostic

// ChangedFiles is the immutable result of one GetChangedFiles call.
// Once constructed it is never mutated; pattern matchers compiled for
// the call that produced it are not retained.
type ChangedFiles struct {
	AllChanged  []string
	Added       []string
	Modified    []string
	Deleted     []string
	Renamed     []RenamePair
	TypeChanged []string

	AllChangedFilesCount int
	AddedFilesCount      int
	ModifiedFilesCount   int
	DeletedFilesCount    int
	RenamedFilesCount    int
	TypeChangedFilesCount int

	AnyAdded       bool
	AnyModified    bool
	AnyDeleted     bool
	AnyRenamed     bool
	AnyTypeChanged bool
	AnyChanged     bool

	RenamedFilesMapping map[string]string
	ChangedKeys         []string

	FilesToRebuild []string
	FilesToSkip    []string
	RebuildReasons []RebuildReason
	FailedJobs     []string
	SuccessfulJobs []string

	Diagnostics []Diagnostic
}

// String renders a short debug representation, matching the
// original_source test suite's expectation that repr(result) names
// the type.
func (cf *ChangedFiles) String() string {
	return fmt.Sprintf("ChangedFiles(all_changed_files_count=%d)", cf.AllChangedFilesCount)
}

func dedupPreserveOrder(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func buildChangedFiles(
	added, modified, deleted, typeChanged []string,
	renamed []RenamePair,
	renamedMapping map[string]string,
	changedKeys []string,
	corr workflow.Result,
	diagnostics []Diagnostic,
) *ChangedFiles {
	renamedProjected := make([]string, 0, len(renamed))
	for _, r := range renamed {
		renamedProjected = append(renamedProjected, r.New)
	}

	all := make([]string, 0, len(added)+len(modified)+len(deleted)+len(renamedProjected)+len(typeChanged))
	all = append(all, added...)
	all = append(all, modified...)
	all = append(all, deleted...)
	all = append(all, renamedProjected...)
	all = append(all, typeChanged...)
	all = dedupPreserveOrder(all)

	cf := &ChangedFiles{
		AllChanged:  all,
		Added:       added,
		Modified:    modified,
		Deleted:     deleted,
		Renamed:     renamed,
		TypeChanged: typeChanged,

		AllChangedFilesCount:  len(all),
		AddedFilesCount:       len(added),
		ModifiedFilesCount:    len(modified),
		DeletedFilesCount:     len(deleted),
		RenamedFilesCount:     len(renamed),
		TypeChangedFilesCount: len(typeChanged),

		AnyAdded:       len(added) > 0,
		AnyModified:    len(modified) > 0,
		AnyDeleted:     len(deleted) > 0,
		AnyRenamed:     len(renamed) > 0,
		AnyTypeChanged: len(typeChanged) > 0,
		AnyChanged:     len(all) > 0,

		RenamedFilesMapping: renamedMapping,
		ChangedKeys:         changedKeys,

		FilesToRebuild: corr.FilesToRebuild,
		FilesToSkip:    corr.FilesToSkip,
		RebuildReasons: corr.RebuildReasons,
		FailedJobs:     corr.FailedJobs,
		SuccessfulJobs: corr.SuccessfulJobs,

		Diagnostics: diagnostics,
	}
	return cf
}
