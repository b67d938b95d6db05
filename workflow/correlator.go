package workflow

import (
	"sort"

	"github.com/lituus-io/le-change-go/pattern"
)

// ScopeResolver maps a Job to the pattern.Matcher describing which
// files it implicates. Returning ok=false means "no explicit scope",
// which the Correlator treats as implicating every changed file, per
// the job-to-file-scope heuristic spec §9(a) leaves to the caller.
type ScopeResolver func(job Job) (matcher *pattern.Matcher, ok bool)

// Flags configures one correlation pass.
type Flags struct {
	SkipSuccessfulFiles bool
}

// Result is the output of correlating runs against a changed-file set.
type Result struct {
	FilesToRebuild []string
	FilesToSkip    []string
	RebuildReasons []RebuildReason
	FailedJobs     []string
	SuccessfulJobs []string
}

// Correlate implements spec §4.7's algorithm: a failed-job pass adds
// implicated files to files_to_rebuild, an optional success pass adds
// implicated files to files_to_skip, and disjointness is enforced last
// (rebuild wins).
func Correlate(changedPaths []string, runs []Run, flags Flags, scope ScopeResolver) Result {
	if scope == nil {
		scope = func(Job) (*pattern.Matcher, bool) { return nil, false }
	}

	rebuild := make(map[string]struct{})
	skip := make(map[string]struct{})
	var reasons []RebuildReason
	failedJobs := make(map[string]struct{})
	successfulJobs := make(map[string]struct{})

	implicated := func(job Job) []string {
		if matcher, ok := scope(job); ok {
			return matcher.Filter(changedPaths)
		}
		return changedPaths
	}

	jobKey := func(run Run, job Job) string {
		return run.Name + "/" + job.Name
	}

	// Failed-job pass.
	for _, run := range runs {
		for _, job := range run.Jobs {
			if !IsTerminalFailure(job.Conclusion) {
				continue
			}
			failedJobs[jobKey(run, job)] = struct{}{}
			for _, file := range implicated(job) {
				if _, already := rebuild[file]; already {
					continue
				}
				rebuild[file] = struct{}{}
				reasons = append(reasons, RebuildReason{
					File:        file,
					Kind:        ReasonFailedJob,
					FailedRunID: run.ID,
					JobName:     job.Name,
				})
			}
		}
	}

	// Success pass.
	if flags.SkipSuccessfulFiles {
		for _, run := range runs {
			for _, job := range run.Jobs {
				if job.Conclusion != ConclusionSuccess {
					continue
				}
				successfulJobs[jobKey(run, job)] = struct{}{}
				for _, file := range implicated(job) {
					if _, rebuilding := rebuild[file]; rebuilding {
						continue
					}
					skip[file] = struct{}{}
				}
			}
		}
	}

	// Disjointness enforcement (I1): rebuild wins.
	for file := range rebuild {
		delete(skip, file)
	}

	return Result{
		FilesToRebuild: sortedKeys(rebuild),
		FilesToSkip:    sortedKeys(skip),
		RebuildReasons: reasons,
		FailedJobs:     sortedKeys(failedJobs),
		SuccessfulJobs: sortedKeys(successfulJobs),
	}
}

func sortedKeys(m map[string]struct{}) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
