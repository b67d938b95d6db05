package lechange

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lituus-io/le-change-go/diag"
	"github.com/lituus-io/le-change-go/diffengine"
	"github.com/lituus-io/le-change-go/errs"
	"github.com/lituus-io/le-change-go/pattern"
	"github.com/lituus-io/le-change-go/project"
	"github.com/lituus-io/le-change-go/repo"
	"github.com/lituus-io/le-change-go/workflow"
)

const (
	envRepository = "CI_REPOSITORY"
	envToken      = "CI_TOKEN"
)

// Detector is bound to one repository path and reusable across many
// Config calls, the same shape examples/basic_detection.py's
// ChangeDetector(".") gives the Python binding.
type Detector struct {
	handle *repo.Handle
	logger *logrus.Entry

	newWorkflowClient func(ctx context.Context, token, repository string, logger *logrus.Entry) (workflow.Client, error)
}

// NewDetector opens path once; the returned Detector may serve any
// number of subsequent GetChangedFiles/GetChangedFilesAsync calls (spec
// §5's "N configs... N calls" fan-out), each reentrant against the same
// handle only insofar as callers serialize calls per handle.
func NewDetector(path string, logger *logrus.Entry) (*Detector, error) {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	h, err := repo.Open(path, logger)
	if err != nil {
		return nil, err
	}
	return &Detector{
		handle: h,
		logger: logger,
		newWorkflowClient: func(ctx context.Context, token, repository string, l *logrus.Entry) (workflow.Client, error) {
			return workflow.NewClient(ctx, token, repository, l)
		},
	}, nil
}

// String renders a short debug representation, matching the
// original_source test suite's expectation that repr(detector) names
// the type.
func (d *Detector) String() string {
	return fmt.Sprintf("Detector(dir=%s)", d.handle.Dir())
}

// GetChangedFiles runs the full C4->C5->C2/C3->C7/C8->C9 pipeline
// synchronously.
func (d *Detector) GetChangedFiles(cfg *Config) (*ChangedFiles, error) {
	return d.run(context.Background(), cfg, false)
}

// GetChangedFilesAsync runs the same pipeline, suspending around the
// I/O-bound steps (revision resolution, diff, workflow network calls)
// at ctx's cancellation points instead of blocking a worker thread.
func (d *Detector) GetChangedFilesAsync(ctx context.Context, cfg *Config) (*ChangedFiles, error) {
	return d.run(ctx, cfg, true)
}

func (d *Detector) run(ctx context.Context, cfg *Config, async bool) (*ChangedFiles, error) {
	if cfg == nil {
		return nil, &errs.ConfigError{Message: "config is required"}
	}

	callID := uuid.NewString()
	logger := d.logger.WithField("call_id", callID)

	if err := ctx.Err(); err != nil {
		return nil, &errs.RuntimeError{Message: "cancelled before starting", Cause: err}
	}

	// Step 1: resolve endpoints.
	baseHex, err := d.handle.ResolveContext(ctx, cfg.Base)
	if err != nil {
		logger.WithField("diagnostics", d.handle.Diagnostics()).Warn("resolving base revision failed")
		return nil, err
	}
	headHex, err := d.handle.ResolveContext(ctx, cfg.Head)
	if err != nil {
		logger.WithField("diagnostics", d.handle.Diagnostics()).Warn("resolving head revision failed")
		return nil, err
	}
	logger = logger.WithField("base", baseHex).WithField("head", headHex)

	// Step 2: diff engine.
	policy := diffengine.Policy{
		RenameDetectionEnabled: cfg.RenameDetectionEnabled,
		MinSimilarity:          cfg.MinSimilarity,
		IncludeTypeChanges:     cfg.IncludeTypeChanges,
		SkipSameSHA:            cfg.SkipSameSHA,
	}
	rawSet, diffDiags, err := diffengine.DiffContext(ctx, d.handle.Executor(), baseHex, headHex, policy)
	if err != nil {
		logger.WithError(err).Error("diff computation failed")
		return nil, err
	}
	diagnostics := append([]diag.Diagnostic{}, diffDiags...)

	// Step 3: pattern filter.
	filtered := filterChangeSet(rawSet, cfg.compiledFiles)

	// Step 4: workflow correlation (over the filtered, pre-projection paths).
	var corr workflow.Result
	if cfg.TrackWorkflowFailures {
		var workflowDiag *diag.Diagnostic
		corr, workflowDiag = d.correlateWorkflows(ctx, cfg, baseHex, headHex, filtered.Paths(), logger)
		if workflowDiag != nil {
			diagnostics = append(diagnostics, *workflowDiag)
		}
	}

	// Step 5: project.
	projected := project.Apply(filtered, project.Options{
		DirNames:                    cfg.DirNames,
		UsePOSIXPathSeparator:       cfg.UsePOSIXPathSeparator,
		OutputRenamedAsDeletedAdded: cfg.OutputRenamedAsDeletedAdded,
	})

	renamedMapping := make(map[string]string, len(projected.RenamedFilesMapping))
	renamed := make([]RenamePair, 0, len(projected.RenamedFilesMapping))
	for _, r := range projected.RenamedFilesMapping {
		renamedMapping[r.Old] = r.New
		renamed = append(renamed, r)
	}

	var changedKeys []string
	if cfg.FilesYAML != "" {
		changedKeys = project.ChangedKeys(cfg.compiledGroups, projected.Set)
	}

	// Step 6: assemble.
	var added, modified, deleted, typeChanged []string
	for _, r := range projected.Set {
		switch r.Kind {
		case diffengine.Added:
			added = append(added, r.Path)
		case diffengine.Modified:
			modified = append(modified, r.Path)
		case diffengine.Deleted:
			deleted = append(deleted, r.Path)
		case diffengine.TypeChanged:
			typeChanged = append(typeChanged, r.Path)
		}
	}

	cf := buildChangedFiles(added, modified, deleted, typeChanged, renamed, renamedMapping, changedKeys, corr, diagnostics)
	return cf, nil
}

func filterChangeSet(cs diffengine.ChangeSet, m *pattern.Matcher) diffengine.ChangeSet {
	if m == nil {
		return cs
	}
	out := make(diffengine.ChangeSet, 0, len(cs))
	for _, r := range cs {
		if m.Matches(r.Path) {
			out = append(out, r)
		}
	}
	return out
}

// correlateWorkflows implements C7/C8: it resolves the CI provider
// client, fetches runs matching the diffed endpoints, and correlates
// their job outcomes against changedPaths. Any provider-level failure
// (missing credentials, transport failure, timeout) is downgraded to a
// diagnostic per spec §7's propagation policy, not a fatal error.
func (d *Detector) correlateWorkflows(ctx context.Context, cfg *Config, baseHex, headHex string, changedPaths []string, logger *logrus.Entry) (workflow.Result, *diag.Diagnostic) {
	token := cfg.Token
	if token == "" {
		token = os.Getenv(envToken)
	}
	repository := os.Getenv(envRepository)

	if repository == "" {
		d2 := diag.New(diag.CategoryTokenMissing, "CI_REPOSITORY is not set; workflow correlation skipped")
		return workflow.Result{}, &d2
	}
	if token == "" {
		d2 := diag.New(diag.CategoryTokenMissing, "no CI token in Config.Token or CI_TOKEN; workflow correlation skipped")
		return workflow.Result{}, &d2
	}

	client, err := d.newWorkflowClient(ctx, token, repository, logger)
	if err != nil {
		d2 := diag.New(diag.CategoryTokenMissing, "failed to build workflow provider client: "+err.Error())
		return workflow.Result{}, &d2
	}

	runs, err := client.ListRuns(ctx, []string{headHex, baseHex}, cfg.WorkflowNameFilter)
	if err != nil {
		logger.WithError(err).Warn("workflow provider unreachable; downgrading to diagnostic")
		d2 := diag.New(diag.CategoryWorkflowTimeout, "workflow provider request failed: "+err.Error())
		return workflow.Result{}, &d2
	}

	var timeoutDiag *diag.Diagnostic
	if cfg.WaitForActiveWorkflows {
		maxWait := time.Duration(cfg.WorkflowMaxWaitSeconds) * time.Second
		if maxWait <= 0 {
			maxWait = 30 * time.Second
		}
		completed, stillRunning, err := client.WaitActive(ctx, runs, maxWait)
		if err != nil {
			logger.WithError(err).Warn("waiting for active workflow runs failed; using runs observed so far")
		} else {
			runs = completed
			if len(stillRunning) > 0 {
				logger.WithField("still_running", len(stillRunning)).Debug("some workflow runs did not complete within workflow_max_wait_seconds")
				d2 := diag.New(diag.CategoryWorkflowTimeout, fmt.Sprintf("%d workflow run(s) still running after %s; ignored", len(stillRunning), maxWait))
				timeoutDiag = &d2
			}
		}
	}

	for i, run := range runs {
		if run.Status != workflow.StatusCompleted {
			continue
		}
		jobs, err := client.ListJobs(ctx, run.ID)
		if err != nil {
			logger.WithError(err).Warn("failed to list jobs for workflow run")
			continue
		}
		runs[i].Jobs = jobs
	}

	flags := workflow.Flags{SkipSuccessfulFiles: cfg.SkipSuccessfulFiles}
	return workflow.Correlate(changedPaths, runs, flags, nil), timeoutDiag
}
