package lechange

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lituus-io/le-change-go/workflow"
)

func TestBuildChangedFilesCountsAndDedup(t *testing.T) {
	renamed := []RenamePair{{Old: "old.go", New: "new.go"}}
	cf := buildChangedFiles(
		[]string{"a.go", "new.go"}, // added also lists new.go, should dedupe in AllChanged
		[]string{"b.go"},
		[]string{"c.go"},
		nil,
		renamed,
		map[string]string{"old.go": "new.go"},
		[]string{"backend"},
		workflow.Result{},
		nil,
	)

	assert.Equal(t, cf.AddedFilesCount, len(cf.Added))
	assert.Equal(t, cf.ModifiedFilesCount, len(cf.Modified))
	assert.Equal(t, cf.DeletedFilesCount, len(cf.Deleted))
	assert.Equal(t, cf.RenamedFilesCount, len(cf.Renamed))
	assert.Equal(t, cf.AllChangedFilesCount, len(cf.AllChanged))

	// new.go appears once even though it's both an Added entry and the
	// projected half of a rename.
	count := 0
	for _, p := range cf.AllChanged {
		if p == "new.go" {
			count++
		}
	}
	assert.Equal(t, 1, count)

	assert.True(t, cf.AnyChanged)
	assert.True(t, cf.AnyRenamed)
	assert.False(t, cf.AnyTypeChanged)
	assert.Equal(t, []string{"backend"}, cf.ChangedKeys)
	assert.Equal(t, "new.go", cf.RenamedFilesMapping["old.go"])
}

func TestBuildChangedFilesRebuildSkipDisjoint(t *testing.T) {
	corr := workflow.Result{
		FilesToRebuild: []string{"src/api/routes.ts"},
		FilesToSkip:    []string{"src/components/Button.tsx"},
		FailedJobs:     []string{"A/build/backend"},
		SuccessfulJobs: []string{"B/build/frontend"},
	}
	cf := buildChangedFiles(nil, nil, nil, nil, nil, map[string]string{}, nil, corr, nil)

	rebuildSet := make(map[string]struct{}, len(cf.FilesToRebuild))
	for _, f := range cf.FilesToRebuild {
		rebuildSet[f] = struct{}{}
	}
	for _, f := range cf.FilesToSkip {
		_, inRebuild := rebuildSet[f]
		assert.False(t, inRebuild)
	}
	assert.Equal(t, []string{"A/build/backend"}, cf.FailedJobs)
	assert.Equal(t, []string{"B/build/frontend"}, cf.SuccessfulJobs)
}

func TestChangedFilesStringNamesType(t *testing.T) {
	cf := buildChangedFiles(nil, nil, nil, nil, nil, nil, nil, workflow.Result{}, nil)
	assert.Contains(t, cf.String(), "ChangedFiles")
}
