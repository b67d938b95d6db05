package workflow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *GitHubClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(context.Background(), "test-token", "owner/repo", nil)
	require.NoError(t, err)
	c.baseURL = server.URL
	c.http.RetryMax = 0
	return c
}

func TestListRunsFiltersByHeadSHA(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/owner/repo/actions/runs", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(runsResponse{
			Runs: []rawRun{
				{ID: 1, Name: "CI", HeadSHA: "aaaa", Status: StatusCompleted},
				{ID: 2, Name: "CI", HeadSHA: "bbbb", Status: StatusCompleted},
			},
		})
	})

	runs, err := c.ListRuns(context.Background(), []string{"aaaa"}, "")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, int64(1), runs[0].ID)
}

func TestListRunsNameFilter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(runsResponse{
			Runs: []rawRun{
				{ID: 1, Name: "build/backend", HeadSHA: "aaaa"},
				{ID: 2, Name: "build/frontend", HeadSHA: "aaaa"},
			},
		})
	})

	runs, err := c.ListRuns(context.Background(), []string{"aaaa"}, "backend")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "build/backend", runs[0].Name)
}

func TestListJobs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/owner/repo/actions/runs/42/jobs", r.URL.Path)
		failure := ConclusionFailure
		_ = json.NewEncoder(w).Encode(jobsResponse{
			Jobs: []rawJob{{ID: 7, RunID: 42, Name: "build", Conclusion: &failure, Status: StatusCompleted}},
		})
	})

	jobs, err := c.ListJobs(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, ConclusionFailure, jobs[0].Conclusion)
}

func TestWaitActiveReturnsImmediatelyWhenCompleted(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not poll a run that is already completed")
	})

	runs := []Run{{ID: 1, Status: StatusCompleted}}
	completed, stillRunning, err := c.WaitActive(context.Background(), runs, time.Second)
	require.NoError(t, err)
	assert.Len(t, completed, 1)
	assert.Empty(t, stillRunning)
}

func TestWaitActivePollsUntilComplete(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		status := StatusInProgress
		if calls > 1 {
			status = StatusCompleted
		}
		_ = json.NewEncoder(w).Encode(rawRun{ID: 1, Status: status})
	})

	runs := []Run{{ID: 1, Status: StatusInProgress}}
	completed, stillRunning, err := c.WaitActive(context.Background(), runs, 5*time.Second)
	require.NoError(t, err)
	assert.Len(t, completed, 1)
	assert.Empty(t, stillRunning)
}

func TestWaitActiveTimesOut(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(rawRun{ID: 1, Status: StatusInProgress})
	})

	runs := []Run{{ID: 1, Status: StatusInProgress}}
	completed, stillRunning, err := c.WaitActive(context.Background(), runs, 200*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, completed)
	assert.Len(t, stillRunning, 1)
}
