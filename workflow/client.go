package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/lituus-io/le-change-go/errs"
)

const defaultBaseURL = "https://api.github.com"

// Client queries a GitHub Actions-shaped CI provider. The interface
// exists so the Detector can be driven by a fake in tests and so
// additional providers can be added without touching C8 (Correlate,
// which only consumes the fetched runs), per spec §9 "Extensibility".
type Client interface {
	ListRuns(ctx context.Context, headSHAs []string, nameFilter string) ([]Run, error)
	ListJobs(ctx context.Context, runID int64) ([]Job, error)
	WaitActive(ctx context.Context, runs []Run, maxWait time.Duration) (completed, stillRunning []Run, err error)
}

// GitHubClient is the REST GitHub Actions implementation of Client.
type GitHubClient struct {
	http       *retryablehttp.Client
	baseURL    string
	owner      string
	repo       string
	logger     *logrus.Entry
	maxConcur  int
}

// NewClient builds a GitHubClient for "owner/name" authenticated with
// token (an empty token builds an unauthenticated client; the Detector
// reports a missing token as a token_missing diagnostic without calling
// NewClient).
func NewClient(ctx context.Context, token, repository string, logger *logrus.Entry) (*GitHubClient, error) {
	owner, repo, ok := strings.Cut(repository, "/")
	if !ok {
		return nil, &errs.ConfigError{Message: fmt.Sprintf("repository %q must be owner/name", repository)}
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = 5
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 4 * time.Second
	rc.CheckRetry = githubCheckRetry
	rc.Backoff = githubBackoff

	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		rc.HTTPClient = oauth2.NewClient(ctx, ts)
	}

	return &GitHubClient{
		http:      rc,
		baseURL:   defaultBaseURL,
		owner:     owner,
		repo:      repo,
		logger:    logger.WithField("client", "workflow"),
		maxConcur: 4,
	}, nil
}

func githubCheckRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	if resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0" {
		return true, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

func githubBackoff(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
	if resp != nil {
		if reset := resp.Header.Get("X-RateLimit-Reset"); reset != "" {
			if unix, err := strconv.ParseInt(reset, 10, 64); err == nil {
				if d := time.Until(time.Unix(unix, 0)); d > 0 && d < 30*time.Second {
					return d
				}
			}
		}
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" && retryAfter != "0" {
			if secs, err := strconv.Atoi(retryAfter); err == nil {
				return time.Duration(secs) * time.Second
			}
		}
	}
	return retryablehttp.DefaultBackoff(min, max, attemptNum, resp)
}

type rawRun struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	HeadSHA    string    `json:"head_sha"`
	Conclusion *string   `json:"conclusion"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

type runsResponse struct {
	TotalCount int      `json:"total_count"`
	Runs       []rawRun `json:"workflow_runs"`
}

type rawStep struct {
	Name       string  `json:"name"`
	Conclusion *string `json:"conclusion"`
}

type rawJob struct {
	ID         int64     `json:"id"`
	RunID      int64     `json:"run_id"`
	Name       string    `json:"name"`
	Conclusion *string   `json:"conclusion"`
	Status     string    `json:"status"`
	Steps      []rawStep `json:"steps"`
}

type jobsResponse struct {
	TotalCount int      `json:"total_count"`
	Jobs       []rawJob `json:"jobs"`
}

func conclusionOf(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// ListRuns fetches pull_request/pull_request_target workflow runs for
// the client's repository and keeps only those whose HeadSHA appears
// in headSHAs, the same two-step "query broadly, filter by SHA
// client-side" shape as GetFailedActionRunsByHeadBranch. An empty
// nameFilter keeps every run; otherwise only runs whose Name contains
// nameFilter as a substring survive.
func (c *GitHubClient) ListRuns(ctx context.Context, headSHAs []string, nameFilter string) ([]Run, error) {
	wanted := make(map[string]struct{}, len(headSHAs))
	for _, sha := range headSHAs {
		wanted[sha] = struct{}{}
	}

	u := url.URL{Path: fmt.Sprintf("/repos/%s/%s/actions/runs", c.owner, c.repo)}
	q := u.Query()
	q.Set("event", "pull_request OR pull_request_target")
	q.Set("per_page", "100")
	u.RawQuery = q.Encode()

	var resp runsResponse
	if err := c.get(ctx, u.String(), &resp); err != nil {
		return nil, err
	}

	runs := make([]Run, 0, len(resp.Runs))
	for _, r := range resp.Runs {
		if _, ok := wanted[r.HeadSHA]; !ok {
			continue
		}
		if nameFilter != "" && !strings.Contains(r.Name, nameFilter) {
			continue
		}
		runs = append(runs, Run{
			ID:         r.ID,
			Name:       r.Name,
			HeadSHA:    r.HeadSHA,
			Conclusion: conclusionOf(r.Conclusion),
			Status:     r.Status,
			CreatedAt:  r.CreatedAt,
		})
	}
	return runs, nil
}

// ListJobs fetches every job belonging to runID.
func (c *GitHubClient) ListJobs(ctx context.Context, runID int64) ([]Job, error) {
	path := fmt.Sprintf("/repos/%s/%s/actions/runs/%d/jobs", c.owner, c.repo, runID)

	var resp jobsResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}

	jobs := make([]Job, 0, len(resp.Jobs))
	for _, j := range resp.Jobs {
		steps := make([]Step, 0, len(j.Steps))
		for _, s := range j.Steps {
			steps = append(steps, Step{Name: s.Name, Conclusion: conclusionOf(s.Conclusion)})
		}
		jobs = append(jobs, Job{
			ID:         j.ID,
			RunID:      j.RunID,
			Name:       j.Name,
			Conclusion: conclusionOf(j.Conclusion),
			Status:     j.Status,
			Steps:      steps,
		})
	}
	return jobs, nil
}

// WaitActive polls the status of runs still in progress at
// provider-appropriate intervals with exponential backoff capped at a
// few seconds, bounding total concurrency the way
// workflow.Client.WaitActive's doc comment in DESIGN.md describes,
// returning once every run completes or maxWait elapses.
func (c *GitHubClient) WaitActive(ctx context.Context, runs []Run, maxWait time.Duration) ([]Run, []Run, error) {
	deadline := time.Now().Add(maxWait)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	results := make([]Run, len(runs))
	copy(results, runs)

	sem := make(chan struct{}, c.maxConcur)
	g, gctx := errgroup.WithContext(ctx)

	for i, run := range runs {
		i, run := i, run
		if run.Status == StatusCompleted {
			continue
		}
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()
			final, err := c.pollUntilComplete(gctx, run)
			if err != nil {
				return err
			}
			results[i] = final
			return nil
		})
	}

	err := g.Wait()
	if err != nil && ctx.Err() == nil {
		return nil, nil, &errs.RuntimeError{Message: "polling workflow runs failed", Cause: err}
	}

	var completed, stillRunning []Run
	for _, r := range results {
		if r.Status == StatusCompleted {
			completed = append(completed, r)
		} else {
			stillRunning = append(stillRunning, r)
		}
	}
	return completed, stillRunning, nil
}

func (c *GitHubClient) pollUntilComplete(ctx context.Context, run Run) (Run, error) {
	wait := 500 * time.Millisecond
	const maxBackoff = 4 * time.Second

	for {
		path := fmt.Sprintf("/repos/%s/%s/actions/runs/%d", c.owner, c.repo, run.ID)
		var r rawRun
		if err := c.get(ctx, path, &r); err != nil {
			if ctx.Err() != nil {
				return run, nil
			}
			return run, err
		}
		run = Run{
			ID:         r.ID,
			Name:       r.Name,
			HeadSHA:    r.HeadSHA,
			Conclusion: conclusionOf(r.Conclusion),
			Status:     r.Status,
			CreatedAt:  r.CreatedAt,
		}
		if run.Status == StatusCompleted {
			return run, nil
		}

		select {
		case <-ctx.Done():
			return run, nil
		case <-time.After(wait):
		}

		wait *= 2
		if wait > maxBackoff {
			wait = maxBackoff
		}
	}
}

func (c *GitHubClient) get(ctx context.Context, path string, out interface{}) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &errs.RuntimeError{Message: "building request", Cause: err}
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &errs.RuntimeError{Message: "workflow provider request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &errs.RuntimeError{Message: fmt.Sprintf("workflow provider returned status %d for %s", resp.StatusCode, path)}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
