package ghlog

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Run is one historical workflow run, as listed by the Actions API.
type Run struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

type runsResponse struct {
	WorkflowRuns []Run `json:"workflow_runs"`
}

// ListRuns returns the repository's workflow runs newest-first (the API's
// native ordering), following pagination until exhausted.
func (c *Client) ListRuns(ctx context.Context) ([]Run, error) {
	var out []Run
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/repos/%s/actions/runs?per_page=100&page=%d", c.base, c.cfg.Repo, page)
		var resp runsResponse
		if err := c.do(ctx, http.MethodGet, url, nil, &resp); err != nil {
			return nil, fmt.Errorf("list workflow runs: %w", err)
		}
		out = append(out, resp.WorkflowRuns...)
		if len(resp.WorkflowRuns) < 100 {
			return out, nil
		}
	}
}

// DeleteRun removes one workflow run and its logs.
func (c *Client) DeleteRun(ctx context.Context, id int64) error {
	url := fmt.Sprintf("%s/repos/%s/actions/runs/%d", c.base, c.cfg.Repo, id)
	if err := c.do(ctx, http.MethodDelete, url, nil, nil); err != nil {
		return fmt.Errorf("delete workflow run %d: %w", id, err)
	}
	return nil
}
