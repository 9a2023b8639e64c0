package ghlog

import (
	"context"
	"fmt"
	"net/http"

	"notionwatch/internal/checkpoint"
)

// issueComment is the subset of a GitHub issue comment this system reads.
type issueComment struct {
	ID   int64  `json:"id"`
	Body string `json:"body"`
}

// ListEntries returns the issue's comments oldest-first, following page
// links until exhausted. Implements checkpoint.Log.
func (c *Client) ListEntries(ctx context.Context) ([]checkpoint.Entry, error) {
	var out []checkpoint.Entry
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/repos/%s/issues/%d/comments?per_page=100&page=%d",
			c.base, c.cfg.Repo, c.cfg.IssueNumber, page)
		var comments []issueComment
		if err := c.do(ctx, http.MethodGet, url, nil, &comments); err != nil {
			return nil, fmt.Errorf("list issue comments: %w", err)
		}
		for _, cm := range comments {
			out = append(out, checkpoint.Entry{ID: cm.ID, Body: cm.Body})
		}
		if len(comments) < 100 {
			return out, nil
		}
	}
}

// Append creates a new comment holding body and returns its ID.
func (c *Client) Append(ctx context.Context, body string) (int64, error) {
	url := fmt.Sprintf("%s/repos/%s/issues/%d/comments", c.base, c.cfg.Repo, c.cfg.IssueNumber)
	var created issueComment
	if err := c.do(ctx, http.MethodPost, url, map[string]string{"body": body}, &created); err != nil {
		return 0, fmt.Errorf("create issue comment: %w", err)
	}
	return created.ID, nil
}

// Delete removes one comment by ID.
func (c *Client) Delete(ctx context.Context, id int64) error {
	url := fmt.Sprintf("%s/repos/%s/issues/comments/%d", c.base, c.cfg.Repo, id)
	if err := c.do(ctx, http.MethodDelete, url, nil, nil); err != nil {
		return fmt.Errorf("delete issue comment %d: %w", id, err)
	}
	return nil
}
