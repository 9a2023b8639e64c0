package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"notionwatch/internal/watch"
	"notionwatch/pkg/logx"
)

const (
	defaultBaseURL = "https://api.notion.com"
	apiVersion     = "2022-06-28"
)

// Config configures the Notion database adapter.
type Config struct {
	Token      string
	DatabaseID string

	// PendingProperty names the checkbox that marks a page as awaiting
	// notification. When set, queries filter on it server-side and
	// Acknowledge clears it. When empty, every fetched page counts as
	// pending and Acknowledge is a no-op (flagless databases fall back to
	// the timestamp/fingerprint guard alone).
	PendingProperty string

	// TitleProperty and DetailProperty name the page properties mapped to
	// the notification title and detail. An empty TitleProperty auto-detects
	// the database's title property; an empty DetailProperty maps to "".
	TitleProperty  string
	DetailProperty string

	PageSize int           // query page size; 0 means 100
	Timeout  time.Duration // per-call transport timeout; 0 means default

	// BaseURL overrides the API host; used by tests.
	BaseURL string
}

// Client reads candidate pages from one Notion database and acknowledges
// notified pages. It implements watch.Source and watch.Acknowledger.
type Client struct {
	cfg  Config
	base string
	http *http.Client
	log  logx.Logger
}

func New(cfg Config, log logx.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("notion token is empty")
	}
	if strings.TrimSpace(cfg.DatabaseID) == "" {
		return nil, errors.New("notion database_id is empty")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		cfg:  cfg,
		base: base,
		http: &http.Client{Timeout: timeout},
		log:  log,
	}, nil
}

type queryRequest struct {
	Filter      json.RawMessage `json:"filter,omitempty"`
	StartCursor string          `json:"start_cursor,omitempty"`
	PageSize    int             `json:"page_size,omitempty"`
}

type queryResponse struct {
	Results    []json.RawMessage `json:"results"`
	NextCursor string            `json:"next_cursor"`
	HasMore    bool              `json:"has_more"`
}

// FetchPending queries the database page by page, following pagination
// cursors until the store reports no further pages, and returns the full
// candidate sequence in store order.
//
// Network failures propagate; a page that fails to map aborts the fetch for
// this run rather than processing a truncated view.
func (c *Client) FetchPending(ctx context.Context) ([]watch.ChangeRecord, error) {
	pageSize := c.cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}

	var out []watch.ChangeRecord
	cursor := ""
	for {
		req := queryRequest{StartCursor: cursor, PageSize: pageSize}
		if c.cfg.PendingProperty != "" {
			f, err := json.Marshal(map[string]any{
				"property": c.cfg.PendingProperty,
				"checkbox": map[string]bool{"equals": true},
			})
			if err != nil {
				return nil, err
			}
			req.Filter = f
		}

		var resp queryResponse
		url := fmt.Sprintf("%s/v1/databases/%s/query", c.base, c.cfg.DatabaseID)
		if err := c.do(ctx, http.MethodPost, url, req, &resp); err != nil {
			return nil, fmt.Errorf("query database: %w", err)
		}

		for _, raw := range resp.Results {
			rec, err := mapPage(raw, c.cfg, c.log)
			if err != nil {
				return nil, fmt.Errorf("map page: %w", err)
			}
			// Belt and braces on top of the server-side filter; also covers
			// stores that ignore unknown filter properties.
			if !rec.Pending {
				continue
			}
			out = append(out, rec)
		}

		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}
	return out, nil
}

// Acknowledge clears the pending checkbox on the page. Idempotent: clearing
// an already-clear checkbox succeeds. No-op for flagless databases.
func (c *Client) Acknowledge(ctx context.Context, recordID string) error {
	if c.cfg.PendingProperty == "" {
		return nil
	}
	body := map[string]any{
		"properties": map[string]any{
			c.cfg.PendingProperty: map[string]bool{"checkbox": false},
		},
	}
	url := fmt.Sprintf("%s/v1/pages/%s", c.base, recordID)
	return c.do(ctx, http.MethodPatch, url, body, nil)
}

func (c *Client) do(ctx context.Context, method, url string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Notion-Version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notion: unexpected status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
