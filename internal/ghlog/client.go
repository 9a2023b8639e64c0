package ghlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"notionwatch/pkg/logx"
)

const defaultBaseURL = "https://api.github.com"

// Config configures the GitHub-backed checkpoint log and run history.
type Config struct {
	Token string
	Repo  string // "owner/name"

	// IssueNumber is the issue whose comments hold the checkpoint.
	IssueNumber int

	Timeout time.Duration // per-call transport timeout; 0 means default

	// BaseURL overrides the API host; used by tests.
	BaseURL string
}

// Client talks to the GitHub REST API for two unrelated-but-colocated jobs:
// the checkpoint log (issue comments) and the execution history (Actions
// workflow runs). Both live in the repository the watcher runs from.
type Client struct {
	cfg  Config
	base string
	http *http.Client
	log  logx.Logger
}

func New(cfg Config, log logx.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("github token is empty")
	}
	repo := strings.TrimSpace(cfg.Repo)
	if repo == "" || !strings.Contains(repo, "/") {
		return nil, fmt.Errorf("github repo %q must be owner/name", cfg.Repo)
	}
	if cfg.IssueNumber <= 0 {
		return nil, errors.New("github issue_number must be positive")
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

func (c *Client) do(ctx context.Context, method, url string, in, out any) error {
	var rd *bytes.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("github: %s %s: unexpected status %d", method, req.URL.Path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
