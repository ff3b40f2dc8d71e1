package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"deckhand/internal/errors"
	"deckhand/internal/status"
	"deckhand/internal/types"
)

type commitsResponse struct {
	Commits []types.CommitInfo `json:"commits"`
	Total   int                `json:"total"`
}

// Snapshot returns the combined git and container status
func (c *Client) Snapshot(ctx context.Context) (*status.Snapshot, error) {
	var snapshot status.Snapshot
	if err := c.getJSON(ctx, "/api/status", &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// GitStatus compares the server's HEAD against its last fetched remote ref
func (c *Client) GitStatus(ctx context.Context) (*types.RepositorySnapshot, error) {
	var snapshot types.RepositorySnapshot
	if err := c.getJSON(ctx, "/api/git/status", &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// RecentCommits lists up to limit commits reachable from HEAD
func (c *Client) RecentCommits(ctx context.Context, limit int) ([]types.CommitInfo, error) {
	path := "/api/git/commits"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var resp commitsResponse
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Commits, nil
}

// PendingCommits lists the commits a pull would bring in
func (c *Client) PendingCommits(ctx context.Context) ([]types.CommitInfo, error) {
	var resp commitsResponse
	if err := c.getJSON(ctx, "/api/git/pending", &resp); err != nil {
		return nil, err
	}
	return resp.Commits, nil
}

// CommitInfo returns metadata for one commit
func (c *Client) CommitInfo(ctx context.Context, hash string) (*types.CommitInfo, error) {
	var commit types.CommitInfo
	if err := c.getJSON(ctx, "/api/git/commits/"+url.PathEscape(hash), &commit); err != nil {
		return nil, err
	}
	return &commit, nil
}

// Fetch asks the server to fetch its tracked branch
func (c *Client) Fetch(ctx context.Context) error {
	resp, code, err := c.postAction(ctx, "/api/git/fetch", nil)
	if err != nil {
		return err
	}
	if code != http.StatusOK || !resp.Success {
		return resp.toError(code)
	}
	return nil
}

// Pull asks the server to fast-forward its working copy
func (c *Client) Pull(ctx context.Context) (*types.PullOutcome, error) {
	resp, code, err := c.postAction(ctx, "/api/git/pull", nil)
	if err != nil {
		return nil, err
	}
	if code != http.StatusOK || !resp.Success {
		return nil, resp.toError(code)
	}

	outcome := &types.PullOutcome{Success: true, RawOutput: resp.Output}
	if len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, outcome); err != nil {
			return nil, errors.Wrap(errors.ErrInternal, "failed to decode pull outcome", err)
		}
	}
	return outcome, nil
}
