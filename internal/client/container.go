package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"deckhand/internal/errors"
	"deckhand/internal/types"
)

type containersResponse struct {
	Containers []types.ContainerRecord `json:"containers"`
	Total      int                     `json:"total"`
}

// ListContainers returns the records the server could inspect
func (c *Client) ListContainers(ctx context.Context) ([]types.ContainerRecord, error) {
	var resp containersResponse
	if err := c.getJSON(ctx, "/api/containers", &resp); err != nil {
		return nil, err
	}
	return resp.Containers, nil
}

// GetContainer returns the record for one managed container
func (c *Client) GetContainer(ctx context.Context, name string) (*types.ContainerRecord, error) {
	var record types.ContainerRecord
	if err := c.getJSON(ctx, "/api/containers/"+url.PathEscape(name), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// ContainerAction runs start, stop, restart or update on one container
func (c *Client) ContainerAction(ctx context.Context, name, action string) types.OperationResult {
	return c.action(ctx, fmt.Sprintf("/api/containers/%s/%s", url.PathEscape(name), action))
}

// BulkAction runs start-all, stop-all, restart-all or update-all
func (c *Client) BulkAction(ctx context.Context, action string) types.OperationResult {
	return c.action(ctx, "/api/containers/"+action)
}

func (c *Client) action(ctx context.Context, path string) types.OperationResult {
	resp, status, err := c.postAction(ctx, path, nil)
	if err != nil {
		return types.Failed("", err)
	}

	if status == http.StatusOK && resp.Success {
		result := types.Succeeded(resp.Output)
		result.Completed = resp.Completed
		return result
	}

	result := types.Failed(resp.Output, resp.toError(status))
	result.Container = resp.Container
	result.Completed = resp.Completed
	if message, _, _ := resp.errorMessage(); message != "" {
		result.Error = message
	}
	return result
}

// resultError rebuilds the error behind a failed single-container result
func resultError(result types.OperationResult) error {
	code := result.Kind
	if code == "" {
		code = errors.ErrInternal
	}
	de := errors.New(code, result.Error)
	if result.Output != "" {
		de.WithOutput(result.Output)
	}
	return de
}
