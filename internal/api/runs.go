package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/syntheaweb/synthea-client/internal/domain/model"
)

// UserRuns fetches the runs belonging to the authenticated user.
func (c *Client) UserRuns(ctx context.Context) ([]model.Run, error) {
	resp, err := c.do(ctx, c.authc, http.MethodGet, "/api/runs", nil)
	if err != nil {
		return nil, err
	}
	defer closeBody(ctx, c.logger, resp)

	if resp.StatusCode != http.StatusOK {
		return nil, classifyProtected("list runs", resp.StatusCode)
	}

	var runs []model.Run
	if decodeErr := decodeJSON(resp, &runs); decodeErr != nil {
		return nil, decodeErr
	}
	return runs, nil
}

// AllRuns fetches every run in the system. Admin-only on the server side.
func (c *Client) AllRuns(ctx context.Context) ([]model.Run, error) {
	resp, err := c.do(ctx, c.authc, http.MethodGet, "/api/runs/admin", nil)
	if err != nil {
		return nil, err
	}
	defer closeBody(ctx, c.logger, resp)

	if resp.StatusCode != http.StatusOK {
		return nil, classifyProtected("list all runs", resp.StatusCode)
	}

	var runs []model.Run
	if decodeErr := decodeJSON(resp, &runs); decodeErr != nil {
		return nil, decodeErr
	}
	return runs, nil
}

// SaveRun stores a completed run's metadata for the authenticated user.
func (c *Client) SaveRun(ctx context.Context, run model.Run) error {
	resp, err := c.do(ctx, c.authc, http.MethodPost, "/api/runs/save", run)
	if err != nil {
		return err
	}
	defer closeBody(ctx, c.logger, resp)

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return classifyProtected("save run", resp.StatusCode)
	}
	return nil
}

// DeleteRun removes a run. Owners may delete their own runs; admins any run.
func (c *Client) DeleteRun(ctx context.Context, runID string) error {
	resp, err := c.do(ctx, c.authc, http.MethodDelete, "/api/runs/delete/"+url.PathEscape(runID), nil)
	if err != nil {
		return err
	}
	defer closeBody(ctx, c.logger, resp)

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return classifyProtected("delete run", resp.StatusCode)
	}
	return nil
}
