package api

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/syntheaweb/synthea-client/internal/domain/model"
	apperrors "github.com/syntheaweb/synthea-client/internal/errors"
)

// Generate requests a synthetic-data generation run with the given demographic
// parameters and returns the server-assigned run ID.
func (c *Client) Generate(ctx context.Context, params model.GenerateParams) (model.GenerateResult, error) {
	if err := params.Validate(); err != nil {
		return model.GenerateResult{}, err
	}

	resp, err := c.do(ctx, c.authc, http.MethodPost, "/api/synthea/generate", params)
	if err != nil {
		return model.GenerateResult{}, err
	}
	defer closeBody(ctx, c.logger, resp)

	if resp.StatusCode != http.StatusOK {
		return model.GenerateResult{}, classifyProtected("generate", resp.StatusCode)
	}

	var result model.GenerateResult
	if decodeErr := decodeJSON(resp, &result); decodeErr != nil {
		return model.GenerateResult{}, decodeErr
	}
	return result, nil
}

// Download streams the zipped export of a run in the given format into w and
// returns the number of bytes written.
func (c *Client) Download(ctx context.Context, runID string, format model.DownloadFormat, w io.Writer) (int64, error) {
	query := url.Values{}
	query.Set("runID", runID)
	query.Set("format", string(format))

	resp, err := c.do(ctx, c.authc, http.MethodGet, "/api/synthea/download?"+query.Encode(), nil)
	if err != nil {
		return 0, err
	}
	defer closeBody(ctx, c.logger, resp)

	if resp.StatusCode != http.StatusOK {
		return 0, classifyProtected("download", resp.StatusCode)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, apperrors.Wrap(err, apperrors.ErrCodeUnknown, "stream download")
	}
	return n, nil
}
