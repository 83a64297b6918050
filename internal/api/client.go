package api

// Package api implements the HTTP client for the SyntheaWeb backend. The
// session-defining calls (login, register, status) live here along with the
// run, admin, and generation endpoints the rest of the application consumes.
// Every call flows through the shared transport stack, so the global failure
// interceptor observes each response.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	domainauth "github.com/syntheaweb/synthea-client/internal/domain/auth"
	apperrors "github.com/syntheaweb/synthea-client/internal/errors"
	"github.com/syntheaweb/synthea-client/internal/ports"
)

var _ ports.SessionAPI = (*Client)(nil)

const defaultUserAgent = "synthea-client"

// ClientOptions groups dependencies for the API client.
type ClientOptions struct {
	// BaseURL is the backend root, e.g. "https://synthea.example.com".
	BaseURL string

	// Store receives the token/role pair on successful login as a convenience.
	// Marking the session authenticated stays the session manager's authority.
	Store ports.TokenStore

	// HTTPClient issues the unauthenticated calls (login, register).
	HTTPClient *http.Client

	// AuthHTTPClient issues bearer-authenticated calls.
	AuthHTTPClient *http.Client

	Logger    *slog.Logger
	UserAgent string
}

// Client talks to the SyntheaWeb backend.
type Client struct {
	baseURL   string
	store     ports.TokenStore
	httpc     *http.Client
	authc     *http.Client
	logger    *slog.Logger
	userAgent string
}

// NewClient constructs an API client.
func NewClient(opts ClientOptions) *Client {
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = http.DefaultClient
	}
	authc := opts.AuthHTTPClient
	if authc == nil {
		authc = httpc
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		store:     opts.Store,
		httpc:     httpc,
		authc:     authc,
		logger:    logger,
		userAgent: userAgent,
	}
}

type credentialsBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// sessionResponse covers the login, register, and status payloads; the backend
// returns the same identity fields with slight variation per endpoint.
type sessionResponse struct {
	Token         string          `json:"token,omitempty"`
	ID            string          `json:"id,omitempty"`
	Username      string          `json:"username"`
	Role          domainauth.Role `json:"role"`
	Authenticated bool            `json:"authenticated,omitempty"`
}

func (r sessionResponse) identity() domainauth.Identity {
	return domainauth.Identity{ID: r.ID, Username: r.Username, Role: r.Role}
}

// Login exchanges credentials for a bearer token and verified identity.
// On success the token/role pair is written to the store; flipping the
// authenticated flag remains the session manager's job.
func (c *Client) Login(ctx context.Context, username, password string) (ports.LoginResult, error) {
	resp, err := c.do(ctx, c.httpc, http.MethodPost, "/api/user/login", credentialsBody{
		Username: username,
		Password: password,
	})
	if err != nil {
		return ports.LoginResult{}, err
	}
	defer closeBody(ctx, c.logger, resp)

	switch resp.StatusCode {
	case http.StatusOK:
		var body sessionResponse
		if decodeErr := decodeJSON(resp, &body); decodeErr != nil {
			return ports.LoginResult{}, decodeErr
		}
		if setErr := c.store.Set(body.Token, body.Role); setErr != nil {
			return ports.LoginResult{}, apperrors.Wrap(setErr, apperrors.ErrCodeInternal, "persist session token")
		}
		return ports.LoginResult{Token: body.Token, Identity: body.identity()}, nil
	case http.StatusUnauthorized:
		return ports.LoginResult{}, apperrors.InvalidCredentials("invalid username or password")
	default:
		return ports.LoginResult{}, unknownStatus("login", resp.StatusCode)
	}
}

// Register creates an account. It never mutates session state.
func (c *Client) Register(ctx context.Context, username, password string) (ports.RegisterResult, error) {
	resp, err := c.do(ctx, c.httpc, http.MethodPost, "/api/user/register", credentialsBody{
		Username: username,
		Password: password,
	})
	if err != nil {
		return ports.RegisterResult{}, err
	}
	defer closeBody(ctx, c.logger, resp)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		var body sessionResponse
		if decodeErr := decodeJSON(resp, &body); decodeErr != nil {
			return ports.RegisterResult{}, decodeErr
		}
		return ports.RegisterResult{Token: body.Token, Identity: body.identity()}, nil
	case http.StatusConflict:
		return ports.RegisterResult{}, apperrors.UsernameTaken("username already exists")
	default:
		return ports.RegisterResult{}, unknownStatus("register", resp.StatusCode)
	}
}

// GetStatus verifies the stored token against the server. A nil, nil return
// means no token is stored, which callers treat as "never logged in" rather
// than "session invalid". A 401/403 clears the store before failing; the
// interceptor duplicates part of this on purpose.
func (c *Client) GetStatus(ctx context.Context) (*domainauth.Identity, error) {
	_, ok, err := c.store.Token()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "read token store")
	}
	if !ok {
		return nil, nil
	}

	resp, err := c.do(ctx, c.authc, http.MethodGet, "/api/user/status", nil)
	if err != nil {
		return nil, err
	}
	defer closeBody(ctx, c.logger, resp)

	switch resp.StatusCode {
	case http.StatusOK:
		var body sessionResponse
		if decodeErr := decodeJSON(resp, &body); decodeErr != nil {
			return nil, decodeErr
		}
		identity := body.identity()
		return &identity, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		if clearErr := c.store.Clear(); clearErr != nil {
			c.logger.ErrorContext(ctx, "clear token store after invalid status", "error", clearErr)
		}
		return nil, apperrors.SessionInvalid("session token rejected by server")
	default:
		return nil, unknownStatus("status check", resp.StatusCode)
	}
}

// do builds and issues a request with JSON body handling and correlation headers.
func (c *Client) do(ctx context.Context, client *http.Client, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode request body")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := client.Do(req)
	if err != nil {
		// A missing stored token surfaces from the bearer transport as a typed
		// error inside the url.Error chain; keep its code instead of unknown.
		code := apperrors.GetCode(err)
		if code == "" {
			code = apperrors.ErrCodeUnknown
		}
		return nil, apperrors.Wrap(err, code, "request failed")
	}
	return resp, nil
}

// classifyProtected maps non-2xx statuses from authenticated endpoints to the
// error taxonomy. The interceptor has already reacted to 401/403 by the time
// this runs.
func classifyProtected(op string, status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperrors.Unauthenticated(op + " rejected: not authenticated")
	case http.StatusNotFound:
		return apperrors.NotFound(op + ": not found")
	case http.StatusBadRequest:
		return apperrors.Validation(op + ": invalid request")
	default:
		return unknownStatus(op, status)
	}
}

func unknownStatus(op string, status int) error {
	return apperrors.Unknown(fmt.Sprintf("%s failed with status %d", op, status))
}

func decodeJSON(resp *http.Response, dst any) error {
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeUnknown, "decode response body")
	}
	return nil
}

func closeBody(ctx context.Context, logger *slog.Logger, resp *http.Response) {
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		logger.ErrorContext(ctx, "drain response body", "error", err)
	}
	if err := resp.Body.Close(); err != nil {
		logger.ErrorContext(ctx, "close response body", "error", err)
	}
}
