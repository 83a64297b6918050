package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/syntheaweb/synthea-client/internal/domain/model"
)

// Users lists all accounts. Admin-only on the server side.
func (c *Client) Users(ctx context.Context) ([]model.User, error) {
	resp, err := c.do(ctx, c.authc, http.MethodGet, "/api/admin/users", nil)
	if err != nil {
		return nil, err
	}
	defer closeBody(ctx, c.logger, resp)

	if resp.StatusCode != http.StatusOK {
		return nil, classifyProtected("list users", resp.StatusCode)
	}

	var users []model.User
	if decodeErr := decodeJSON(resp, &users); decodeErr != nil {
		return nil, decodeErr
	}
	return users, nil
}

// DeleteUser removes an account by ID.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	path := "/api/admin/users/" + url.PathEscape(userID) + "/delete"
	resp, err := c.do(ctx, c.authc, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer closeBody(ctx, c.logger, resp)

	if resp.StatusCode != http.StatusOK {
		return classifyProtected("delete user", resp.StatusCode)
	}
	return nil
}

type passwordUpdateBody struct {
	NewPassword string `json:"newPassword"`
}

// ResetPassword sets a new password for the given account.
func (c *Client) ResetPassword(ctx context.Context, userID, newPassword string) error {
	path := "/api/admin/users/" + url.PathEscape(userID) + "/password"
	resp, err := c.do(ctx, c.authc, http.MethodPut, path, passwordUpdateBody{NewPassword: newPassword})
	if err != nil {
		return err
	}
	defer closeBody(ctx, c.logger, resp)

	if resp.StatusCode != http.StatusOK {
		return classifyProtected("reset password", resp.StatusCode)
	}
	return nil
}

type roleUpdateBody struct {
	Role string `json:"role"`
}

// UpdateRole assigns a new role (USER or ADMIN) to the given account.
func (c *Client) UpdateRole(ctx context.Context, userID, role string) error {
	path := "/api/admin/users/" + url.PathEscape(userID) + "/role"
	resp, err := c.do(ctx, c.authc, http.MethodPut, path, roleUpdateBody{Role: role})
	if err != nil {
		return err
	}
	defer closeBody(ctx, c.logger, resp)

	if resp.StatusCode != http.StatusOK {
		return classifyProtected("update role", resp.StatusCode)
	}
	return nil
}
