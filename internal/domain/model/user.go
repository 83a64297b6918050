package model

import domainauth "github.com/syntheaweb/synthea-client/internal/domain/auth"

// User is an account record as returned by the admin user-management endpoints.
type User struct {
	ID       string          `json:"id"`
	Username string          `json:"username"`
	Role     domainauth.Role `json:"role"`
}
