// Package bindings declares the wire schemas of the authentication service:
// enums, response payloads, forms and query parameters, together with the
// client-side validation rules mirroring the server-side ones.
//
// Mappings for the authentication API.
// https://a-novel.github.io/service-authentication/
package bindings

import (
	"time"

	"github.com/google/uuid"
)

// Field bounds enforced client-side before transmission. They mirror, and do
// not replace, the server-side validation.
const (
	EmailMinLength = 3
	EmailMaxLength = 128

	PasswordMinLength = 2
	PasswordMaxLength = 1024

	ShortCodeMinLength = 1
	ShortCodeMaxLength = 32

	PaginationMaxLimit = 1000
)

// CredentialsRole is a role specifically assigned to a user.
type CredentialsRole string

const (
	CredentialsRoleUser       CredentialsRole = "user"
	CredentialsRoleAdmin      CredentialsRole = "admin"
	CredentialsRoleSuperAdmin CredentialsRole = "super_admin"
)

// Rank returns the position of the role in the privilege order, higher
// meaning more privileged. Unknown roles rank below every valid one.
func (r CredentialsRole) Rank() int {
	switch r {
	case CredentialsRoleUser:
		return 1
	case CredentialsRoleAdmin:
		return 2
	case CredentialsRoleSuperAdmin:
		return 3
	default:
		return 0
	}
}

// ClaimsRole is a role granted by a session token.
type ClaimsRole string

const (
	ClaimsRoleAnon       ClaimsRole = "auth:anon"
	ClaimsRoleUser       ClaimsRole = "auth:user"
	ClaimsRoleAdmin      ClaimsRole = "auth:admin"
	ClaimsRoleSuperAdmin ClaimsRole = "auth:super_admin"
)

// Lang selects the language of the emails sent by the service.
type Lang string

const (
	LangEn Lang = "en"
	LangFr Lang = "fr"
)

// User is the credentials record of a registered user. Timestamps travel as
// ISO-8601 strings on the wire and are decoded into time.Time values.
type User struct {
	ID        uuid.UUID       `json:"id"        validate:"required"`
	Email     string          `json:"email"     validate:"required,email,min=3,max=128"`
	Role      CredentialsRole `json:"role"      validate:"required,oneof=user admin super_admin"`
	CreatedAt time.Time       `json:"createdAt" validate:"required"`
	UpdatedAt time.Time       `json:"updatedAt" validate:"required"`
}

// Claims are the decoded facts of a session. UserID and RefreshTokenID are
// nil for anonymous sessions.
type Claims struct {
	UserID         *uuid.UUID   `json:"userID,omitempty"`
	Roles          []ClaimsRole `json:"roles" validate:"required,dive,oneof=auth:anon auth:user auth:admin auth:super_admin"`
	RefreshTokenID *uuid.UUID   `json:"refreshTokenID,omitempty"`
}

// TokenResponse carries a freshly issued token pair. RefreshToken is only
// present when the session was created from direct login.
type TokenResponse struct {
	AccessToken  string `json:"accessToken" validate:"required"`
	RefreshToken string `json:"refreshToken,omitempty"`
}
