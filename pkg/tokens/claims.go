// Package tokens offers a display-only peek at the session tokens issued by
// the authentication service. Tokens are decoded without verification: the
// service owns all cryptographic checks, and the authoritative claims always
// come from the check-session endpoint.
package tokens

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/a-novel/connector-authentication-go/bindings"
)

// ErrMalformedToken reports a token that does not parse as a JWT at all.
var ErrMalformedToken = errors.New("malformed session token")

// SessionClaims are the claims carried by an access token. UserID and
// RefreshTokenID are nil for anonymous sessions.
type SessionClaims struct {
	UserID         *uuid.UUID            `json:"userID,omitempty"`
	Roles          []bindings.ClaimsRole `json:"roles"`
	RefreshTokenID *uuid.UUID            `json:"refreshTokenID,omitempty"`
	jwt.RegisteredClaims
}

// Anonymous reports whether the claims belong to an anonymous session.
func (c *SessionClaims) Anonymous() bool {
	return c.UserID == nil
}

// Claims converts the token claims into the wire Claims shape returned by
// the check-session endpoint.
func (c *SessionClaims) Claims() bindings.Claims {
	return bindings.Claims{
		UserID:         c.UserID,
		Roles:          c.Roles,
		RefreshTokenID: c.RefreshTokenID,
	}
}

// DecodeUnverified extracts the claims of an access token WITHOUT verifying
// its signature or expiry. Use it only to render session state optimistically
// while a check-session call is in flight.
func DecodeUnverified(token string) (*SessionClaims, error) {
	claims := new(SessionClaims)
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return claims, nil
}
