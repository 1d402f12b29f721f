// Package authtest runs an in-process fake of the authentication service,
// faithful to its wire contract: same paths, same status codes (including
// the 410 email-conflict convention), same token shapes. It backs the
// connector's own tests and lets consumers test against realistic behaviour
// without network access.
package authtest

import (
	"crypto/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/a-novel/connector-authentication-go/bindings"
	"github.com/a-novel/connector-authentication-go/pkg/tokens"
)

const accessTokenTTL = time.Hour

// Server is a running fake authentication service.
type Server struct {
	echo   *echo.Echo
	server *httptest.Server
	store  *store
	secret []byte
}

// New starts a fake service on a random local port. Call Close when done.
func New() *Server {
	secret := make([]byte, 32)
	_, _ = rand.Read(secret)

	s := &Server{
		echo:   echo.New(),
		store:  newStore(),
		secret: secret,
	}
	s.echo.HideBanner = true
	s.routes()
	s.server = httptest.NewServer(s.echo)

	return s
}

// URL returns the base URL of the fake service, suitable for authapi.Config.
func (s *Server) URL() string { return s.server.URL }

// Close shuts the fake service down.
func (s *Server) Close() { s.server.Close() }

func (s *Server) routes() {
	e := s.echo

	e.PUT("/credentials", s.createUser, s.requireSession)
	e.GET("/credentials/email", s.emailExists, s.requireSession)
	e.PATCH("/credentials/email", s.updateEmail, s.requireSession)
	e.PATCH("/credentials/password", s.updatePassword, s.requireSession)
	e.PATCH("/credentials/role", s.updateRole, s.requireSession)
	e.PATCH("/credentials/password/reset", s.resetPassword, s.requireSession)

	e.GET("/session", s.checkSession, s.requireSession)
	e.PUT("/session", s.createSession)
	e.PUT("/session/anon", s.createAnonymousSession)
	e.PATCH("/session/refresh", s.refreshSession)
	e.PUT("/session/refresh", s.newRefreshToken, s.requireSession)

	e.PUT("/short-code/register", s.requestShortCode(PurposeRegister), s.requireSession)
	e.PUT("/short-code/update-email", s.requestShortCode(PurposeUpdateEmail), s.requireSession)
	e.PUT("/short-code/update-password", s.requestShortCode(PurposeUpdatePassword), s.requireSession)

	e.GET("/users", s.listUsers, s.requireSession)
	e.GET("/user", s.getUser, s.requireSession)
}

// --- Sessions ---

// roleClaims expands a credentials role into the cumulative claims roles a
// session token grants.
func roleClaims(role bindings.CredentialsRole) []bindings.ClaimsRole {
	switch role {
	case bindings.CredentialsRoleSuperAdmin:
		return []bindings.ClaimsRole{bindings.ClaimsRoleSuperAdmin, bindings.ClaimsRoleAdmin, bindings.ClaimsRoleUser}
	case bindings.CredentialsRoleAdmin:
		return []bindings.ClaimsRole{bindings.ClaimsRoleAdmin, bindings.ClaimsRoleUser}
	default:
		return []bindings.ClaimsRole{bindings.ClaimsRoleUser}
	}
}

// issueAccessToken signs an HS256 access token carrying the session claims.
func (s *Server) issueAccessToken(claims tokens.SessionClaims) string {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(accessTokenTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    "authtest",
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims).SignedString(s.secret)
	if err != nil {
		panic("authtest: sign token: " + err.Error())
	}
	return signed
}

func (s *Server) userToken(user *userRecord, refreshTokenID *uuid.UUID) string {
	id := user.id
	return s.issueAccessToken(tokens.SessionClaims{
		UserID:         &id,
		Roles:          roleClaims(user.role),
		RefreshTokenID: refreshTokenID,
	})
}

func (s *Server) anonToken() string {
	return s.issueAccessToken(tokens.SessionClaims{
		Roles: []bindings.ClaimsRole{bindings.ClaimsRoleAnon},
	})
}

// requireSession validates the bearer token and injects its claims into the
// request context.
func (s *Server) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		if header == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
		}

		claims := new(tokens.SessionClaims)
		parsed, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return s.secret, nil
		})
		if err != nil || !parsed.Valid {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}

		c.Set("claims", claims)
		return next(c)
	}
}

func sessionClaims(c echo.Context) *tokens.SessionClaims {
	return c.Get("claims").(*tokens.SessionClaims)
}

// --- Seeding helpers for tests ---

// SeedUser inserts a user directly into the fake store.
func (s *Server) SeedUser(email, password string, role bindings.CredentialsRole) bindings.User {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	record, err := s.store.createUser(email, password, role)
	if err != nil {
		panic("authtest: seed user: " + err.Error())
	}
	return record.dto()
}

// TokenFor returns a direct-login access token for a seeded user.
func (s *Server) TokenFor(email string) string {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	record, ok := s.store.userByEmail(email)
	if !ok {
		panic("authtest: no user seeded for " + email)
	}
	return s.userToken(record, nil)
}

// AnonymousToken returns a valid anonymous access token.
func (s *Server) AnonymousToken() string {
	return s.anonToken()
}

// IssueShortCode mints a valid short code for (purpose, email), replacing
// any prior one, and returns it.
func (s *Server) IssueShortCode(purpose, email string) string {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	return s.store.issueShortCode(purpose, email)
}

// ValidShortCode returns the currently valid code for (purpose, email), or
// an empty string when none is pending.
func (s *Server) ValidShortCode(purpose, email string) string {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	return s.store.shortCodes[shortCodeKey(purpose, email)]
}
