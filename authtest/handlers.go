package authtest

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/a-novel/connector-authentication-go/bindings"
	"github.com/a-novel/connector-authentication-go/pkg/tokens"
)

// errorResponse is the canonical error envelope. The connector treats error
// bodies as diagnostic-only, so its exact shape is not part of the contract.
type errorResponse struct {
	Error string `json:"error"`
}

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, errorResponse{Error: message})
}

// --- Credentials ---

func (s *Server) createUser(c echo.Context) error {
	var form bindings.RegisterForm
	if err := c.Bind(&form); err != nil {
		return fail(c, http.StatusBadRequest, "invalid payload")
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if !s.store.consumeShortCode(PurposeRegister, form.Email, form.ShortCode) {
		return fail(c, http.StatusForbidden, "invalid short code")
	}
	if _, taken := s.store.userByEmail(form.Email); taken {
		return fail(c, http.StatusGone, "email already taken")
	}

	record, err := s.store.createUser(form.Email, form.Password, bindings.CredentialsRoleUser)
	if err != nil {
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	refreshTokenID := uuid.New()
	s.store.refreshTokens[refreshTokenID] = record.id

	return c.JSON(http.StatusCreated, bindings.TokenResponse{
		AccessToken:  s.userToken(record, nil),
		RefreshToken: refreshTokenID.String(),
	})
}

func (s *Server) emailExists(c echo.Context) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	if _, ok := s.store.userByEmail(c.QueryParam("email")); !ok {
		return fail(c, http.StatusNotFound, "email not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) updateEmail(c echo.Context) error {
	claims := sessionClaims(c)
	if claims.Anonymous() {
		return fail(c, http.StatusForbidden, "anonymous sessions cannot update emails")
	}

	var form bindings.UpdateEmailForm
	if err := c.Bind(&form); err != nil {
		return fail(c, http.StatusBadRequest, "invalid payload")
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	record, ok := s.store.users[form.UserID]
	if !ok {
		return fail(c, http.StatusNotFound, "user not found")
	}

	// The short code was delivered to the new address, which identifies it.
	newEmail := ""
	prefix := PurposeUpdateEmail + ":"
	for key, code := range s.store.shortCodes {
		if code == form.ShortCode && form.ShortCode != "" && strings.HasPrefix(key, prefix) {
			newEmail = strings.TrimPrefix(key, prefix)
			break
		}
	}
	if newEmail == "" {
		return fail(c, http.StatusForbidden, "invalid short code")
	}
	if _, taken := s.store.byEmail[newEmail]; taken {
		return fail(c, http.StatusGone, "email already taken")
	}

	delete(s.store.shortCodes, shortCodeKey(PurposeUpdateEmail, newEmail))
	delete(s.store.byEmail, record.email)
	record.email = newEmail
	record.updatedAt = time.Now().UTC().Truncate(time.Second)
	s.store.byEmail[newEmail] = record.id

	return c.JSON(http.StatusOK, map[string]string{"email": record.email})
}

func (s *Server) updatePassword(c echo.Context) error {
	claims := sessionClaims(c)
	if claims.Anonymous() {
		return fail(c, http.StatusForbidden, "anonymous sessions have no password")
	}

	var form bindings.UpdatePasswordForm
	if err := c.Bind(&form); err != nil {
		return fail(c, http.StatusBadRequest, "invalid payload")
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	record, ok := s.store.users[*claims.UserID]
	if !ok {
		return fail(c, http.StatusForbidden, "unknown user")
	}
	if bcrypt.CompareHashAndPassword(record.passwordHash, []byte(form.CurrentPassword)) != nil {
		return fail(c, http.StatusForbidden, "invalid current password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.MinCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, err.Error())
	}
	record.passwordHash = hash
	record.updatedAt = time.Now().UTC().Truncate(time.Second)

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) updateRole(c echo.Context) error {
	claims := sessionClaims(c)
	if claims.Anonymous() {
		return fail(c, http.StatusForbidden, "anonymous sessions cannot update roles")
	}

	var form bindings.UpdateRoleForm
	if err := c.Bind(&form); err != nil {
		return fail(c, http.StatusBadRequest, "invalid payload")
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	actor, ok := s.store.users[*claims.UserID]
	if !ok {
		return fail(c, http.StatusForbidden, "unknown actor")
	}
	target, ok := s.store.users[form.UserID]
	if !ok {
		return fail(c, http.StatusNotFound, "user not found")
	}

	// Strict partial order: never raise above the actor's own role, never
	// touch a target at or above the actor's rank.
	if form.Role.Rank() > actor.role.Rank() || target.role.Rank() >= actor.role.Rank() {
		return fail(c, http.StatusUnprocessableEntity, "role update not permitted")
	}

	target.role = form.Role
	target.updatedAt = time.Now().UTC().Truncate(time.Second)

	return c.JSON(http.StatusOK, target.dto())
}

func (s *Server) resetPassword(c echo.Context) error {
	var form bindings.ResetPasswordForm
	if err := c.Bind(&form); err != nil {
		return fail(c, http.StatusBadRequest, "invalid payload")
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	record, ok := s.store.users[form.UserID]
	if !ok {
		return fail(c, http.StatusForbidden, "unknown user")
	}
	if !s.store.consumeShortCode(PurposeUpdatePassword, record.email, form.ShortCode) {
		return fail(c, http.StatusForbidden, "invalid short code")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.MinCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, err.Error())
	}
	record.passwordHash = hash
	record.updatedAt = time.Now().UTC().Truncate(time.Second)

	return c.NoContent(http.StatusNoContent)
}

// --- Session ---

func (s *Server) checkSession(c echo.Context) error {
	return c.JSON(http.StatusOK, sessionClaims(c).Claims())
}

func (s *Server) createSession(c echo.Context) error {
	var form bindings.LoginForm
	if err := c.Bind(&form); err != nil {
		return fail(c, http.StatusBadRequest, "invalid payload")
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	record, ok := s.store.userByEmail(form.Email)
	if !ok {
		return fail(c, http.StatusNotFound, "user not found")
	}
	if bcrypt.CompareHashAndPassword(record.passwordHash, []byte(form.Password)) != nil {
		return fail(c, http.StatusForbidden, "invalid credentials")
	}

	refreshTokenID := uuid.New()
	s.store.refreshTokens[refreshTokenID] = record.id

	return c.JSON(http.StatusOK, bindings.TokenResponse{
		AccessToken:  s.userToken(record, nil),
		RefreshToken: refreshTokenID.String(),
	})
}

func (s *Server) createAnonymousSession(c echo.Context) error {
	return c.JSON(http.StatusOK, bindings.TokenResponse{AccessToken: s.anonToken()})
}

func (s *Server) refreshSession(c echo.Context) error {
	refreshTokenID, err := uuid.Parse(c.QueryParam("refreshToken"))
	if err != nil {
		return fail(c, http.StatusUnprocessableEntity, "invalid refresh token")
	}

	// The access token may be expired here; it only names the session owner.
	accessClaims, err := tokens.DecodeUnverified(c.QueryParam("accessToken"))
	if err != nil {
		return fail(c, http.StatusUnprocessableEntity, "invalid access token")
	}
	if accessClaims.Anonymous() {
		return fail(c, http.StatusForbidden, "anonymous sessions cannot be refreshed")
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	userID, ok := s.store.refreshTokens[refreshTokenID]
	if !ok || userID != *accessClaims.UserID {
		return fail(c, http.StatusUnauthorized, "unknown refresh token")
	}

	record, ok := s.store.users[userID]
	if !ok {
		return fail(c, http.StatusUnauthorized, "unknown user")
	}

	return c.JSON(http.StatusOK, bindings.TokenResponse{
		AccessToken: s.userToken(record, &refreshTokenID),
	})
}

func (s *Server) newRefreshToken(c echo.Context) error {
	claims := sessionClaims(c)
	if claims.Anonymous() {
		return fail(c, http.StatusForbidden, "anonymous sessions cannot mint refresh tokens")
	}
	if claims.RefreshTokenID != nil {
		return fail(c, http.StatusForbidden, "session must come from direct login")
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	refreshTokenID := uuid.New()
	s.store.refreshTokens[refreshTokenID] = *claims.UserID

	return c.JSON(http.StatusOK, map[string]string{"refreshToken": refreshTokenID.String()})
}

// --- Short codes ---

func (s *Server) requestShortCode(purpose string) echo.HandlerFunc {
	return func(c echo.Context) error {
		var form struct {
			Email string        `json:"email"`
			Lang  bindings.Lang `json:"lang"`
		}
		if err := c.Bind(&form); err != nil {
			return fail(c, http.StatusBadRequest, "invalid payload")
		}

		s.store.mu.Lock()
		defer s.store.mu.Unlock()

		// Delivery is out of band: the fake only records the code. Tests
		// retrieve it through ValidShortCode.
		s.store.issueShortCode(purpose, form.Email)

		return c.NoContent(http.StatusNoContent)
	}
}

// --- Users ---

func (s *Server) listUsers(c echo.Context) error {
	claims := sessionClaims(c)
	if !hasAdminRole(claims.Roles) {
		return fail(c, http.StatusForbidden, "admin role required")
	}

	limit := 10
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > bindings.PaginationMaxLimit {
			return fail(c, http.StatusBadRequest, "invalid limit")
		}
		limit = parsed
	}

	offset := 0
	if raw := c.QueryParam("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return fail(c, http.StatusBadRequest, "invalid offset")
		}
		offset = parsed
	}

	roles := make([]bindings.CredentialsRole, 0)
	for _, raw := range c.QueryParams()["roles"] {
		roles = append(roles, bindings.CredentialsRole(raw))
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	return c.JSON(http.StatusOK, s.store.listUsers(limit, offset, roles))
}

func (s *Server) getUser(c echo.Context) error {
	claims := sessionClaims(c)
	if claims.Anonymous() {
		return fail(c, http.StatusForbidden, "anonymous sessions cannot read users")
	}

	userID, err := uuid.Parse(c.QueryParam("userID"))
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid userID")
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	record, ok := s.store.users[userID]
	if !ok {
		return fail(c, http.StatusNotFound, "user not found")
	}

	return c.JSON(http.StatusOK, record.dto())
}

func hasAdminRole(roles []bindings.ClaimsRole) bool {
	for _, role := range roles {
		if role == bindings.ClaimsRoleAdmin || role == bindings.ClaimsRoleSuperAdmin {
			return true
		}
	}
	return false
}
