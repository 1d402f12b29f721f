package authapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/a-novel/connector-authentication-go/apierrors"
	"github.com/a-novel/connector-authentication-go/bindings"
)

// https://a-novel.github.io/service-authentication/#tag/session

const sessionPath = "/session"

// CheckSession validates the bearer token and returns the decoded claims of
// the session it represents.
func (c *Client) CheckSession(ctx context.Context, token string) (*bindings.Claims, error) {
	resp, err := c.do(ctx, http.MethodGet, sessionPath, nil, token, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return nil, &apierrors.UnauthorizedError{Message: "invalid session"}
	default:
		if !success(resp) {
			return nil, internalError("check session", resp)
		}
		return decodeResponse[bindings.Claims]("check session", resp)
	}
}

// CreateSession authenticates a user with its credentials and issues a new
// token pair. No bearer token is required.
func (c *Client) CreateSession(ctx context.Context, form bindings.LoginForm) (*bindings.TokenResponse, error) {
	if err := bindings.Validate(&form); err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPut, sessionPath, nil, "", form)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusForbidden:
		return nil, &apierrors.ForbiddenError{Message: "invalid credentials"}
	case http.StatusNotFound:
		return nil, &apierrors.UserNotFoundError{Message: "user not found"}
	default:
		if !success(resp) {
			return nil, internalError("create session", resp)
		}
		return decodeResponse[bindings.TokenResponse]("create session", resp)
	}
}

// CreateAnonymousSession issues a token granting minimal, unauthenticated
// access. It is delivered without constraint.
func (c *Client) CreateAnonymousSession(ctx context.Context) (*bindings.TokenResponse, error) {
	resp, err := c.do(ctx, http.MethodPut, sessionPath+"/anon", nil, "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !success(resp) {
		return nil, internalError("create anon session", resp)
	}
	return decodeResponse[bindings.TokenResponse]("create anon session", resp)
}

// RefreshSession exchanges a refresh token for a new access token. Both
// tokens travel as query parameters.
func (c *Client) RefreshSession(ctx context.Context, params bindings.RefreshAccessTokenParams) (*bindings.TokenResponse, error) {
	if err := bindings.Validate(&params); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("accessToken", params.AccessToken)
	query.Set("refreshToken", params.RefreshToken)

	resp, err := c.do(ctx, http.MethodPatch, sessionPath+"/refresh", query, "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return nil, &apierrors.UnauthorizedError{Message: "invalid credentials"}
	case http.StatusForbidden:
		return nil, &apierrors.ForbiddenError{Message: "permission denied"}
	case http.StatusUnprocessableEntity:
		return nil, &apierrors.ValidationError{
			Message: apierrors.NewErrorResponseMessage("refresh session", resp.StatusCode, readBody(resp)),
		}
	default:
		if !success(resp) {
			return nil, internalError("refresh session", resp)
		}
		return decodeResponse[bindings.TokenResponse]("refresh session", resp)
	}
}

type newRefreshTokenResponse struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// NewRefreshToken issues a new refresh token. The access token used for this
// request must not be anonymous, and must come from direct login (not from a
// refresh).
func (c *Client) NewRefreshToken(ctx context.Context, token string) (string, error) {
	resp, err := c.do(ctx, http.MethodPut, sessionPath+"/refresh", nil, token, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return "", &apierrors.UnauthorizedError{Message: "invalid credentials"}
	case http.StatusForbidden:
		return "", &apierrors.ForbiddenError{Message: "permission denied"}
	default:
		if !success(resp) {
			return "", internalError("new refresh token", resp)
		}
		out, err := decodeResponse[newRefreshTokenResponse]("new refresh token", resp)
		if err != nil {
			return "", err
		}
		return out.RefreshToken, nil
	}
}
