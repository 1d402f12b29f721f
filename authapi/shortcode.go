package authapi

import (
	"context"
	"net/http"

	"github.com/a-novel/connector-authentication-go/apierrors"
	"github.com/a-novel/connector-authentication-go/bindings"
)

// https://a-novel.github.io/service-authentication/#tag/shortcode

const shortCodePath = "/short-code"

// RequestRegistration asks the service to send a registration link to the
// given email. The short code it carries must accompany the later
// registration payload for the same email.
//
// If multiple registration links are requested for the same email, only the
// last one will be valid.
func (c *Client) RequestRegistration(ctx context.Context, token string, form bindings.RequestRegistrationForm) error {
	return c.requestShortCode(ctx, "request registration", shortCodePath+"/register", token, form)
}

// RequestEmailUpdate asks the service to send an email update link to the
// new address. Anonymous sessions cannot trigger an email update request.
//
// If multiple email update links are requested for the same email, only the
// last one will be valid.
func (c *Client) RequestEmailUpdate(ctx context.Context, token string, form bindings.RequestEmailUpdateForm) error {
	return c.requestShortCode(ctx, "request email update", shortCodePath+"/update-email", token, form)
}

// RequestPasswordReset asks the service to send a password reset link to the
// user's email. An anonymous session is enough, so users who forgot their
// password can reset it.
//
// If multiple password reset links are requested for the same email, only
// the last one will be valid.
func (c *Client) RequestPasswordReset(ctx context.Context, token string, form bindings.RequestPasswordResetForm) error {
	return c.requestShortCode(ctx, "request password reset", shortCodePath+"/update-password", token, form)
}

// requestShortCode issues one short-code creation call. All three endpoints
// share the same contract: PUT, bearer token, 401 on invalid credentials.
func (c *Client) requestShortCode(ctx context.Context, op, path, token string, form any) error {
	if err := bindings.Validate(form); err != nil {
		return err
	}

	resp, err := c.do(ctx, http.MethodPut, path, nil, token, form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return &apierrors.UnauthorizedError{Message: "invalid credentials"}
	default:
		if !success(resp) {
			return internalError(op, resp)
		}
		return nil
	}
}
