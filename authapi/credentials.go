package authapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/a-novel/connector-authentication-go/apierrors"
	"github.com/a-novel/connector-authentication-go/bindings"
)

// https://a-novel.github.io/service-authentication/#tag/credentials

const credentialsPath = "/credentials"

// CreateUser creates a new user. The form must contain a short code, that
// was sent through a registration link at the user's desired email.
//
// On success, a valid token pair is returned, that can be used to access
// higher-privilege routes.
func (c *Client) CreateUser(ctx context.Context, token string, form bindings.RegisterForm) (*bindings.TokenResponse, error) {
	if err := bindings.Validate(&form); err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPut, credentialsPath, nil, token, form)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return nil, &apierrors.UnauthorizedError{Message: "invalid credentials"}
	case http.StatusForbidden:
		return nil, &apierrors.ForbiddenError{Message: "permission denied"}
	case http.StatusGone:
		// The service signals email-uniqueness conflicts with 410.
		return nil, &apierrors.EmailTakenError{Message: fmt.Sprintf("email %s is already taken", form.Email)}
	default:
		if !success(resp) {
			return nil, internalError("create user", resp)
		}
		return decodeResponse[bindings.TokenResponse]("create user", resp)
	}
}

// EmailExists returns whether the email is already taken or not. A 404
// answer is not an error: it reports availability.
func (c *Client) EmailExists(ctx context.Context, token string, params bindings.EmailExistsParams) (bool, error) {
	if err := bindings.Validate(&params); err != nil {
		return false, err
	}

	query := url.Values{}
	query.Set("email", params.Email)

	resp, err := c.do(ctx, http.MethodGet, credentialsPath+"/email", query, token, nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return false, &apierrors.UnauthorizedError{Message: "invalid credentials"}
	case http.StatusForbidden:
		return false, &apierrors.ForbiddenError{Message: "permission denied"}
	case http.StatusNotFound:
		return false, nil
	default:
		if !success(resp) {
			return false, internalError("email exists", resp)
		}
		return true, nil
	}
}

type updateEmailResponse struct {
	Email string `json:"email" validate:"required,email,min=3,max=128"`
}

// UpdateEmail updates the email of a user. This route requires a valid short
// code, that was sent to the new email. On success the updated email is
// returned.
func (c *Client) UpdateEmail(ctx context.Context, token string, form bindings.UpdateEmailForm) (string, error) {
	if err := bindings.Validate(&form); err != nil {
		return "", err
	}

	resp, err := c.do(ctx, http.MethodPatch, credentialsPath+"/email", nil, token, form)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return "", &apierrors.UnauthorizedError{Message: "invalid credentials"}
	case http.StatusForbidden:
		return "", &apierrors.ForbiddenError{Message: "permission denied"}
	case http.StatusNotFound:
		return "", &apierrors.UserNotFoundError{Message: "user not found"}
	case http.StatusGone:
		return "", &apierrors.EmailTakenError{
			Message: apierrors.NewErrorResponseMessage("update email", resp.StatusCode, readBody(resp)),
		}
	default:
		if !success(resp) {
			return "", internalError("update email", resp)
		}
		out, err := decodeResponse[updateEmailResponse]("update email", resp)
		if err != nil {
			return "", err
		}
		return out.Email, nil
	}
}

// UpdatePassword updates the password of a user. This route requires the
// original password of the user, to double-check the identity of the caller.
func (c *Client) UpdatePassword(ctx context.Context, token string, form bindings.UpdatePasswordForm) error {
	if err := bindings.Validate(&form); err != nil {
		return err
	}

	resp, err := c.do(ctx, http.MethodPatch, credentialsPath+"/password", nil, token, form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return &apierrors.UnauthorizedError{Message: "invalid credentials"}
	case http.StatusForbidden:
		return &apierrors.ForbiddenError{Message: "permission denied"}
	default:
		if !success(resp) {
			return internalError("update password", resp)
		}
		return nil
	}
}

// UpdateRole updates the role of a user. The server constrains the change by
// the caller's own role: see bindings.UpdateRoleForm.
func (c *Client) UpdateRole(ctx context.Context, token string, form bindings.UpdateRoleForm) (*bindings.User, error) {
	if err := bindings.Validate(&form); err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPatch, credentialsPath+"/role", nil, token, form)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return nil, &apierrors.UnauthorizedError{Message: "invalid credentials"}
	case http.StatusForbidden:
		return nil, &apierrors.ForbiddenError{Message: "permission denied"}
	case http.StatusNotFound:
		return nil, &apierrors.UserNotFoundError{Message: "user not found"}
	case http.StatusUnprocessableEntity:
		return nil, &apierrors.ValidationError{
			Message: apierrors.NewErrorResponseMessage("update role", resp.StatusCode, readBody(resp)),
		}
	default:
		if !success(resp) {
			return nil, internalError("update role", resp)
		}
		return decodeResponse[bindings.User]("update role", resp)
	}
}

// ResetPassword resets the password of a user. This route allows an
// unauthenticated (anonymous) session to update the password of a user,
// guarded by a short code sent to the user's email.
func (c *Client) ResetPassword(ctx context.Context, token string, form bindings.ResetPasswordForm) error {
	if err := bindings.Validate(&form); err != nil {
		return err
	}

	resp, err := c.do(ctx, http.MethodPatch, credentialsPath+"/password/reset", nil, token, form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return &apierrors.UnauthorizedError{Message: "invalid credentials"}
	case http.StatusForbidden:
		return &apierrors.ForbiddenError{Message: "permission denied"}
	default:
		if !success(resp) {
			return internalError("reset password", resp)
		}
		return nil
	}
}
