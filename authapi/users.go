package authapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/a-novel/connector-authentication-go/apierrors"
	"github.com/a-novel/connector-authentication-go/bindings"
)

// https://a-novel.github.io/service-authentication/#tag/users

const (
	usersPath = "/users"
	userPath  = "/user"
)

// ListUsers lists users in the database, paged by the limit/offset window of
// the params.
func (c *Client) ListUsers(ctx context.Context, token string, params bindings.ListUsersParams) ([]bindings.User, error) {
	if err := bindings.Validate(&params); err != nil {
		return nil, err
	}

	query := url.Values{}
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		query.Set("offset", strconv.Itoa(params.Offset))
	}
	for _, role := range params.Roles {
		query.Add("roles", string(role))
	}

	resp, err := c.do(ctx, http.MethodGet, usersPath, query, token, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return nil, &apierrors.UnauthorizedError{Message: "invalid credentials"}
	case http.StatusForbidden:
		return nil, &apierrors.ForbiddenError{Message: "permission denied"}
	default:
		if !success(resp) {
			return nil, internalError("list users", resp)
		}
	}

	var users []bindings.User
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, &apierrors.InternalError{
			Message: fmt.Sprintf("list users: decode response: %v", err),
			Status:  resp.StatusCode,
		}
	}
	for i := range users {
		if err := bindings.Validate(&users[i]); err != nil {
			return nil, &apierrors.InternalError{
				Message: fmt.Sprintf("list users: invalid response: %v", err),
				Status:  resp.StatusCode,
			}
		}
	}

	return users, nil
}

// GetUser fetches a single user record.
func (c *Client) GetUser(ctx context.Context, token string, params bindings.GetUserParams) (*bindings.User, error) {
	if err := bindings.Validate(&params); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("userID", params.UserID.String())

	resp, err := c.do(ctx, http.MethodGet, userPath, query, token, nil)
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
	default:
		if !success(resp) {
			return nil, internalError("get user", resp)
		}
		return decodeResponse[bindings.User]("get user", resp)
	}
}
