package authquery

import (
	"context"

	"github.com/google/uuid"

	"github.com/a-novel/connector-authentication-go/apierrors"
	"github.com/a-novel/connector-authentication-go/bindings"
	"github.com/a-novel/connector-authentication-go/pkg/query"
)

// DefaultListUsersLimit is the page size used when ListUsersParams leaves
// Limit unset.
const DefaultListUsersLimit = 10

// GetUserParams key the get-user query.
type GetUserParams struct {
	Token  string    `json:"token"`
	UserID uuid.UUID `json:"userID"`
}

// ListUsersParams key one page of the users listing.
type ListUsersParams struct {
	Token  string                     `json:"token"`
	Limit  int                        `json:"limit,omitempty"`
	Offset int                        `json:"offset,omitempty"`
	Roles  []bindings.CredentialsRole `json:"roles,omitempty"`
}

type usersOps struct {
	getUser   *query.Query[GetUserParams, bindings.User]
	listUsers *query.Query[ListUsersParams, []bindings.User]
}

func newUsersOps(c *Client) usersOps {
	getUser := query.NewQuery(c.engine,
		query.QueryConfig[GetUserParams]{
			Name: opGetUser,
			Enabled: func(p GetUserParams) bool {
				return p.Token != "" && p.UserID != uuid.Nil
			},
			RetryTransient: true,
			Transient:      apierrors.IsInternalError,
		},
		func(ctx context.Context, p GetUserParams) (bindings.User, error) {
			user, err := c.api.GetUser(ctx, p.Token, bindings.GetUserParams{UserID: p.UserID})
			if err != nil {
				return bindings.User{}, err
			}
			return *user, nil
		},
	)

	listUsers := query.NewQuery(c.engine,
		query.QueryConfig[ListUsersParams]{
			Name: opListUsers,
			Enabled: func(p ListUsersParams) bool {
				return p.Token != ""
			},
			RetryTransient: true,
			Transient:      apierrors.IsInternalError,
		},
		func(ctx context.Context, p ListUsersParams) ([]bindings.User, error) {
			return c.api.ListUsers(ctx, p.Token, bindings.ListUsersParams{
				Limit:  p.Limit,
				Offset: p.Offset,
				Roles:  p.Roles,
			})
		},
	)

	return usersOps{getUser: getUser, listUsers: listUsers}
}

// GetUser fetches one user record. Results are memoized per (token, userID);
// the query stays disabled until both are present.
func (c *Client) GetUser(ctx context.Context, params GetUserParams) (*bindings.User, error) {
	user, err := c.users.getUser.Get(ctx, params)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers fetches one page of the users listing. Use ListUsersPages for
// cursor-style traversal.
func (c *Client) ListUsers(ctx context.Context, params ListUsersParams) ([]bindings.User, error) {
	return c.users.listUsers.Get(ctx, params)
}

// UsersPaginator walks the users listing in both directions over an
// offset/limit window. It is not safe for concurrent use.
type UsersPaginator struct {
	client *Client
	params ListUsersParams
	limit  int

	// firstOffset is the offset of the earliest fetched page, nextOffset the
	// offset the next page starts at.
	firstOffset int
	nextOffset  int
	exhausted   bool
}

// ListUsersPages starts a paginator at the params' offset. A zero Limit
// falls back to DefaultListUsersLimit.
func (c *Client) ListUsersPages(params ListUsersParams) *UsersPaginator {
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultListUsersLimit
	}

	return &UsersPaginator{
		client:      c,
		params:      params,
		limit:       limit,
		firstOffset: params.Offset,
		nextOffset:  params.Offset,
	}
}

// Next fetches the page at the current offset and advances the window by the
// count of items returned. The second return value reports whether another
// page may follow: a page shorter than the limit (or empty) ends the
// traversal naturally.
func (p *UsersPaginator) Next(ctx context.Context) ([]bindings.User, bool, error) {
	if p.exhausted {
		return nil, false, nil
	}

	params := p.params
	params.Limit = p.limit
	params.Offset = p.nextOffset

	page, err := p.client.ListUsers(ctx, params)
	if err != nil {
		return nil, false, err
	}

	p.nextOffset += len(page)
	if len(page) < p.limit {
		p.exhausted = true
	}

	return page, !p.exhausted, nil
}

// Prev steps the window back by one page limit, floored at zero, and fetches
// the page there. It re-enables forward traversal from that point.
func (p *UsersPaginator) Prev(ctx context.Context) ([]bindings.User, error) {
	offset := p.firstOffset - p.limit
	if offset < 0 {
		offset = 0
	}

	params := p.params
	params.Limit = p.limit
	params.Offset = offset

	page, err := p.client.ListUsers(ctx, params)
	if err != nil {
		return nil, err
	}

	p.firstOffset = offset
	p.exhausted = false

	return page, nil
}

// Offset returns the offset the next call to Next will fetch at.
func (p *UsersPaginator) Offset() int { return p.nextOffset }
