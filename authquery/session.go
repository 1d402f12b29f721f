package authquery

import (
	"context"

	"github.com/a-novel/connector-authentication-go/apierrors"
	"github.com/a-novel/connector-authentication-go/bindings"
	"github.com/a-novel/connector-authentication-go/pkg/query"
)

// CheckSessionParams key the check-session query by token.
type CheckSessionParams struct {
	Token string `json:"token"`
}

type sessionOps struct {
	checkSession *query.Query[CheckSessionParams, bindings.Claims]

	createSession   *query.Mutation[bindings.LoginForm, *bindings.TokenResponse]
	createAnonymous *query.Mutation[struct{}, *bindings.TokenResponse]
	refreshSession  *query.Mutation[bindings.RefreshAccessTokenParams, *bindings.TokenResponse]
	newRefreshToken *query.Mutation[AuthForm[struct{}], string]
}

func newSessionOps(c *Client) sessionOps {
	checkSession := query.NewQuery(c.engine,
		query.QueryConfig[CheckSessionParams]{
			Name: opCheckSession,
			Enabled: func(p CheckSessionParams) bool {
				return p.Token != ""
			},
			RetryTransient: true,
			Transient:      apierrors.IsInternalError,
		},
		func(ctx context.Context, p CheckSessionParams) (bindings.Claims, error) {
			claims, err := c.api.CheckSession(ctx, p.Token)
			if err != nil {
				return bindings.Claims{}, err
			}
			return *claims, nil
		},
	)

	// Session state must reflect a fresh token immediately, whichever way it
	// was minted.
	invalidateCheckSession := func(ctx context.Context) error {
		return c.engine.InvalidateAll(ctx, opCheckSession)
	}

	createSession := query.NewMutation(c.engine,
		query.MutationConfig[bindings.LoginForm]{
			Name: opCreateSession,
			OnSuccess: []query.Invalidation[bindings.LoginForm]{
				func(ctx context.Context, _ bindings.LoginForm) error {
					return invalidateCheckSession(ctx)
				},
			},
		},
		func(ctx context.Context, form bindings.LoginForm) (*bindings.TokenResponse, error) {
			return c.api.CreateSession(ctx, form)
		},
	)

	createAnonymous := query.NewMutation(c.engine,
		query.MutationConfig[struct{}]{
			Name: opCreateAnonymous,
			OnSuccess: []query.Invalidation[struct{}]{
				func(ctx context.Context, _ struct{}) error {
					return invalidateCheckSession(ctx)
				},
			},
		},
		func(ctx context.Context, _ struct{}) (*bindings.TokenResponse, error) {
			return c.api.CreateAnonymousSession(ctx)
		},
	)

	refreshSession := query.NewMutation(c.engine,
		query.MutationConfig[bindings.RefreshAccessTokenParams]{
			Name: opRefreshSession,
			OnSuccess: []query.Invalidation[bindings.RefreshAccessTokenParams]{
				func(ctx context.Context, _ bindings.RefreshAccessTokenParams) error {
					return invalidateCheckSession(ctx)
				},
			},
		},
		func(ctx context.Context, params bindings.RefreshAccessTokenParams) (*bindings.TokenResponse, error) {
			return c.api.RefreshSession(ctx, params)
		},
	)

	newRefreshToken := query.NewMutation(c.engine,
		query.MutationConfig[AuthForm[struct{}]]{Name: opNewRefreshToken},
		func(ctx context.Context, f AuthForm[struct{}]) (string, error) {
			return c.api.NewRefreshToken(ctx, f.Token)
		},
	)

	return sessionOps{
		checkSession:    checkSession,
		createSession:   createSession,
		createAnonymous: createAnonymous,
		refreshSession:  refreshSession,
		newRefreshToken: newRefreshToken,
	}
}

// CheckSession returns the decoded claims of the session behind the token.
// Results are memoized per token and the query stays disabled until a
// non-empty token is available; transient failures are retried.
func (c *Client) CheckSession(ctx context.Context, token string) (*bindings.Claims, error) {
	claims, err := c.session.checkSession.Get(ctx, CheckSessionParams{Token: token})
	if err != nil {
		return nil, err
	}
	return &claims, nil
}

// InvalidateCheckSession drops every cached session check.
func (c *Client) InvalidateCheckSession(ctx context.Context) error {
	return c.session.checkSession.InvalidateAll(ctx)
}

// CreateSession logs a user in. On success cached session checks are
// invalidated so session state reflects the new token immediately.
func (c *Client) CreateSession(ctx context.Context, form bindings.LoginForm) (*bindings.TokenResponse, error) {
	return c.session.createSession.Do(ctx, form)
}

// CreateAnonymousSession mints an anonymous token. On success cached session
// checks are invalidated.
func (c *Client) CreateAnonymousSession(ctx context.Context) (*bindings.TokenResponse, error) {
	return c.session.createAnonymous.Do(ctx, struct{}{})
}

// RefreshSession exchanges a refresh token for a fresh access token. On
// success cached session checks are invalidated.
func (c *Client) RefreshSession(ctx context.Context, params bindings.RefreshAccessTokenParams) (*bindings.TokenResponse, error) {
	return c.session.refreshSession.Do(ctx, params)
}

// NewRefreshToken issues a new refresh token for the calling session.
func (c *Client) NewRefreshToken(ctx context.Context, token string) (string, error) {
	return c.session.newRefreshToken.Do(ctx, AuthForm[struct{}]{Token: token})
}
