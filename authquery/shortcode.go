package authquery

import (
	"context"

	"github.com/a-novel/connector-authentication-go/bindings"
	"github.com/a-novel/connector-authentication-go/pkg/query"
)

type shortCodeOps struct {
	requestRegistration  *query.Mutation[AuthForm[bindings.RequestRegistrationForm], struct{}]
	requestEmailUpdate   *query.Mutation[AuthForm[bindings.RequestEmailUpdateForm], struct{}]
	requestPasswordReset *query.Mutation[AuthForm[bindings.RequestPasswordResetForm], struct{}]
}

func newShortCodeOps(c *Client) shortCodeOps {
	requestRegistration := query.NewMutation(c.engine,
		query.MutationConfig[AuthForm[bindings.RequestRegistrationForm]]{Name: opRequestRegistration},
		func(ctx context.Context, f AuthForm[bindings.RequestRegistrationForm]) (struct{}, error) {
			return struct{}{}, c.api.RequestRegistration(ctx, f.Token, f.Form)
		},
	)

	requestEmailUpdate := query.NewMutation(c.engine,
		query.MutationConfig[AuthForm[bindings.RequestEmailUpdateForm]]{Name: opRequestEmailUpdate},
		func(ctx context.Context, f AuthForm[bindings.RequestEmailUpdateForm]) (struct{}, error) {
			return struct{}{}, c.api.RequestEmailUpdate(ctx, f.Token, f.Form)
		},
	)

	requestPasswordReset := query.NewMutation(c.engine,
		query.MutationConfig[AuthForm[bindings.RequestPasswordResetForm]]{Name: opRequestPasswordReset},
		func(ctx context.Context, f AuthForm[bindings.RequestPasswordResetForm]) (struct{}, error) {
			return struct{}{}, c.api.RequestPasswordReset(ctx, f.Token, f.Form)
		},
	)

	return shortCodeOps{
		requestRegistration:  requestRegistration,
		requestEmailUpdate:   requestEmailUpdate,
		requestPasswordReset: requestPasswordReset,
	}
}

// RequestRegistration asks for a registration link at the given email.
func (c *Client) RequestRegistration(ctx context.Context, token string, form bindings.RequestRegistrationForm) error {
	_, err := c.shortCode.requestRegistration.Do(ctx, AuthForm[bindings.RequestRegistrationForm]{Token: token, Form: form})
	return err
}

// RequestEmailUpdate asks for an email update link at the new address.
func (c *Client) RequestEmailUpdate(ctx context.Context, token string, form bindings.RequestEmailUpdateForm) error {
	_, err := c.shortCode.requestEmailUpdate.Do(ctx, AuthForm[bindings.RequestEmailUpdateForm]{Token: token, Form: form})
	return err
}

// RequestPasswordReset asks for a password reset link at the user's email.
func (c *Client) RequestPasswordReset(ctx context.Context, token string, form bindings.RequestPasswordResetForm) error {
	_, err := c.shortCode.requestPasswordReset.Do(ctx, AuthForm[bindings.RequestPasswordResetForm]{Token: token, Form: form})
	return err
}
