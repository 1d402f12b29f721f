package authquery

import (
	"context"

	"github.com/a-novel/connector-authentication-go/apierrors"
	"github.com/a-novel/connector-authentication-go/bindings"
	"github.com/a-novel/connector-authentication-go/pkg/query"
)

// EmailExistsParams key the email-exists query. The token is part of the key
// so distinct sessions never share cached answers.
type EmailExistsParams struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// AuthForm carries an authenticated mutation payload: the caller's access
// token plus the request form.
type AuthForm[F any] struct {
	Token string `json:"token"`
	Form  F      `json:"form"`
}

type credentialsOps struct {
	emailExists *query.Query[EmailExistsParams, bool]

	createUser     *query.Mutation[AuthForm[bindings.RegisterForm], *bindings.TokenResponse]
	updateEmail    *query.Mutation[AuthForm[bindings.UpdateEmailForm], string]
	updatePassword *query.Mutation[AuthForm[bindings.UpdatePasswordForm], struct{}]
	updateRole     *query.Mutation[AuthForm[bindings.UpdateRoleForm], bindings.User]
	resetPassword  *query.Mutation[AuthForm[bindings.ResetPasswordForm], struct{}]
}

func newCredentialsOps(c *Client) credentialsOps {
	emailExists := query.NewQuery(c.engine,
		query.QueryConfig[EmailExistsParams]{
			Name: opEmailExists,
			Enabled: func(p EmailExistsParams) bool {
				return p.Token != "" && p.Email != ""
			},
			RetryTransient: true,
			Transient:      apierrors.IsInternalError,
		},
		func(ctx context.Context, p EmailExistsParams) (bool, error) {
			return c.api.EmailExists(ctx, p.Token, bindings.EmailExistsParams{Email: p.Email})
		},
	)

	// A successful registration claims an email; a successful email update
	// claims one and frees another, whose address is unknown here. In both
	// cases the set of affected keys is only partially known (entries are
	// token-scoped), so the whole email-exists namespace is reset.
	invalidateEmailExists := func(ctx context.Context, _ AuthForm[bindings.RegisterForm]) error {
		return c.engine.InvalidateAll(ctx, opEmailExists)
	}

	createUser := query.NewMutation(c.engine,
		query.MutationConfig[AuthForm[bindings.RegisterForm]]{
			Name:      opCreateUser,
			OnSuccess: []query.Invalidation[AuthForm[bindings.RegisterForm]]{invalidateEmailExists},
		},
		func(ctx context.Context, f AuthForm[bindings.RegisterForm]) (*bindings.TokenResponse, error) {
			return c.api.CreateUser(ctx, f.Token, f.Form)
		},
	)

	updateEmail := query.NewMutation(c.engine,
		query.MutationConfig[AuthForm[bindings.UpdateEmailForm]]{
			Name: opUpdateEmail,
			OnSuccess: []query.Invalidation[AuthForm[bindings.UpdateEmailForm]]{
				func(ctx context.Context, _ AuthForm[bindings.UpdateEmailForm]) error {
					return c.engine.InvalidateAll(ctx, opEmailExists)
				},
			},
		},
		func(ctx context.Context, f AuthForm[bindings.UpdateEmailForm]) (string, error) {
			return c.api.UpdateEmail(ctx, f.Token, f.Form)
		},
	)

	updatePassword := query.NewMutation(c.engine,
		query.MutationConfig[AuthForm[bindings.UpdatePasswordForm]]{Name: opUpdatePassword},
		func(ctx context.Context, f AuthForm[bindings.UpdatePasswordForm]) (struct{}, error) {
			return struct{}{}, c.api.UpdatePassword(ctx, f.Token, f.Form)
		},
	)

	updateRole := query.NewMutation(c.engine,
		query.MutationConfig[AuthForm[bindings.UpdateRoleForm]]{Name: opUpdateRole},
		func(ctx context.Context, f AuthForm[bindings.UpdateRoleForm]) (bindings.User, error) {
			user, err := c.api.UpdateRole(ctx, f.Token, f.Form)
			if err != nil {
				return bindings.User{}, err
			}
			return *user, nil
		},
	)

	resetPassword := query.NewMutation(c.engine,
		query.MutationConfig[AuthForm[bindings.ResetPasswordForm]]{Name: opResetPassword},
		func(ctx context.Context, f AuthForm[bindings.ResetPasswordForm]) (struct{}, error) {
			return struct{}{}, c.api.ResetPassword(ctx, f.Token, f.Form)
		},
	)

	return credentialsOps{
		emailExists:    emailExists,
		createUser:     createUser,
		updateEmail:    updateEmail,
		updatePassword: updatePassword,
		updateRole:     updateRole,
		resetPassword:  resetPassword,
	}
}

// EmailExists reports whether an email is already claimed. Results are
// cached per (token, email); the query is disabled until both are present.
func (c *Client) EmailExists(ctx context.Context, params EmailExistsParams) (bool, error) {
	return c.credentials.emailExists.Get(ctx, params)
}

// InvalidateEmailExists drops every cached email-exists answer.
func (c *Client) InvalidateEmailExists(ctx context.Context) error {
	return c.credentials.emailExists.InvalidateAll(ctx)
}

// CreateUser registers a new user. On success every cached email-exists
// answer is invalidated, since a new email has been claimed.
func (c *Client) CreateUser(ctx context.Context, token string, form bindings.RegisterForm) (*bindings.TokenResponse, error) {
	return c.credentials.createUser.Do(ctx, AuthForm[bindings.RegisterForm]{Token: token, Form: form})
}

// UpdateEmail changes the email of a user. On success every cached
// email-exists answer is invalidated: a new email has been claimed and the
// old one freed.
func (c *Client) UpdateEmail(ctx context.Context, token string, form bindings.UpdateEmailForm) (string, error) {
	return c.credentials.updateEmail.Do(ctx, AuthForm[bindings.UpdateEmailForm]{Token: token, Form: form})
}

// UpdatePassword changes the password of the calling user.
func (c *Client) UpdatePassword(ctx context.Context, token string, form bindings.UpdatePasswordForm) error {
	_, err := c.credentials.updatePassword.Do(ctx, AuthForm[bindings.UpdatePasswordForm]{Token: token, Form: form})
	return err
}

// UpdateRole changes the role of a user and returns the updated record.
func (c *Client) UpdateRole(ctx context.Context, token string, form bindings.UpdateRoleForm) (*bindings.User, error) {
	user, err := c.credentials.updateRole.Do(ctx, AuthForm[bindings.UpdateRoleForm]{Token: token, Form: form})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ResetPassword resets a password from an anonymous session, using a short
// code delivered by email.
func (c *Client) ResetPassword(ctx context.Context, token string, form bindings.ResetPasswordForm) error {
	_, err := c.credentials.resetPassword.Do(ctx, AuthForm[bindings.ResetPasswordForm]{Token: token, Form: form})
	return err
}
