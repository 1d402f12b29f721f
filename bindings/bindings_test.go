package bindings

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a-novel/connector-authentication-go/apierrors"
)

func TestValidateLoginForm(t *testing.T) {
	testCases := []struct {
		name    string
		form    LoginForm
		wantErr string
	}{
		{
			name: "valid",
			form: LoginForm{Email: "user@example.com", Password: "secret"},
		},
		{
			name:    "missing email",
			form:    LoginForm{Password: "secret"},
			wantErr: "email is required",
		},
		{
			name:    "not an email",
			form:    LoginForm{Email: "not-an-email", Password: "secret"},
			wantErr: "email must be a valid email",
		},
		{
			name:    "email too long",
			form:    LoginForm{Email: strings.Repeat("a", 120) + "@example.com", Password: "secret"},
			wantErr: "email must be at most 128",
		},
		{
			name:    "password too short",
			form:    LoginForm{Email: "user@example.com", Password: "x"},
			wantErr: "password must be at least 2",
		},
		{
			name:    "password too long",
			form:    LoginForm{Email: "user@example.com", Password: strings.Repeat("x", 1025)},
			wantErr: "password must be at most 1024",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(&tc.form)
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.True(t, apierrors.IsValidationError(err))
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateShortCodeBounds(t *testing.T) {
	form := RegisterForm{Email: "user@example.com", Password: "secret", ShortCode: strings.Repeat("c", 33)}
	err := Validate(&form)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shortcode must be at most 32")

	form.ShortCode = "c"
	require.NoError(t, Validate(&form))
}

func TestValidateListUsersParams(t *testing.T) {
	require.NoError(t, Validate(&ListUsersParams{Limit: 1000, Offset: 0}))
	require.NoError(t, Validate(&ListUsersParams{Roles: []CredentialsRole{CredentialsRoleAdmin}}))

	err := Validate(&ListUsersParams{Limit: 1001})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit must be at most 1000")

	err = Validate(&ListUsersParams{Offset: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offset")

	err = Validate(&ListUsersParams{Roles: []CredentialsRole{"root"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be one of")
}

func TestValidateUpdateRoleForm(t *testing.T) {
	require.NoError(t, Validate(&UpdateRoleForm{UserID: uuid.New(), Role: CredentialsRoleSuperAdmin}))

	err := Validate(&UpdateRoleForm{Role: CredentialsRoleAdmin})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "userid is required")
}

func TestUserRoundTrip(t *testing.T) {
	raw := `{
		"id": "0198f1a0-1a2b-7c3d-8e4f-5a6b7c8d9e0f",
		"email": "user@example.com",
		"role": "admin",
		"createdAt": "2025-03-14T15:09:26Z",
		"updatedAt": "2025-06-01T08:00:00Z"
	}`

	var user User
	require.NoError(t, json.Unmarshal([]byte(raw), &user))
	require.NoError(t, Validate(&user))

	// Timestamps are date values in memory, equal to the original instants.
	assert.Equal(t, time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC), user.CreatedAt.UTC())
	assert.Equal(t, time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC), user.UpdatedAt.UTC())

	encoded, err := json.Marshal(user)
	require.NoError(t, err)

	var decoded User
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.True(t, decoded.CreatedAt.Equal(user.CreatedAt))
	assert.Equal(t, user, decoded)
}

func TestClaimsAnonymous(t *testing.T) {
	raw := `{"roles": ["auth:anon"]}`

	var claims Claims
	require.NoError(t, json.Unmarshal([]byte(raw), &claims))
	require.NoError(t, Validate(&claims))
	assert.Nil(t, claims.UserID)
	assert.Nil(t, claims.RefreshTokenID)
}

func TestRoleRank(t *testing.T) {
	assert.Greater(t, CredentialsRoleSuperAdmin.Rank(), CredentialsRoleAdmin.Rank())
	assert.Greater(t, CredentialsRoleAdmin.Rank(), CredentialsRoleUser.Rank())
	assert.Greater(t, CredentialsRoleUser.Rank(), CredentialsRole("unknown").Rank())
}
