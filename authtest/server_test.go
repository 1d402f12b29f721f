package authtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a-novel/connector-authentication-go/bindings"
	"github.com/a-novel/connector-authentication-go/pkg/tokens"
)

func TestShortCodes(t *testing.T) {
	t.Run("one valid code per purpose and email", func(t *testing.T) {
		server := New()
		t.Cleanup(server.Close)

		first := server.IssueShortCode(PurposeRegister, "user@email.com")
		second := server.IssueShortCode(PurposeRegister, "user@email.com")
		require.NotEqual(t, first, second)

		assert.Equal(t, second, server.ValidShortCode(PurposeRegister, "user@email.com"))
		assert.False(t, server.store.consumeShortCode(PurposeRegister, "user@email.com", first))
		assert.True(t, server.store.consumeShortCode(PurposeRegister, "user@email.com", second))
	})

	t.Run("purposes are independent", func(t *testing.T) {
		server := New()
		t.Cleanup(server.Close)

		register := server.IssueShortCode(PurposeRegister, "user@email.com")
		reset := server.IssueShortCode(PurposeUpdatePassword, "user@email.com")

		assert.Equal(t, register, server.ValidShortCode(PurposeRegister, "user@email.com"))
		assert.Equal(t, reset, server.ValidShortCode(PurposeUpdatePassword, "user@email.com"))
		assert.False(t, server.store.consumeShortCode(PurposeRegister, "user@email.com", reset))
	})

	t.Run("codes are single use", func(t *testing.T) {
		server := New()
		t.Cleanup(server.Close)

		code := server.IssueShortCode(PurposeUpdatePassword, "user@email.com")
		require.True(t, server.store.consumeShortCode(PurposeUpdatePassword, "user@email.com", code))
		assert.False(t, server.store.consumeShortCode(PurposeUpdatePassword, "user@email.com", code))
		assert.Empty(t, server.ValidShortCode(PurposeUpdatePassword, "user@email.com"))
	})

	t.Run("codes fit the wire bounds", func(t *testing.T) {
		code := newShortCode()
		assert.GreaterOrEqual(t, len(code), bindings.ShortCodeMinLength)
		assert.LessOrEqual(t, len(code), bindings.ShortCodeMaxLength)
	})
}

func TestRoleClaims(t *testing.T) {
	testCases := []struct {
		role bindings.CredentialsRole
		want []bindings.ClaimsRole
	}{
		{bindings.CredentialsRoleUser, []bindings.ClaimsRole{bindings.ClaimsRoleUser}},
		{bindings.CredentialsRoleAdmin, []bindings.ClaimsRole{
			bindings.ClaimsRoleAdmin, bindings.ClaimsRoleUser,
		}},
		{bindings.CredentialsRoleSuperAdmin, []bindings.ClaimsRole{
			bindings.ClaimsRoleSuperAdmin, bindings.ClaimsRoleAdmin, bindings.ClaimsRoleUser,
		}},
	}

	for _, tc := range testCases {
		t.Run(string(tc.role), func(t *testing.T) {
			assert.Equal(t, tc.want, roleClaims(tc.role))
		})
	}
}

func TestIssuedTokens(t *testing.T) {
	server := New()
	t.Cleanup(server.Close)

	user := server.SeedUser("user@email.com", "password", bindings.CredentialsRoleSuperAdmin)

	t.Run("user token carries the cumulative roles", func(t *testing.T) {
		claims, err := tokens.DecodeUnverified(server.TokenFor("user@email.com"))
		require.NoError(t, err)

		require.NotNil(t, claims.UserID)
		assert.Equal(t, user.ID, *claims.UserID)
		assert.Equal(t, roleClaims(bindings.CredentialsRoleSuperAdmin), claims.Roles)
		assert.Nil(t, claims.RefreshTokenID)
	})

	t.Run("anonymous token", func(t *testing.T) {
		claims, err := tokens.DecodeUnverified(server.AnonymousToken())
		require.NoError(t, err)
		assert.True(t, claims.Anonymous())
	})
}

func TestStoreListUsers(t *testing.T) {
	server := New()
	t.Cleanup(server.Close)

	server.SeedUser("a@email.com", "password", bindings.CredentialsRoleUser)
	server.SeedUser("b@email.com", "password", bindings.CredentialsRoleAdmin)
	server.SeedUser("c@email.com", "password", bindings.CredentialsRoleUser)

	list := func(limit, offset int, roles ...bindings.CredentialsRole) []bindings.User {
		server.store.mu.Lock()
		defer server.store.mu.Unlock()
		return server.store.listUsers(limit, offset, roles)
	}

	t.Run("deterministic order", func(t *testing.T) {
		users := list(10, 0)
		require.Len(t, users, 3)
		assert.Equal(t, "a@email.com", users[0].Email)
		assert.Equal(t, "b@email.com", users[1].Email)
		assert.Equal(t, "c@email.com", users[2].Email)
	})

	t.Run("window", func(t *testing.T) {
		users := list(1, 1)
		require.Len(t, users, 1)
		assert.Equal(t, "b@email.com", users[0].Email)
	})

	t.Run("offset past the end", func(t *testing.T) {
		assert.Empty(t, list(10, 50))
	})

	t.Run("role filter", func(t *testing.T) {
		users := list(10, 0, bindings.CredentialsRoleAdmin)
		require.Len(t, users, 1)
		assert.Equal(t, "b@email.com", users[0].Email)
	})
}
