package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	type args struct {
		Token string `json:"token"`
		Email string `json:"email"`
	}

	t.Run("deterministic", func(t *testing.T) {
		key1, err := Key("credentials.email-exists", args{Token: "t", Email: "user@email.com"})
		require.NoError(t, err)
		key2, err := Key("credentials.email-exists", args{Token: "t", Email: "user@email.com"})
		require.NoError(t, err)

		assert.Equal(t, key1, key2)
	})

	t.Run("argument-sensitive", func(t *testing.T) {
		key1, err := Key("credentials.email-exists", args{Token: "t", Email: "user@email.com"})
		require.NoError(t, err)
		key2, err := Key("credentials.email-exists", args{Token: "t", Email: "other@email.com"})
		require.NoError(t, err)

		assert.NotEqual(t, key1, key2)
	})

	t.Run("token-sensitive", func(t *testing.T) {
		key1, err := Key("session.check", args{Token: "session-a"})
		require.NoError(t, err)
		key2, err := Key("session.check", args{Token: "session-b"})
		require.NoError(t, err)

		assert.NotEqual(t, key1, key2)
	})

	t.Run("operation-sensitive", func(t *testing.T) {
		key1, err := Key("users.get", args{Token: "t"})
		require.NoError(t, err)
		key2, err := Key("users.list", args{Token: "t"})
		require.NoError(t, err)

		assert.NotEqual(t, key1, key2)
	})

	t.Run("matches its operation prefix", func(t *testing.T) {
		key, err := Key("session.check", args{Token: "t"})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(key, Prefix("session.check")))

		// A longer operation name sharing the same stem must not collide.
		other, err := Key("session.checkout", args{Token: "t"})
		require.NoError(t, err)
		assert.False(t, strings.HasPrefix(other, Prefix("session.check")))
	})

	t.Run("rejects unencodable arguments", func(t *testing.T) {
		_, err := Key("bad", make(chan int))
		require.Error(t, err)
	})
}
