package query

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, ttl), mr
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()

	t.Run("get and set", func(t *testing.T) {
		store, _ := newRedisStore(t, 0)

		_, ok, err := store.Get(ctx, "query:op:a")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, store.Set(ctx, "query:op:a", []byte("value")))

		got, ok, err := store.Get(ctx, "query:op:a")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []byte("value"), got)
	})

	t.Run("entries expire", func(t *testing.T) {
		store, mr := newRedisStore(t, time.Minute)
		require.NoError(t, store.Set(ctx, "query:op:a", []byte("value")))

		mr.FastForward(2 * time.Minute)

		_, ok, err := store.Get(ctx, "query:op:a")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("delete", func(t *testing.T) {
		store, _ := newRedisStore(t, 0)
		require.NoError(t, store.Set(ctx, "query:op:a", []byte("value")))

		require.NoError(t, store.Delete(ctx, "query:op:a"))

		_, ok, err := store.Get(ctx, "query:op:a")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("delete prefix", func(t *testing.T) {
		store, mr := newRedisStore(t, 0)
		require.NoError(t, store.Set(ctx, "query:users.list:a", []byte("1")))
		require.NoError(t, store.Set(ctx, "query:users.list:b", []byte("2")))
		require.NoError(t, store.Set(ctx, "query:users.get:c", []byte("3")))

		require.NoError(t, store.DeletePrefix(ctx, "query:users.list:"))

		assert.False(t, mr.Exists("query:users.list:a"))
		assert.False(t, mr.Exists("query:users.list:b"))
		assert.True(t, mr.Exists("query:users.get:c"))
	})
}
