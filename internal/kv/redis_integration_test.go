//go:build integration

package kv_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rafaeljc/bifrost/internal/kv"
	"github.com/rafaeljc/bifrost/internal/testsupport"
)

func TestRedisStore_Integration(t *testing.T) {
	ctx := context.Background()
	redisCtr, err := testsupport.StartRedisContainer(ctx)
	require.NoError(t, err)
	defer redisCtr.Terminate(ctx)

	store := kv.NewRedisStore(redisCtr.Client)

	t.Run("Should report missing keys as not found", func(t *testing.T) {
		require.NoError(t, redisCtr.Flush(ctx))

		v, ok, err := store.Get(ctx, "bifrost:bucket_id")

		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, v)
	})

	t.Run("Should persist values without expiry", func(t *testing.T) {
		require.NoError(t, redisCtr.Flush(ctx))

		require.NoError(t, store.Set(ctx, "bifrost:bucket_id", "lz0abc_12345678"))
		v, ok, err := store.Get(ctx, "bifrost:bucket_id")

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "lz0abc_12345678", v)

		ttl, err := redisCtr.Client.TTL(ctx, "bifrost:bucket_id").Result()
		require.NoError(t, err)
		assert.Equal(t, int64(-1), int64(ttl), "key must not expire")
	})

	t.Run("Should surface transport errors", func(t *testing.T) {
		closedCtr, err := testsupport.StartRedisContainer(ctx)
		require.NoError(t, err)
		defer closedCtr.Container.Terminate(ctx)
		require.NoError(t, closedCtr.Client.Close())

		_, _, err = kv.NewRedisStore(closedCtr.Client).Get(ctx, "k")

		assert.Error(t, err)
	})
}
