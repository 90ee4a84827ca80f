package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmont/portal-api/internal/testutil"
)

func TestRedisCacheRepo(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer client.Close()

	repo := NewRedisCacheRepo(client)
	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, "cache-test-key", []byte("payload"), time.Minute))

		got, err := repo.Get(ctx, "cache-test-key")
		require.NoError(t, err)
		assert.Equal(t, []byte("payload"), got)
	})

	t.Run("missing key yields nil", func(t *testing.T) {
		got, err := repo.Get(ctx, "cache-test-missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, "cache-test-delete", []byte("x"), time.Minute))

		deleted, err := repo.Delete(ctx, "cache-test-delete")
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repo.Delete(ctx, "cache-test-delete")
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("ttl expiry", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, "cache-test-ttl", []byte("x"), 100*time.Millisecond))
		time.Sleep(200 * time.Millisecond)

		got, err := repo.Get(ctx, "cache-test-ttl")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("empty key rejected", func(t *testing.T) {
		assert.Error(t, repo.Set(ctx, "", []byte("x"), time.Minute))
		_, err := repo.Get(ctx, "")
		assert.Error(t, err)
	})
}
