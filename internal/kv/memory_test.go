package kv

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	t.Run("Should report missing keys as not found", func(t *testing.T) {
		t.Parallel()

		// Arrange
		s := NewMemoryStore()

		// Act
		v, ok, err := s.Get(context.Background(), "missing")

		// Assert
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, v)
	})

	t.Run("Should overwrite previous values", func(t *testing.T) {
		t.Parallel()

		// Arrange
		ctx := context.Background()
		s := NewMemoryStore()

		// Act
		require.NoError(t, s.Set(ctx, "k", "v1"))
		require.NoError(t, s.Set(ctx, "k", "v2"))
		v, ok, err := s.Get(ctx, "k")

		// Assert
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "v2", v)
	})

	t.Run("Should respect cancelled contexts", func(t *testing.T) {
		t.Parallel()

		// Arrange
		s := NewMemoryStore()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// Act & Assert
		_, _, err := s.Get(ctx, "k")
		assert.ErrorIs(t, err, context.Canceled)
		assert.ErrorIs(t, s.Set(ctx, "k", "v"), context.Canceled)
	})

	t.Run("Should be safe for concurrent use", func(t *testing.T) {
		t.Parallel()

		// Arrange
		ctx := context.Background()
		s := NewMemoryStore()
		var wg sync.WaitGroup

		// Act
		for i := range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				key := fmt.Sprintf("k-%d", i%5)
				_ = s.Set(ctx, key, "v")
				_, _, _ = s.Get(ctx, key)
			}()
		}
		wg.Wait()

		// Assert
		for i := range 5 {
			_, ok, err := s.Get(ctx, fmt.Sprintf("k-%d", i))
			require.NoError(t, err)
			assert.True(t, ok)
		}
	})
}
