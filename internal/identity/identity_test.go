package identity

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rafaeljc/bifrost/internal/kv"
	"github.com/rafaeljc/bifrost/internal/logger"
)

var idPattern = regexp.MustCompile(`^[0-9a-z]+_[0-9a-z]{8}$`)

// flakyStore wraps a MemoryStore and fails reads/writes on demand.
type flakyStore struct {
	inner    *kv.MemoryStore
	failGet  atomic.Bool
	failSet  atomic.Bool
	getCalls atomic.Int32
	setCalls atomic.Int32
}

func newFlakyStore() *flakyStore {
	return &flakyStore{inner: kv.NewMemoryStore()}
}

func (f *flakyStore) Get(ctx context.Context, key string) (string, bool, error) {
	f.getCalls.Add(1)
	if f.failGet.Load() {
		return "", false, errors.New("storage read unavailable")
	}
	return f.inner.Get(ctx, key)
}

func (f *flakyStore) Set(ctx context.Context, key, value string) error {
	f.setCalls.Add(1)
	if f.failSet.Load() {
		return errors.New("storage write unavailable")
	}
	return f.inner.Set(ctx, key, value)
}

func TestNewID(t *testing.T) {
	t.Parallel()

	t.Run("Should encode the timestamp in base36 followed by 8 random chars", func(t *testing.T) {
		t.Parallel()

		// Arrange
		now := time.UnixMilli(1_700_000_000_000)

		// Act
		id, err := NewID(now, bytes.NewReader(bytes.Repeat([]byte{0, 1, 2, 3, 35, 36, 71, 251}, 2)))

		// Assert
		require.NoError(t, err)
		assert.Regexp(t, idPattern, id)
		prefix, suffix, _ := strings.Cut(id, "_")
		assert.Equal(t, strconv.FormatInt(now.UnixMilli(), 36), prefix)
		assert.Equal(t, "0123z0zz", suffix)
	})

	t.Run("Should reject biased bytes and keep drawing", func(t *testing.T) {
		t.Parallel()

		// Arrange: first 8 bytes are all rejected (>= 252)
		src := append(bytes.Repeat([]byte{255}, 8), bytes.Repeat([]byte{10}, 8)...)

		// Act
		id, err := NewID(time.UnixMilli(0), bytes.NewReader(src))

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "0_aaaaaaaa", id)
	})

	t.Run("Should fail with ErrEntropy when the random source fails", func(t *testing.T) {
		t.Parallel()

		_, err := NewID(time.Now(), iotest.ErrReader(errors.New("boom")))

		assert.ErrorIs(t, err, ErrEntropy)
	})
}

func TestStore_GetOrCreateBucketID(t *testing.T) {
	t.Parallel()

	t.Run("Should create once and return the same id afterwards", func(t *testing.T) {
		t.Parallel()

		// Arrange
		ctx := context.Background()
		backing := newFlakyStore()
		s := NewStore(backing, logger.Nop())

		// Act
		first, err1 := s.GetOrCreateBucketID(ctx)
		second, err2 := s.GetOrCreateBucketID(ctx)

		// Assert
		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.Regexp(t, idPattern, first)
		assert.Equal(t, first, second)
		assert.Equal(t, int32(1), backing.setCalls.Load(), "identity should be persisted exactly once")

		stored, ok, err := backing.inner.Get(ctx, DefaultKey)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, first, stored)
	})

	t.Run("Should return the persisted id across restarts", func(t *testing.T) {
		t.Parallel()

		// Arrange: simulate a previous process run
		ctx := context.Background()
		backing := kv.NewMemoryStore()
		require.NoError(t, backing.Set(ctx, "custom:key", "lz0abc_12345678"))

		// Act
		id, err := NewStore(backing, logger.Nop(), WithKey("custom:key")).GetOrCreateBucketID(ctx)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "lz0abc_12345678", id)
	})

	t.Run("Should generate and persist a fresh id when the read fails", func(t *testing.T) {
		t.Parallel()

		// Arrange
		ctx := context.Background()
		backing := newFlakyStore()
		backing.failGet.Store(true)
		s := NewStore(backing, logger.Nop())

		// Act
		id, err := s.GetOrCreateBucketID(ctx)

		// Assert
		require.NoError(t, err)
		assert.Regexp(t, idPattern, id)
		stored, ok, _ := backing.inner.Get(ctx, DefaultKey)
		assert.True(t, ok)
		assert.Equal(t, id, stored)
	})

	t.Run("Should fall back to ephemeral ids while storage is unavailable", func(t *testing.T) {
		t.Parallel()

		// Arrange
		ctx := context.Background()
		backing := newFlakyStore()
		backing.failGet.Store(true)
		backing.failSet.Store(true)
		s := NewStore(backing, logger.Nop())

		// Act
		first, err1 := s.GetOrCreateBucketID(ctx)
		second, err2 := s.GetOrCreateBucketID(ctx)

		// Assert: best effort only; ids are usable but may differ between calls.
		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.Regexp(t, idPattern, first)
		assert.Regexp(t, idPattern, second)
		assert.Equal(t, int32(2), backing.setCalls.Load(), "each call should retry persistence")

		// Storage recovers: the next call persists and sticks.
		backing.failGet.Store(false)
		backing.failSet.Store(false)
		third, err := s.GetOrCreateBucketID(ctx)
		require.NoError(t, err)
		fourth, err := s.GetOrCreateBucketID(ctx)
		require.NoError(t, err)
		assert.Equal(t, third, fourth)
	})

	t.Run("Should surface ErrEntropy when no id can be generated", func(t *testing.T) {
		t.Parallel()

		// Arrange
		s := NewStore(kv.NewMemoryStore(), logger.Nop(), WithRandom(iotest.ErrReader(errors.New("no entropy"))))

		// Act
		id, err := s.GetOrCreateBucketID(context.Background())

		// Assert
		assert.ErrorIs(t, err, ErrEntropy)
		assert.Empty(t, id)
	})

	t.Run("Should use the injected clock for the prefix", func(t *testing.T) {
		t.Parallel()

		// Arrange
		fixed := time.UnixMilli(1_234_567_890)
		s := NewStore(kv.NewMemoryStore(), logger.Nop(), WithClock(func() time.Time { return fixed }))

		// Act
		id, err := s.GetOrCreateBucketID(context.Background())

		// Assert
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(id, strconv.FormatInt(fixed.UnixMilli(), 36)+"_"))
	})
}

func TestStore_ResolveBucketID(t *testing.T) {
	t.Parallel()

	t.Run("Should report stored and created ids as durable", func(t *testing.T) {
		t.Parallel()

		// Arrange
		ctx := context.Background()
		backing := kv.NewMemoryStore()
		require.NoError(t, backing.Set(ctx, DefaultKey, "m2x8k1qz_4f9a0zk2"))

		// Act
		stored, storedDurable, err1 := NewStore(backing, logger.Nop()).ResolveBucketID(ctx)
		created, createdDurable, err2 := NewStore(kv.NewMemoryStore(), logger.Nop()).ResolveBucketID(ctx)

		// Assert
		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.Equal(t, "m2x8k1qz_4f9a0zk2", stored)
		assert.True(t, storedDurable)
		assert.Regexp(t, idPattern, created)
		assert.True(t, createdDurable)
	})

	t.Run("Should flag an id that could not be persisted", func(t *testing.T) {
		t.Parallel()

		// Arrange
		backing := newFlakyStore()
		backing.failSet.Store(true)

		// Act
		id, durable, err := NewStore(backing, logger.Nop()).ResolveBucketID(context.Background())

		// Assert
		require.NoError(t, err)
		assert.Regexp(t, idPattern, id)
		assert.False(t, durable)
	})
}
