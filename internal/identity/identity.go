// Package identity manages the durable, opaque bucketing identifier of an installation.
package identity

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rafaeljc/bifrost/internal/kv"
	"github.com/rafaeljc/bifrost/internal/observability"
	"github.com/rafaeljc/bifrost/internal/validation"
)

// DefaultKey is the KV key under which the bucket identity is persisted.
const DefaultKey = "bifrost:bucket_id"

// randomSuffixLen is the number of base36 characters after the timestamp.
const randomSuffixLen = 8

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// ErrEntropy is returned when no identity could be generated at all.
var ErrEntropy = errors.New("identity: random source unavailable")

// Provider yields the bucketing identity for the current installation.
type Provider interface {
	GetOrCreateBucketID(ctx context.Context) (string, error)
}

// DurableProvider is a Provider that can tell a stored identity from an
// ephemeral one. Ids from a plain Provider are treated as durable.
type DurableProvider interface {
	Provider
	ResolveBucketID(ctx context.Context) (id string, durable bool, err error)
}

// Option customizes a Store.
type Option func(*Store)

// WithKey overrides the persistence key.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithClock overrides the clock used for the timestamp prefix.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithRandom overrides the random source used for the suffix.
func WithRandom(r io.Reader) Option {
	return func(s *Store) { s.random = r }
}

// Store implements Provider on top of a durable kv.Store.
//
// Once an identity has been read or successfully persisted it is kept in memory
// for the rest of the process. Identities that could not be persisted are
// ephemeral: they are returned but not remembered, so a later call retries storage.
type Store struct {
	kv     kv.Store
	key    string
	logger *slog.Logger
	now    func() time.Time
	random io.Reader

	mu     sync.Mutex
	cached string
}

var _ DurableProvider = (*Store)(nil)

// NewStore creates an identity store backed by store.
// If logger is nil, it defaults to slog.Default().
func NewStore(store kv.Store, logger *slog.Logger, opts ...Option) *Store {
	validation.AssertPresent(store, "kv store")
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		kv:     store,
		key:    DefaultKey,
		logger: logger,
		now:    time.Now,
		random: rand.Reader,
	}
	for _, opt := range opts {
		opt(s)
	}
	validation.AssertNotBlank(s.key, "identity key")
	return s
}

// GetOrCreateBucketID returns the persisted identity, creating it on first use.
//
// Storage failures never surface: a read failure is treated like a missing id,
// and a write failure yields an ephemeral id. The only error is ErrEntropy.
func (s *Store) GetOrCreateBucketID(ctx context.Context) (string, error) {
	id, _, err := s.ResolveBucketID(ctx)
	return id, err
}

// ResolveBucketID is GetOrCreateBucketID that also reports whether id was
// read from or written to storage. An ephemeral id is not durable.
func (s *Store) ResolveBucketID(ctx context.Context) (string, bool, error) {
	s.mu.Lock()
	cached := s.cached
	s.mu.Unlock()
	if cached != "" {
		return cached, true, nil
	}

	id, found, err := s.kv.Get(ctx, s.key)
	switch {
	case err != nil:
		s.logger.Warn("failed to read bucket identity, generating a new one",
			slog.String("key", s.key),
			slog.String("error", err.Error()),
		)
	case found && id != "":
		observability.IdentityLookups.WithLabelValues("stored").Inc()
		s.remember(id)
		return id, true, nil
	}

	id, err = NewID(s.now(), s.random)
	if err != nil {
		observability.IdentityLookups.WithLabelValues("failed").Inc()
		return "", false, err
	}

	if err := s.kv.Set(ctx, s.key, id); err != nil {
		observability.IdentityLookups.WithLabelValues("ephemeral").Inc()
		s.logger.Warn("failed to persist bucket identity, using ephemeral id",
			slog.String("key", s.key),
			slog.String("error", err.Error()),
		)
		return id, false, nil
	}

	observability.IdentityLookups.WithLabelValues("created").Inc()
	s.logger.Info("bucket identity created", slog.String("key", s.key))
	s.remember(id)
	return id, true, nil
}

func (s *Store) remember(id string) {
	s.mu.Lock()
	if s.cached == "" {
		s.cached = id
	}
	s.mu.Unlock()
}

// NewID generates an identity of the form base36(unixMillis) + "_" + 8 random base36 chars.
// Example: "m2x8k1qz_4f9a0zk2"
func NewID(now time.Time, random io.Reader) (string, error) {
	suffix, err := randomBase36(random, randomSuffixLen)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 36))
	b.WriteByte('_')
	b.WriteString(suffix)
	return b.String(), nil
}

// randomBase36 draws n uniformly distributed base36 characters.
// Bytes >= 252 (7*36) are rejected to avoid modulo bias.
func randomBase36(r io.Reader, n int) (string, error) {
	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", fmt.Errorf("%w: %v", ErrEntropy, err)
		}
		for _, b := range buf {
			if b >= 252 {
				continue
			}
			out = append(out, base36Alphabet[int(b)%36])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
