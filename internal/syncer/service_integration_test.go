//go:build integration

package syncer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rafaeljc/bifrost/internal/copydoc"
	"github.com/rafaeljc/bifrost/internal/logger"
	"github.com/rafaeljc/bifrost/internal/remote"
	"github.com/rafaeljc/bifrost/internal/syncer"
	"github.com/rafaeljc/bifrost/internal/testsupport"
)

func TestSyncer_Redis_Integration(t *testing.T) {
	// 1. Infrastructure Setup
	ctx := context.Background()
	redisCtr, err := testsupport.StartRedisContainer(ctx)
	require.NoError(t, err)
	defer redisCtr.Terminate(ctx)

	client := remote.NewClient(remote.NewRedisSource(redisCtr.Client, remote.DefaultRedisKey), remote.ParamCopyOverrides, logger.Nop())
	cache := copydoc.NewCache(logger.Nop())
	resolver := copydoc.NewResolver(cache, nil)
	svc := syncer.New(logger.Nop(), syncer.Config{Interval: time.Second, FetchTimeout: time.Second}, client, cache)

	require.NoError(t, redisCtr.Client.HSet(ctx, remote.DefaultRedisKey,
		remote.ParamCopyBase, `{"en":{"onboarding":{"index":{"cta_label":"Go"}}}}`,
	).Err())

	// 2. Start worker
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = svc.Run(runCtx) }()

	// 3. Base document is served
	require.Eventually(t, func() bool {
		return resolver.ResolveCopy("onboarding.index.cta_label", "Let's start", "en") == "Go"
	}, 5*time.Second, 50*time.Millisecond)

	// 4. Publishing an override is picked up on the next tick
	testsupport.AssertMetricDeltaAsync(t, "bifrost_remote_fetch_total", map[string]string{"result": "activated"}, 1, func() {
		require.NoError(t, redisCtr.Client.HSet(ctx, remote.DefaultRedisKey,
			remote.ParamCopyOverrides, `{"en":{"onboarding":{"index":{"cta_label":"Start now"}}}}`,
		).Err())
	})

	require.Eventually(t, func() bool {
		return resolver.ResolveCopy("onboarding.index.cta_label", "Let's start", "en") == "Start now"
	}, 5*time.Second, 50*time.Millisecond)
	testsupport.AssertHistogramRecorded(t, "bifrost_remote_fetch_duration_seconds", nil)
}
