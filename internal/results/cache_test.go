package results_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"coursemate/internal/logger"
	"coursemate/internal/results"
	"coursemate/testing/testredis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	calls atomic.Int32
	inner results.Provider
}

func (p *countingProvider) Fetch(ctx context.Context, q results.Query) ([]results.CourseResult, error) {
	p.calls.Add(1)
	return p.inner.Fetch(ctx, q)
}

func TestCacheKey(t *testing.T) {
	q := results.Query{MatricNumber: " csc/2021/001 ", Session: "2023/2024", Semester: "first"}
	assert.Equal(t, "coursemate:results:CSC/2021/001:2023/2024:first", results.CacheKey(q))
}

func TestCachedProvider(t *testing.T) {
	redisContainer := testredis.SetupSharedRedis(t)
	defer redisContainer.Cleanup(t)

	ctx := context.Background()

	t.Run("SecondFetchHitsCache", func(t *testing.T) {
		client := redisContainer.Client(t)
		inner := &countingProvider{inner: results.NewStaticProvider(results.SampleResults())}
		provider := results.NewCachedProvider(inner, client, time.Minute, logger.NewDiscard())

		first, err := provider.Fetch(ctx, sampleQuery)
		require.NoError(t, err)
		second, err := provider.Fetch(ctx, sampleQuery)
		require.NoError(t, err)

		assert.Equal(t, int32(1), inner.calls.Load())
		assert.Equal(t, first, second)

		ttl, err := client.TTL(ctx, results.CacheKey(sampleQuery)).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
	})

	t.Run("DifferentQueriesMiss", func(t *testing.T) {
		client := redisContainer.Client(t)
		inner := &countingProvider{inner: results.NewStaticProvider(results.SampleResults())}
		provider := results.NewCachedProvider(inner, client, time.Minute, logger.NewDiscard())

		other := sampleQuery
		other.Semester = "second"

		_, err := provider.Fetch(ctx, sampleQuery)
		require.NoError(t, err)
		_, err = provider.Fetch(ctx, other)
		require.NoError(t, err)

		assert.Equal(t, int32(2), inner.calls.Load())
	})

	t.Run("MalformedEntryIsReplaced", func(t *testing.T) {
		client := redisContainer.Client(t)
		require.NoError(t, client.Set(ctx, results.CacheKey(sampleQuery), "not json", time.Minute).Err())

		inner := &countingProvider{inner: results.NewStaticProvider(results.SampleResults())}
		provider := results.NewCachedProvider(inner, client, time.Minute, logger.NewDiscard())

		got, err := provider.Fetch(ctx, sampleQuery)
		require.NoError(t, err)
		assert.Len(t, got, 6)
		assert.Equal(t, int32(1), inner.calls.Load())
	})
}
