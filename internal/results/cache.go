package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "coursemate:results:"

// CachedProvider keeps fetched results in Redis. Cache failures are logged
// and fall through to the wrapped provider.
type CachedProvider struct {
	next   Provider
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedProvider(next Provider, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedProvider {
	return &CachedProvider{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func CacheKey(q Query) string {
	return cacheKeyPrefix + strings.Join([]string{
		strings.ToUpper(strings.TrimSpace(q.MatricNumber)),
		q.Session,
		q.Semester,
	}, ":")
}

func (p *CachedProvider) Fetch(ctx context.Context, q Query) ([]CourseResult, error) {
	key := CacheKey(q)

	cached, err := p.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var results []CourseResult
		if err := json.Unmarshal(cached, &results); err == nil {
			p.logger.DebugContext(ctx, "results cache hit", "key", key)
			return results, nil
		}
		p.logger.WarnContext(ctx, "discarding malformed cached results", "key", key)
	case errors.Is(err, redis.Nil):
	default:
		p.logger.WarnContext(ctx, "results cache read failed", "key", key, "error", err)
	}

	results, err := p.next.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("failed to encode results: %w", err)
	}
	if err := p.client.Set(ctx, key, payload, p.ttl).Err(); err != nil {
		p.logger.WarnContext(ctx, "results cache write failed", "key", key, "error", err)
	}

	return results, nil
}
