package templates

import (
	"context"
	"log/slog"
	"time"

	platformredis "scriba/internal/platform/redis"
)

// CachedSource fronts a Source with a Redis TTL cache. Template bytes only
// change on redeploy, so the TTL is about memory, not freshness. Cache
// failures fall through to the inner source; the cache can never make a
// working template unavailable.
type CachedSource struct {
	inner  Source
	client *platformredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCached(inner Source, client *platformredis.Client, ttl time.Duration, logger *slog.Logger) *CachedSource {
	return &CachedSource{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (s *CachedSource) Download(ctx context.Context, filename string) ([]byte, error) {
	key := "scriba:template:" + filename

	if data, err := s.client.Get(ctx, key).Bytes(); err == nil && len(data) > 0 {
		return data, nil
	}

	data, err := s.inner.Download(ctx, filename)
	if err != nil {
		return nil, err
	}

	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.logger.WarnContext(ctx, "template cache write failed",
			"template", filename,
			"error", err.Error(),
		)
	}
	return data, nil
}
