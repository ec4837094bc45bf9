package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/citizen-request-service/internal/domain"
)

const requestKeyPrefix = "request:"

// RequestCache keeps recently read requests in Redis so the dashboard can
// re-render detail views without hitting Postgres. Writers must invalidate.
type RequestCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRequestCache builds a cache around an existing client. A nil client
// yields a cache that misses on every lookup.
func NewRequestCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RequestCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RequestCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached request, or nil on miss.
func (c *RequestCache) Get(ctx context.Context, id string) *domain.Request {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := c.client.Get(ctx, requestKeyPrefix+id).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("request cache get failed", zap.String("id", id), zap.Error(err))
		}
		return nil
	}
	var request domain.Request
	if err := json.Unmarshal(raw, &request); err != nil {
		return nil
	}
	return &request
}

// Set stores the request under its ID with the configured TTL.
func (c *RequestCache) Set(ctx context.Context, request *domain.Request) {
	if c == nil || c.client == nil || request == nil {
		return
	}
	raw, err := json.Marshal(request)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, requestKeyPrefix+request.ID, raw, c.ttl).Err(); err != nil {
		c.logger.Debug("request cache set failed", zap.String("id", request.ID), zap.Error(err))
	}
}

// Invalidate drops the cached entry after a write.
func (c *RequestCache) Invalidate(ctx context.Context, id string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, requestKeyPrefix+id).Err(); err != nil {
		c.logger.Debug("request cache invalidate failed", zap.String("id", id), zap.Error(err))
	}
}
