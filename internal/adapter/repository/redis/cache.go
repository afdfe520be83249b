package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/fxledger/internal/domain"
)

// Cache implements usecase.ReportCache using Redis.
type Cache struct {
	client *redis.Client
	prefix string
}

// NewCache creates a new Cache.
func NewCache(client *redis.Client) *Cache {
	return &Cache{
		client: client,
		prefix: "report:",
	}
}

// GetReport returns the cached report for key, if present.
func (c *Cache) GetReport(ctx context.Context, key string) (*domain.BalanceReport, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var report domain.BalanceReport
	if err := json.Unmarshal(raw, &report); err != nil {
		// A corrupt entry is a miss; it will be overwritten.
		return nil, false, nil
	}
	return &report, true, nil
}

// SetReport stores a report with TTL.
func (c *Cache) SetReport(ctx context.Context, key string, report *domain.BalanceReport, ttl time.Duration) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, raw, ttl).Err()
}
