// Package cache keeps the fee band table in Redis so every process reads
// the same snapshot without hitting the ledger database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jask/cashledger/internal/ledger"
	"github.com/jask/cashledger/internal/logging"
)

const feeBandsKey = "cashledger:fee_bands"

// DefaultTTL applies when none is configured.
const DefaultTTL = 10 * time.Minute

// Loader reads the authoritative fee band table.
type Loader func(ctx context.Context) ([]ledger.FeeBand, error)

// FeeBands is a read-through cache. A nil client passes every call to the
// loader.
type FeeBands struct {
	client redis.UniversalClient
	ttl    time.Duration
	load   Loader
	logger *zap.Logger
}

func NewFeeBands(client redis.UniversalClient, ttl time.Duration, load Loader, logger *zap.Logger) *FeeBands {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &FeeBands{client: client, ttl: ttl, load: load, logger: logging.OrNop(logger)}
}

// NewClient connects to a single Redis node.
func NewClient(addr, password string, db int) redis.UniversalClient {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Get returns the cached table, loading and storing it on a miss. Redis
// failures are logged and never fail the read.
func (c *FeeBands) Get(ctx context.Context) ([]ledger.FeeBand, error) {
	if c.client == nil {
		return c.load(ctx)
	}

	raw, err := c.client.Get(ctx, feeBandsKey).Bytes()
	switch {
	case err == nil:
		var bands []ledger.FeeBand
		if err := json.Unmarshal(raw, &bands); err == nil {
			return bands, nil
		}
		c.logger.Warn("discarding unreadable fee band cache entry", zap.Error(err))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("fee band cache read failed", zap.Error(err))
	}

	bands, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(bands)
	if err != nil {
		return nil, fmt.Errorf("encode fee bands: %w", err)
	}
	if err := c.client.Set(ctx, feeBandsKey, data, c.ttl).Err(); err != nil {
		c.logger.Warn("fee band cache write failed", zap.Error(err))
	}
	return bands, nil
}

// Invalidate drops the cached table.
func (c *FeeBands) Invalidate(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, feeBandsKey).Err()
}
