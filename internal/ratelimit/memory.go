package ratelimit

import (
	"context"
	"fmt"
	"time"

	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// Memory is an in-process Limiter for deployments without Redis. Counters
// are fixed windows kept by the ulule memory store.
type Memory struct {
	store limiter.Store
}

// NewMemory constructs a Memory limiter whose keys carry prefix.
func NewMemory(prefix string) *Memory {
	return &Memory{store: memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          prefix,
		CleanUpInterval: time.Minute,
	})}
}

// Allow implements Limiter.
func (m *Memory) Allow(ctx context.Context, key string, window time.Duration, limit int) (bool, int, time.Time, error) {
	if limit <= 0 || window <= 0 {
		return true, limit, time.Now().Add(window), nil
	}
	rate := limiter.Rate{Period: window, Limit: int64(limit)}
	lctx, err := limiter.New(m.store, rate).Get(ctx, fmt.Sprintf("%s:%d:%d", key, window, limit))
	if err != nil {
		return false, 0, time.Now().Add(window), fmt.Errorf("memory limiter %s: %w", key, err)
	}
	return !lctx.Reached, int(lctx.Remaining), time.Unix(lctx.Reset, 0), nil
}
