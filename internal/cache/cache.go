// Package cache provides the snapshot cache used by the aggregation engine.
// The Redis-backed store is the production implementation; the in-memory one
// serves tests and credential-less local runs.
package cache

import (
	"context"
	"time"
)

// Store is a byte-oriented cache. Get returns (nil, nil) on a miss so
// callers can distinguish absence from backend failure.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePattern(ctx context.Context, pattern string) error
}

// Keys used by the aggregation engine.
const (
	KeyCurrentRates   = "current-rates"
	KeyExchangeStatus = "exchange-status"
)
