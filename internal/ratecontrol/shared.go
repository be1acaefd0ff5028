package ratecontrol

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/circuitbreaker"
)

// KeyPrefix namespaces the shared counters in Redis
const KeyPrefix = "goalanalyzer:ratelimit"

// SharedWindow counts requests per client in fixed windows stored in Redis so
// that every replica enforces the same budget. Calls go through a circuit
// breaker; callers fall back to local buckets when Allow returns an error.
type SharedWindow struct {
	client  redis.UniversalClient
	breaker *circuitbreaker.Breaker
	logger  *zap.Logger
	now     func() time.Time
}

// NewSharedWindow wraps client. breaker may be nil.
func NewSharedWindow(client redis.UniversalClient, breaker *circuitbreaker.Breaker, logger *zap.Logger) *SharedWindow {
	if logger == nil {
		logger = zap.NewNop()
	}
	if breaker == nil {
		breaker = circuitbreaker.New("redis", circuitbreaker.DefaultConfig(), logger)
	}
	return &SharedWindow{client: client, breaker: breaker, logger: logger, now: time.Now}
}

// Breaker returns the breaker guarding Redis
func (s *SharedWindow) Breaker() *circuitbreaker.Breaker { return s.breaker }

// Allow increments the client's counter for the current window and reports
// whether it is still within limit.Requests.
func (s *SharedWindow) Allow(ctx context.Context, clientID string, limit Limit) (bool, error) {
	if limit.Disabled() {
		return true, nil
	}
	window := s.now().Truncate(limit.Interval)
	key := fmt.Sprintf("%s:%s:%d", KeyPrefix, clientID, window.UnixMilli())

	var count int64
	err := s.breaker.Execute(func() error {
		pipe := s.client.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.PExpire(ctx, key, limit.Interval+time.Second)
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
		count = incr.Val()
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("shared rate window: %w", err)
	}
	return count <= int64(limit.Requests), nil
}

// Ping checks connectivity without touching the breaker
func (s *SharedWindow) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// IsUnavailable reports whether err came from an open breaker rather than Redis itself
func IsUnavailable(err error) bool {
	return errors.Is(err, circuitbreaker.ErrOpen) || errors.Is(err, circuitbreaker.ErrProbeLimit)
}
