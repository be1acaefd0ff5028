// Package ratecontrol limits analysis requests per client with token buckets.
package ratecontrol

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"
)

// ClientHeader identifies the caller; the remote host is used when absent
const ClientHeader = "X-Client-ID"

// Limit allows Requests per Interval. Requests <= 0 means unlimited.
type Limit struct {
	Requests int
	Interval time.Duration
}

// Disabled reports whether the limit allows everything
func (l Limit) Disabled() bool {
	return l.Requests <= 0 || l.Interval <= 0
}

type limitEntry struct {
	Requests   int `yaml:"requests"`
	IntervalMs int `yaml:"interval_ms"`
}

func (e limitEntry) limit(fallback time.Duration) Limit {
	interval := time.Duration(e.IntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = fallback
	}
	return Limit{Requests: e.Requests, Interval: interval}
}

type tiersFile struct {
	RateLimits struct {
		Clients map[string]limitEntry `yaml:"clients"`
	} `yaml:"rate_limits"`
}

// Limiter keeps one token bucket per client
type Limiter struct {
	mu        sync.RWMutex
	def       Limit
	overrides map[string]Limit
	limiters  map[string]*rate.Limiter
	shared    *SharedWindow
	logger    *zap.Logger
}

// New creates a limiter applying def to every client without an override
func New(def Limit, logger *zap.Logger) *Limiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Limiter{
		def:       def,
		overrides: make(map[string]Limit),
		limiters:  make(map[string]*rate.Limiter),
		logger:    logger,
	}
}

// LoadTiers reads per-client overrides from a yaml file:
//
//	rate_limits:
//	  clients:
//	    partner-a: {requests: 100, interval_ms: 1000}
func (l *Limiter) LoadTiers(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read rate limit tiers: %w", err)
	}
	var f tiersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse rate limit tiers %s: %w", path, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fallback := l.def.Interval
	if fallback <= 0 {
		fallback = time.Second
	}
	l.overrides = make(map[string]Limit, len(f.RateLimits.Clients))
	for client, entry := range f.RateLimits.Clients {
		l.overrides[normalize(client)] = entry.limit(fallback)
	}
	l.limiters = make(map[string]*rate.Limiter)
	l.logger.Info("Loaded rate limit tiers",
		zap.String("path", path),
		zap.Int("clients", len(l.overrides)),
	)
	return nil
}

// Update replaces the default limit and resets all buckets. An unchanged
// limit leaves the buckets alone and reports false.
func (l *Limiter) Update(def Limit) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if def == l.def {
		return false
	}
	l.def = def
	l.limiters = make(map[string]*rate.Limiter)
	return true
}

// SetShared makes Allow consult the Redis window first. Local buckets are
// used only while the shared window is failing.
func (l *Limiter) SetShared(s *SharedWindow) {
	l.mu.Lock()
	l.shared = s
	l.mu.Unlock()
}

// LimitFor returns the effective limit for a client
func (l *Limiter) LimitFor(clientID string) Limit {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.limitForLocked(normalize(clientID))
}

func (l *Limiter) limitForLocked(key string) Limit {
	if o, ok := l.overrides[key]; ok {
		return o
	}
	return l.def
}

// Allow reports whether the client may issue a request now
func (l *Limiter) Allow(ctx context.Context, clientID string) bool {
	if l == nil {
		return true
	}
	key := normalize(clientID)

	l.mu.RLock()
	limiter, exists := l.limiters[key]
	limit := l.limitForLocked(key)
	shared := l.shared
	l.mu.RUnlock()

	if limit.Disabled() {
		return true
	}
	if shared != nil {
		allowed, err := shared.Allow(ctx, key, limit)
		if err == nil {
			return allowed
		}
		if !IsUnavailable(err) {
			l.logger.Warn("Shared rate window failed, using local bucket",
				zap.String("client", key),
				zap.Error(err),
			)
		}
	}
	if !exists {
		l.mu.Lock()
		if limiter, exists = l.limiters[key]; !exists {
			ratePerSecond := float64(limit.Requests) / limit.Interval.Seconds()
			limiter = rate.NewLimiter(rate.Limit(ratePerSecond), limit.Requests)
			l.limiters[key] = limiter
		}
		l.mu.Unlock()
	}
	return limiter.Allow()
}

// RetryAfter is the wait before one token is available again, rounded up to
// whole seconds for the Retry-After header.
func (l *Limiter) RetryAfter(clientID string) time.Duration {
	limit := l.LimitFor(clientID)
	if limit.Disabled() {
		return 0
	}
	perRequest := limit.Interval.Seconds() / float64(limit.Requests)
	return time.Duration(math.Max(1, math.Ceil(perRequest))) * time.Second
}

// ClientKey identifies the caller of r
func ClientKey(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(ClientHeader)); id != "" {
		return normalize(id)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
