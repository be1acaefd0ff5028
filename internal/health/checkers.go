package health

import (
	"context"
	"fmt"
	"time"

	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/circuitbreaker"
	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/complexity"
	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/config"
)

// AnalyzerSource exposes the analyzer currently serving requests
type AnalyzerSource interface {
	Analyzer() complexity.Analyzer
}

type canary struct {
	goal      string
	decompose bool
}

var canaries = []canary{
	{goal: "What is 2+2?", decompose: false},
	{goal: "First fetch https://api.example.com/v2/orders, then parse the orders.csv file, then summarize the results.", decompose: true},
}

// AnalyzerChecker runs canary goals through the live analyzer and verifies
// the decisions and result bounds
type AnalyzerChecker struct {
	source  AnalyzerSource
	timeout time.Duration
}

// NewAnalyzerChecker creates an analyzer health checker
func NewAnalyzerChecker(source AnalyzerSource) *AnalyzerChecker {
	return &AnalyzerChecker{source: source, timeout: 2 * time.Second}
}

func (a *AnalyzerChecker) Name() string           { return "analyzer" }
func (a *AnalyzerChecker) IsCritical() bool       { return true }
func (a *AnalyzerChecker) Timeout() time.Duration { return a.timeout }

func (a *AnalyzerChecker) Check(ctx context.Context) CheckResult {
	analyzer := a.source.Analyzer()
	if analyzer == nil {
		return CheckResult{Status: StatusUnhealthy, Error: "no analyzer configured"}
	}
	details := map[string]interface{}{"analyzer": analyzer.Name()}

	for _, c := range canaries {
		if err := ctx.Err(); err != nil {
			return CheckResult{Status: StatusUnhealthy, Error: err.Error(), Details: details}
		}
		if err := verifyResult(analyzer.Analyze(c.goal), c.decompose); err != nil {
			return CheckResult{
				Status:  StatusUnhealthy,
				Message: "canary assessment failed",
				Error:   fmt.Sprintf("%q: %v", c.goal, err),
				Details: details,
			}
		}
	}
	details["canaries"] = len(canaries)
	return CheckResult{Status: StatusHealthy, Message: "canary assessments passed", Details: details}
}

func verifyResult(r *complexity.ComplexityResult, wantDecompose bool) error {
	switch {
	case r == nil:
		return fmt.Errorf("nil result")
	case r.EstimatedSubTasks < complexity.MinSubTasks || r.EstimatedSubTasks > complexity.MaxSubTasks:
		return fmt.Errorf("sub-tasks %d out of range", r.EstimatedSubTasks)
	case r.Confidence < 0 || r.Confidence > 1:
		return fmt.Errorf("confidence %f out of range", r.Confidence)
	case r.RequiresDecomposition != wantDecompose:
		return fmt.Errorf("requires decomposition = %t, want %t", r.RequiresDecomposition, wantDecompose)
	}
	return nil
}

// ConfigSource exposes the live configuration
type ConfigSource interface {
	Current() *config.Config
}

// ConfigChecker reports the active configuration. A config that no longer
// validates degrades the service without taking it out of rotation.
type ConfigChecker struct {
	source ConfigSource
}

// NewConfigChecker creates a configuration health checker
func NewConfigChecker(source ConfigSource) *ConfigChecker {
	return &ConfigChecker{source: source}
}

func (c *ConfigChecker) Name() string           { return "config" }
func (c *ConfigChecker) IsCritical() bool       { return false }
func (c *ConfigChecker) Timeout() time.Duration { return time.Second }

func (c *ConfigChecker) Check(context.Context) CheckResult {
	cfg := c.source.Current()
	if cfg == nil {
		return CheckResult{Status: StatusDegraded, Error: "no configuration loaded"}
	}
	details := map[string]interface{}{
		"analyzer_mode":       cfg.Analyzer.Mode,
		"max_input_bytes":     cfg.Analyzer.MaxInputBytes,
		"rate_limit_requests": cfg.RateLimit.Requests,
	}
	if err := cfg.Validate(); err != nil {
		return CheckResult{Status: StatusDegraded, Error: err.Error(), Details: details}
	}
	return CheckResult{Status: StatusHealthy, Details: details}
}

// SharedStore is the Redis-backed rate window
type SharedStore interface {
	Ping(ctx context.Context) error
	Breaker() *circuitbreaker.Breaker
}

// RateStoreChecker pings the shared rate limit store. Limiting falls back to
// local buckets when the store is down, so failures only degrade.
type RateStoreChecker struct {
	store       SharedStore
	timeout     time.Duration
	slowLatency time.Duration
}

// NewRateStoreChecker creates a shared rate store health checker
func NewRateStoreChecker(store SharedStore) *RateStoreChecker {
	return &RateStoreChecker{store: store, timeout: 2 * time.Second, slowLatency: 100 * time.Millisecond}
}

func (r *RateStoreChecker) Name() string           { return "rate_store" }
func (r *RateStoreChecker) IsCritical() bool       { return false }
func (r *RateStoreChecker) Timeout() time.Duration { return r.timeout }

func (r *RateStoreChecker) Check(ctx context.Context) CheckResult {
	state := r.store.Breaker().State()
	details := map[string]interface{}{"circuit_breaker": state.String()}
	if state == circuitbreaker.StateOpen {
		return CheckResult{
			Status:  StatusDegraded,
			Message: "rate store circuit breaker is open, limiting locally",
			Details: details,
		}
	}

	start := time.Now()
	err := r.store.Ping(ctx)
	latency := time.Since(start)
	details["latency_ms"] = latency.Milliseconds()
	if err != nil {
		return CheckResult{Status: StatusDegraded, Message: "rate store ping failed", Error: err.Error(), Details: details}
	}
	if latency > r.slowLatency {
		return CheckResult{Status: StatusDegraded, Message: "rate store responding slowly", Details: details}
	}
	return CheckResult{Status: StatusHealthy, Message: "rate store healthy", Details: details}
}
