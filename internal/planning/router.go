// Package planning turns a goal into an execution plan by running the
// configured complexity analyzer and choosing between single-step and
// decomposed execution.
package planning

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/complexity"
	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/config"
	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/formatting"
	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/metrics"
	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/ratecontrol"
	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/tracing"
	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/util"
)

// Execution modes
const (
	ModeSimple    = "simple"
	ModeDecompose = "decompose"
)

// Execution strategies
const (
	StrategySimple     = "simple"
	StrategyDAG        = "dag"
	StrategySupervisor = "supervisor"
)

// DefaultSupervisorSubTasks is the sub-task count above which a decomposed
// goal is handed to a supervisor instead of a fan-out DAG
const DefaultSupervisorSubTasks = 5

// Options tune routing. Zero values select defaults.
type Options struct {
	MaxInputBytes      int
	IncludeReport      bool
	SupervisorSubTasks int
}

// Request is a single routing call
type Request struct {
	RequestID     string
	ClientID      string
	Goal          string
	Analyzer      string
	IncludeReport bool
}

// Plan is the routing decision for one goal
type Plan struct {
	RequestID string                       `json:"request_id" yaml:"request_id"`
	Mode      string                       `json:"mode" yaml:"mode"`
	Strategy  string                       `json:"strategy" yaml:"strategy"`
	Analyzer  string                       `json:"analyzer" yaml:"analyzer"`
	Result    *complexity.ComplexityResult `json:"result" yaml:"result"`
	Report    string                       `json:"report,omitempty" yaml:"report,omitempty"`
}

// Router assesses goals and picks an execution strategy
type Router struct {
	mu       sync.RWMutex
	analyzer complexity.Analyzer
	opts     Options

	limiter *ratecontrol.Limiter
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewRouter creates a router. limiter and m may be nil.
func NewRouter(analyzer complexity.Analyzer, opts Options, limiter *ratecontrol.Limiter, m *metrics.Metrics, logger *zap.Logger) *Router {
	if analyzer == nil {
		analyzer = complexity.NewAdvancedAnalyzer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		analyzer: analyzer,
		opts:     opts,
		limiter:  limiter,
		metrics:  m,
		logger:   logger,
	}
}

// Analyzer returns the active analyzer
func (r *Router) Analyzer() complexity.Analyzer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.analyzer
}

// SetAnalyzer swaps the active analyzer; in-flight calls keep the old one
func (r *Router) SetAnalyzer(a complexity.Analyzer) {
	if a == nil {
		return
	}
	r.mu.Lock()
	r.analyzer = a
	r.mu.Unlock()
}

// SetOptions replaces the routing options
func (r *Router) SetOptions(opts Options) {
	r.mu.Lock()
	r.opts = opts
	r.mu.Unlock()
}

func (r *Router) options() Options {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.opts
}

// ApplyConfig updates the analyzer, options and rate limits from cfg
func (r *Router) ApplyConfig(cfg *config.Config) error {
	a, err := complexity.New(cfg.Analyzer.Mode)
	if err != nil {
		r.metrics.RecordConfigReload(false)
		return fmt.Errorf("apply config: %w", err)
	}
	r.SetAnalyzer(a)

	opts := r.options()
	opts.MaxInputBytes = cfg.Analyzer.MaxInputBytes
	opts.IncludeReport = cfg.Analyzer.IncludeReport
	r.SetOptions(opts)

	limitChanged := false
	if r.limiter != nil {
		limitChanged = r.limiter.Update(ratecontrol.Limit{
			Requests: cfg.RateLimit.Requests,
			Interval: time.Duration(cfg.RateLimit.IntervalMs) * time.Millisecond,
		})
	}
	r.metrics.RecordConfigReload(true)
	r.logger.Info("Router configuration applied",
		zap.String("analyzer", a.Name()),
		zap.Int("max_input_bytes", opts.MaxInputBytes),
		zap.Int("rate_limit_requests", cfg.RateLimit.Requests),
		zap.Bool("rate_limit_reset", limitChanged),
	)
	return nil
}

// Route assesses goal with the active analyzer
func (r *Router) Route(ctx context.Context, goal string) (*Plan, error) {
	return r.RouteRequest(ctx, Request{Goal: goal})
}

// RouteRequest validates req, runs the analyzer and returns the plan
func (r *Router) RouteRequest(ctx context.Context, req Request) (*Plan, error) {
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	opts := r.options()

	if err := ctx.Err(); err != nil {
		return nil, r.reject(requestID, ReasonCanceled, err)
	}
	if strings.TrimSpace(req.Goal) == "" {
		return nil, r.reject(requestID, ReasonEmpty, ErrEmptyGoal)
	}
	if opts.MaxInputBytes > 0 && len(req.Goal) > opts.MaxInputBytes {
		return nil, r.reject(requestID, ReasonTooLarge,
			fmt.Errorf("%w: %d bytes, limit %d", ErrGoalTooLarge, len(req.Goal), opts.MaxInputBytes))
	}
	if !r.limiter.Allow(ctx, req.ClientID) {
		return nil, r.reject(requestID, ReasonRateLimited, ErrRateLimited)
	}

	analyzer := r.Analyzer()
	if req.Analyzer != "" {
		a, err := complexity.New(req.Analyzer)
		if err != nil {
			return nil, r.reject(requestID, ReasonUnknownAnalyzer, err)
		}
		analyzer = a
	}

	_, span := tracing.StartSpan(ctx, "goal.analyze")
	defer span.End()

	start := time.Now()
	result := analyzer.Analyze(req.Goal)
	elapsed := time.Since(start)
	r.metrics.RecordAnalysis(analyzer.Name(), result, elapsed)

	plan := &Plan{
		RequestID: requestID,
		Mode:      ModeSimple,
		Strategy:  SelectStrategy(result, opts.SupervisorSubTasks),
		Analyzer:  analyzer.Name(),
		Result:    result,
	}
	if result.RequiresDecomposition {
		plan.Mode = ModeDecompose
	}
	if req.IncludeReport || opts.IncludeReport {
		plan.Report = formatting.FormatComplexityReport(result)
	}

	span.SetAttributes(
		attribute.String("request.id", requestID),
		attribute.String("analyzer", plan.Analyzer),
		attribute.Float64("complexity.confidence", result.Confidence),
		attribute.Int("complexity.subtasks", result.EstimatedSubTasks),
		attribute.String("plan.strategy", plan.Strategy),
	)
	span.SetStatus(codes.Ok, "")

	r.logger.Debug("Goal assessed",
		zap.String("request_id", requestID),
		zap.String("goal_preview", util.Preview(req.Goal, util.PreviewRunes)),
		zap.String("analyzer", plan.Analyzer),
		zap.Float64("confidence", result.Confidence),
		zap.Int("subtasks", result.EstimatedSubTasks),
		zap.String("strategy", plan.Strategy),
		zap.Duration("duration", elapsed),
	)
	return plan, nil
}

func (r *Router) reject(requestID, reason string, cause error) error {
	r.metrics.RecordRejection(reason)
	r.logger.Debug("Goal rejected",
		zap.String("request_id", requestID),
		zap.String("reason", reason),
		zap.Error(cause),
	)
	return NewRequestError(requestID, reason, cause)
}

// SelectStrategy maps an assessment onto an execution strategy. A
// supervisorSubTasks of zero uses DefaultSupervisorSubTasks.
func SelectStrategy(result *complexity.ComplexityResult, supervisorSubTasks int) string {
	if result == nil || !result.RequiresDecomposition {
		return StrategySimple
	}
	if supervisorSubTasks <= 0 {
		supervisorSubTasks = DefaultSupervisorSubTasks
	}
	if result.EstimatedSubTasks > supervisorSubTasks {
		return StrategySupervisor
	}
	return StrategyDAG
}
