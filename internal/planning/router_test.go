package planning

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/complexity"
	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/config"
	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/metrics"
	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/ratecontrol"
)

const pipelineGoal = "First fetch https://api.example.com/v2/orders, then parse the orders.csv file, then summarize the results."

func newTestRouter(opts Options, limiter *ratecontrol.Limiter) (*Router, *metrics.Metrics) {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	return NewRouter(complexity.NewAdvancedAnalyzer(), opts, limiter, m, zap.NewNop()), m
}

func TestRoute(t *testing.T) {
	r, m := newTestRouter(Options{MaxInputBytes: 4096}, nil)

	t.Run("simple goal", func(t *testing.T) {
		plan, err := r.Route(context.Background(), "What is 2+2?")
		require.NoError(t, err)

		assert.NotEmpty(t, plan.RequestID)
		assert.Equal(t, ModeSimple, plan.Mode)
		assert.Equal(t, StrategySimple, plan.Strategy)
		assert.Equal(t, complexity.ModeAdvanced, plan.Analyzer)
		assert.Equal(t, 1, plan.Result.EstimatedSubTasks)
		assert.Empty(t, plan.Report)
	})

	t.Run("decomposed goal", func(t *testing.T) {
		plan, err := r.Route(context.Background(), pipelineGoal)
		require.NoError(t, err)

		assert.Equal(t, ModeDecompose, plan.Mode)
		assert.Contains(t, []string{StrategyDAG, StrategySupervisor}, plan.Strategy)
		assert.Equal(t, complexity.Analyze(pipelineGoal), plan.Result)
	})

	t.Run("request ids are unique", func(t *testing.T) {
		a, err := r.Route(context.Background(), "What is 2+2?")
		require.NoError(t, err)
		b, err := r.Route(context.Background(), "What is 2+2?")
		require.NoError(t, err)
		assert.NotEqual(t, a.RequestID, b.RequestID)
	})

	assert.GreaterOrEqual(t, testutil.ToFloat64(m.AnalysesTotal.WithLabelValues(complexity.ModeAdvanced, metrics.DecisionSimple)), 3.0)
}

func TestRouteRequest_Options(t *testing.T) {
	r, _ := newTestRouter(Options{}, nil)

	plan, err := r.RouteRequest(context.Background(), Request{
		RequestID:     "req-1",
		Goal:          pipelineGoal,
		Analyzer:      "basic",
		IncludeReport: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "req-1", plan.RequestID)
	assert.Equal(t, complexity.ModeBasic, plan.Analyzer)
	assert.Contains(t, plan.Report, "## Complexity Analysis")
	// the per-request analyzer does not replace the router default
	assert.Equal(t, complexity.ModeAdvanced, r.Analyzer().Name())
}

func TestRouteRequest_Rejections(t *testing.T) {
	limiter := ratecontrol.New(ratecontrol.Limit{Requests: 1, Interval: time.Hour}, nil)
	r, m := newTestRouter(Options{MaxInputBytes: 32}, limiter)

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name   string
		ctx    context.Context
		req    Request
		target error
		reason string
	}{
		{"empty", context.Background(), Request{Goal: "   \n\t"}, ErrEmptyGoal, ReasonEmpty},
		{"too large", context.Background(), Request{Goal: strings.Repeat("a", 33)}, ErrGoalTooLarge, ReasonTooLarge},
		{"unknown analyzer", context.Background(), Request{Goal: "hi", Analyzer: "oracle", ClientID: "x"}, complexity.ErrUnknownAnalyzer, ReasonUnknownAnalyzer},
		{"canceled", canceled, Request{Goal: "hi"}, context.Canceled, ReasonCanceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := r.RouteRequest(tt.ctx, tt.req)
			assert.Nil(t, plan)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target))

			var reqErr *RequestError
			require.True(t, errors.As(err, &reqErr))
			assert.Equal(t, tt.reason, reqErr.Reason)
			assert.NotEmpty(t, reqErr.RequestID)
		})
	}

	t.Run("rate limited", func(t *testing.T) {
		_, err := r.RouteRequest(context.Background(), Request{Goal: "hi", ClientID: "c1"})
		require.NoError(t, err)
		_, err = r.RouteRequest(context.Background(), Request{Goal: "hi", ClientID: "c1"})
		assert.True(t, errors.Is(err, ErrRateLimited))
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RejectedRequests.WithLabelValues(ReasonTooLarge)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RejectedRequests.WithLabelValues(ReasonRateLimited)))
}

func TestSetAnalyzer(t *testing.T) {
	r, _ := newTestRouter(Options{}, nil)
	r.SetAnalyzer(complexity.NewBasicAnalyzer())
	r.SetAnalyzer(nil)

	plan, err := r.Route(context.Background(), "What is 2+2?")
	require.NoError(t, err)
	assert.Equal(t, complexity.ModeBasic, plan.Analyzer)
}

func TestApplyConfig(t *testing.T) {
	limiter := ratecontrol.New(ratecontrol.Limit{}, nil)
	r, m := newTestRouter(Options{}, limiter)

	cfg, err := config.LoadFile("")
	require.NoError(t, err)
	cfg.Analyzer.Mode = complexity.ModeBasic
	cfg.Analyzer.MaxInputBytes = 10
	cfg.Analyzer.IncludeReport = true
	cfg.RateLimit.Requests = 7
	cfg.RateLimit.IntervalMs = 1000

	require.NoError(t, r.ApplyConfig(cfg))
	assert.Equal(t, complexity.ModeBasic, r.Analyzer().Name())
	assert.Equal(t, 7, limiter.LimitFor("anyone").Requests)

	_, err = r.Route(context.Background(), "this goal is longer than ten bytes")
	assert.True(t, errors.Is(err, ErrGoalTooLarge))

	plan, err := r.Route(context.Background(), "short")
	require.NoError(t, err)
	assert.NotEmpty(t, plan.Report)

	cfg.Analyzer.Mode = "oracle"
	assert.Error(t, r.ApplyConfig(cfg))
	assert.Equal(t, complexity.ModeBasic, r.Analyzer().Name())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConfigReloads.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConfigReloads.WithLabelValues("failure")))
}

func TestApplyConfig_KeepsBucketsWhenLimitUnchanged(t *testing.T) {
	limiter := ratecontrol.New(ratecontrol.Limit{}, nil)
	r, _ := newTestRouter(Options{}, limiter)

	cfg, err := config.LoadFile("")
	require.NoError(t, err)
	cfg.RateLimit.Requests = 1
	cfg.RateLimit.IntervalMs = 60000
	require.NoError(t, r.ApplyConfig(cfg))

	req := Request{Goal: "hi", ClientID: "c1"}
	_, err = r.RouteRequest(context.Background(), req)
	require.NoError(t, err)
	_, err = r.RouteRequest(context.Background(), req)
	require.True(t, errors.Is(err, ErrRateLimited))

	// an unrelated edit must not hand out a fresh burst
	cfg.Observability.Logging.Level = "debug"
	require.NoError(t, r.ApplyConfig(cfg))
	_, err = r.RouteRequest(context.Background(), req)
	assert.True(t, errors.Is(err, ErrRateLimited))

	cfg.RateLimit.Requests = 2
	require.NoError(t, r.ApplyConfig(cfg))
	_, err = r.RouteRequest(context.Background(), req)
	assert.NoError(t, err)
}

func TestSelectStrategy(t *testing.T) {
	tests := []struct {
		name       string
		result     *complexity.ComplexityResult
		supervisor int
		want       string
	}{
		{"nil result", nil, 0, StrategySimple},
		{"no decomposition", &complexity.ComplexityResult{EstimatedSubTasks: 9}, 0, StrategySimple},
		{"small plan", &complexity.ComplexityResult{RequiresDecomposition: true, EstimatedSubTasks: 5}, 0, StrategyDAG},
		{"large plan", &complexity.ComplexityResult{RequiresDecomposition: true, EstimatedSubTasks: 6}, 0, StrategySupervisor},
		{"custom threshold", &complexity.ComplexityResult{RequiresDecomposition: true, EstimatedSubTasks: 6}, 10, StrategyDAG},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectStrategy(tt.result, tt.supervisor))
		})
	}
}

func TestRequestError(t *testing.T) {
	err := NewRequestError("r1", ReasonEmpty, ErrEmptyGoal)
	assert.Equal(t, "route request r1 rejected (empty_goal): goal is empty", err.Error())
	assert.Equal(t, "route request rejected (empty_goal): goal is empty", NewRequestError("", ReasonEmpty, ErrEmptyGoal).Error())
	assert.True(t, errors.Is(err, ErrEmptyGoal))
}
