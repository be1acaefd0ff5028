package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/complexity"
	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/config"
	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/planning"
	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/ratecontrol"
	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/tracing"
)

const (
	// RequestIDHeader is echoed on every response
	RequestIDHeader = "X-Request-ID"

	defaultMaxBodyBytes = 1 << 20
	maxRequestIDLen     = 128
)

// AnalyzeHandler serves goal assessments over HTTP.
type AnalyzeHandler struct {
	router       *planning.Router
	limiter      *ratecontrol.Limiter
	logger       *zap.Logger
	authToken    string
	maxBodyBytes int64
}

// NewAnalyzeHandler creates a new handler. limiter is only consulted for
// Retry-After hints and may be nil.
func NewAnalyzeHandler(router *planning.Router, limiter *ratecontrol.Limiter, logger *zap.Logger, authToken string) *AnalyzeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyzeHandler{
		router:       router,
		limiter:      limiter,
		logger:       logger,
		authToken:    authToken,
		maxBodyBytes: defaultMaxBodyBytes,
	}
}

// RegisterRoutes registers analysis routes on the provided mux.
func (h *AnalyzeHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/analyze", h.handleAnalyze)
	mux.HandleFunc("/v1/analyzers", h.handleAnalyzers)
}

// analyzeRequest is the expected payload for /v1/analyze.
type analyzeRequest struct {
	Goal          string `json:"goal"`
	IncludeReport bool   `json:"include_report,omitempty"`
	Analyzer      string `json:"analyzer,omitempty"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (h *AnalyzeHandler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)
	w.Header().Set(RequestIDHeader, requestID)

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		h.writeError(w, http.StatusMethodNotAllowed, requestID, "method not allowed")
		return
	}
	if !h.authorized(r) {
		h.writeError(w, http.StatusUnauthorized, requestID, "unauthorized")
		return
	}

	ctx, span := tracing.StartHTTPSpan(r.Context(), r.Method, "/v1/analyze")
	defer span.End()
	if tp := tracing.W3CTraceparent(ctx); tp != "" {
		w.Header().Set("traceparent", tp)
	}
	if traceID, _, _, ok := tracing.ParseTraceparent(r.Header.Get("traceparent")); ok {
		h.logger.Debug("Inbound trace context",
			zap.String("request_id", requestID),
			zap.String("caller_trace_id", traceID),
		)
	}

	var req analyzeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, requestID, "request body too large")
			return
		}
		h.logger.Warn("analyze decode error", zap.String("request_id", requestID), zap.Error(err))
		h.writeError(w, http.StatusBadRequest, requestID, "invalid JSON")
		return
	}

	clientID := ratecontrol.ClientKey(r)
	plan, err := h.router.RouteRequest(ctx, planning.Request{
		RequestID:     requestID,
		ClientID:      clientID,
		Goal:          req.Goal,
		Analyzer:      req.Analyzer,
		IncludeReport: req.IncludeReport,
	})
	if err != nil {
		code := statusFor(err)
		if code == http.StatusTooManyRequests && h.limiter != nil {
			w.Header().Set("Retry-After", strconv.Itoa(int(h.limiter.RetryAfter(clientID).Seconds())))
		}
		if code >= http.StatusInternalServerError {
			h.logger.Error("analyze failed", zap.String("request_id", requestID), zap.Error(err))
		}
		h.writeError(w, code, requestID, publicMessage(err))
		return
	}

	h.logger.Info("Goal analyzed",
		zap.String("request_id", requestID),
		zap.String("client", clientID),
		zap.String("mode", plan.Mode),
		zap.String("strategy", plan.Strategy),
		zap.Int("subtasks", plan.Result.EstimatedSubTasks),
	)
	h.writeJSON(w, http.StatusOK, plan)
}

func (h *AnalyzeHandler) handleAnalyzers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		requestID := requestIDFrom(r)
		w.Header().Set(RequestIDHeader, requestID)
		w.Header().Set("Allow", http.MethodGet)
		h.writeError(w, http.StatusMethodNotAllowed, requestID, "method not allowed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"default":   h.router.Analyzer().Name(),
		"available": complexity.Modes(),
	})
}

func (h *AnalyzeHandler) authorized(r *http.Request) bool {
	if h.authToken == "" {
		return true
	}
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == h.authToken
}

// statusFor maps routing errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, planning.ErrEmptyGoal), errors.Is(err, complexity.ErrUnknownAnalyzer):
		return http.StatusBadRequest
	case errors.Is(err, planning.ErrGoalTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, planning.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage strips request bookkeeping from err for clients
func publicMessage(err error) string {
	var reqErr *planning.RequestError
	if errors.As(err, &reqErr) && reqErr.Cause != nil {
		return reqErr.Cause.Error()
	}
	return err.Error()
}

func requestIDFrom(r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
	if id == "" || len(id) > maxRequestIDLen {
		return uuid.NewString()
	}
	return id
}

func (h *AnalyzeHandler) writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *AnalyzeHandler) writeError(w http.ResponseWriter, code int, requestID, message string) {
	h.writeJSON(w, code, errorResponse{Error: message, RequestID: requestID})
}

// NewServer builds the API server with the configured timeouts.
func NewServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  millis(cfg.ReadTimeoutMs, 10*time.Second),
		WriteTimeout: millis(cfg.WriteTimeoutMs, 10*time.Second),
		IdleTimeout:  millis(cfg.IdleTimeoutMs, 60*time.Second),
	}
}

// StartServer runs srv in the background until it is shut down.
func StartServer(srv *http.Server, name string, logger *zap.Logger) {
	go func() {
		logger.Info("Starting "+name+" server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(name+" server failed", zap.Error(err))
		}
	}()
}

func millis(ms int, fallback time.Duration) time.Duration {
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
