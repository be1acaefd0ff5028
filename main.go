package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/circuitbreaker"
	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/complexity"
	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/config"
	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/health"
	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/httpapi"
	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/metrics"
	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/planning"
	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/ratecontrol"
	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/tracing"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	level := zap.NewAtomicLevelAt(parseLevel(os.Getenv("LOG_LEVEL")))
	bootLogger, err := loggerConfig(level, os.Getenv("LOG_FORMAT")).Build()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	watcher, err := config.NewWatcher(config.Path(), bootLogger)
	if err != nil {
		bootLogger.Fatal("Failed to load configuration", zap.String("path", config.Path()), zap.Error(err))
	}
	cfg := watcher.Current()
	level.SetLevel(parseLevel(cfg.Observability.Logging.Level))

	// the encoding is fixed for the life of the process; level stays hot-reloadable
	logger, err := loggerConfig(level, cfg.Observability.Logging.Format).Build()
	if err != nil {
		bootLogger.Fatal("Failed to build logger", zap.Error(err))
	}
	_ = bootLogger.Sync()
	defer logger.Sync()

	shutdownTracing, err := tracing.Initialize(tracing.Config{
		Enabled:      cfg.Observability.Tracing.Enabled,
		ServiceName:  cfg.Observability.Tracing.ServiceName,
		OTLPEndpoint: cfg.Observability.Tracing.OTLPEndpoint,
		Version:      version,
	}, logger)
	if err != nil {
		logger.Warn("Failed to initialize tracing", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(registry)

	limiter := ratecontrol.New(ratecontrol.Limit{
		Requests: cfg.RateLimit.Requests,
		Interval: time.Duration(cfg.RateLimit.IntervalMs) * time.Millisecond,
	}, logger)
	loadTiers(limiter, cfg.RateLimit.TiersFile, logger)

	var shared *ratecontrol.SharedWindow
	var redisClient *redis.Client
	if addr := cfg.RateLimit.Redis.Addr; addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:         addr,
			Password:     cfg.RateLimit.Redis.Password,
			DB:           cfg.RateLimit.Redis.DB,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
		})
		breakerCfg := circuitbreaker.DefaultConfig()
		breakerCfg.OnStateChange = func(name string, _, to circuitbreaker.State) {
			m.RecordBreakerState(name, int(to))
		}
		shared = ratecontrol.NewSharedWindow(redisClient, circuitbreaker.New("redis", breakerCfg, logger), logger)
		limiter.SetShared(shared)
		logger.Info("Shared rate limiting enabled", zap.String("redis_addr", addr))
	}

	analyzer, err := complexity.New(cfg.Analyzer.Mode)
	if err != nil {
		logger.Fatal("Invalid analyzer mode", zap.Error(err))
	}
	router := planning.NewRouter(analyzer, planning.Options{
		MaxInputBytes: cfg.Analyzer.MaxInputBytes,
		IncludeReport: cfg.Analyzer.IncludeReport,
	}, limiter, m, logger)

	watcher.OnChange(func(prev, next *config.Config) {
		if err := router.ApplyConfig(next); err != nil {
			logger.Error("Failed to apply configuration", zap.Error(err))
			return
		}
		level.SetLevel(parseLevel(next.Observability.Logging.Level))
		if next.RateLimit.TiersFile != prev.RateLimit.TiersFile {
			loadTiers(limiter, next.RateLimit.TiersFile, logger)
		}
	})
	watcher.Start()

	hm := health.NewManager(logger)
	_ = hm.RegisterChecker(health.NewAnalyzerChecker(router))
	_ = hm.RegisterChecker(health.NewConfigChecker(watcher))
	if shared != nil {
		_ = hm.RegisterChecker(health.NewRateStoreChecker(shared))
	}

	mux := http.NewServeMux()
	httpapi.NewAnalyzeHandler(router, limiter, logger, cfg.Server.AuthToken).RegisterRoutes(mux)
	health.NewHTTPHandler(hm, logger).RegisterRoutes(mux)

	apiServer := httpapi.NewServer(cfg.Server, mux)
	httpapi.StartServer(apiServer, "analyzer API", logger)

	var metricsServer *http.Server
	if cfg.Observability.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
		metricsServer = &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.MetricsPort(2112)),
			Handler:      metricsMux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		httpapi.StartServer(metricsServer, "metrics", logger)
	}

	logger.Info("Goal analyzer started",
		zap.String("version", version),
		zap.String("analyzer", analyzer.Name()),
		zap.Int("port", cfg.Server.Port),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutting down goal analyzer")
	hm.MarkShuttingDown()

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(watcher.Current().Server.ShutdownMs)*time.Millisecond)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("API server shutdown failed", zap.Error(err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.Error("Metrics server shutdown failed", zap.Error(err))
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Redis client close failed", zap.Error(err))
		}
	}
	if shutdownTracing != nil {
		if err := shutdownTracing(ctx); err != nil {
			logger.Error("Tracing shutdown failed", zap.Error(err))
		}
	}
}

// loggerConfig starts from the production config, or the development one at
// debug level, and applies the requested encoding. Empty or unknown formats keep
// the base encoding.
func loggerConfig(level zap.AtomicLevel, format string) zap.Config {
	zc := zap.NewProductionConfig()
	if level.Level() == zapcore.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	switch strings.ToLower(strings.TrimSpace(format)) {
	case config.LogFormatJSON:
		zc.Encoding = "json"
	case config.LogFormatConsole:
		zc.Encoding = "console"
	}
	return zc
}

func parseLevel(s string) zapcore.Level {
	l, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

func loadTiers(limiter *ratecontrol.Limiter, path string, logger *zap.Logger) {
	if path == "" {
		return
	}
	if err := limiter.LoadTiers(path); err != nil {
		logger.Warn("Failed to load rate limit tiers", zap.String("path", path), zap.Error(err))
	}
}
