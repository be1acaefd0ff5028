package config

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ChangeHandler receives the previous and the freshly loaded configuration
type ChangeHandler func(prev, next *Config)

// Watcher holds the live configuration and hot-reloads it when the backing
// file changes. A reload that fails to parse or validate is logged and the
// previous configuration stays in effect.
type Watcher struct {
	path     string
	v        *viper.Viper
	logger   *zap.Logger
	mu       sync.RWMutex
	current  *Config
	handlers []ChangeHandler
	started  bool
}

// NewWatcher loads the configuration at path
func NewWatcher(path string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	v, err := newViper(path)
	if err != nil {
		return nil, err
	}
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	return &Watcher{path: path, v: v, logger: logger, current: cfg}, nil
}

// Current returns the active configuration. Callers must not mutate it.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a handler invoked after every successful reload
func (w *Watcher) OnChange(h ChangeHandler) {
	w.mu.Lock()
	w.handlers = append(w.handlers, h)
	w.mu.Unlock()
}

// Start begins watching the config file. It is a no-op when no file is in use.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.started || w.v.ConfigFileUsed() == "" {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()

	w.v.OnConfigChange(w.handleEvent)
	w.v.WatchConfig()
	w.logger.Info("Configuration watcher started", zap.String("path", w.path))
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	w.logger.Debug("Configuration file event",
		zap.String("file", filepath.Base(event.Name)),
		zap.String("op", event.Op.String()),
	)
	if err := w.Reload(); err != nil {
		w.logger.Error("Configuration reload rejected, keeping previous config",
			zap.String("path", w.path),
			zap.Error(err),
		)
	}
}

// Reload re-reads the file and notifies handlers when the result is valid
func (w *Watcher) Reload() error {
	if err := w.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	next, err := decode(w.v)
	if err != nil {
		return err
	}

	w.mu.Lock()
	prev := w.current
	w.current = next
	handlers := make([]ChangeHandler, len(w.handlers))
	copy(handlers, w.handlers)
	w.mu.Unlock()

	w.logger.Info("Configuration reloaded",
		zap.String("analyzer_mode", next.Analyzer.Mode),
		zap.Int("rate_limit_requests", next.RateLimit.Requests),
	)
	for _, h := range handlers {
		h(prev, next)
	}
	return nil
}
