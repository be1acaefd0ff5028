package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLoggerConfig(t *testing.T) {
	tests := []struct {
		name     string
		level    zapcore.Level
		format   string
		encoding string
		dev      bool
	}{
		{"production json", zapcore.InfoLevel, "json", "json", false},
		{"production console", zapcore.InfoLevel, "console", "console", false},
		{"debug keeps requested json", zapcore.DebugLevel, "json", "json", true},
		{"debug console", zapcore.DebugLevel, " Console ", "console", true},
		{"empty format keeps base", zapcore.InfoLevel, "", "json", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level := zap.NewAtomicLevelAt(tt.level)
			zc := loggerConfig(level, tt.format)
			assert.Equal(t, tt.encoding, zc.Encoding)
			assert.Equal(t, tt.dev, zc.Development)

			logger, err := zc.Build()
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.level))
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
}
