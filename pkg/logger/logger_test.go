package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerWithConfigHonoursLevel(t *testing.T) {
	tests := []struct {
		name         string
		level        string
		debugEnabled bool
		infoEnabled  bool
	}{
		{"debug enables everything", "debug", true, true},
		{"warn silences info", "warn", false, false},
		{"unknown level falls back to info", "verbose", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLoggerWithConfig(tt.level, "json")
			assert.Equal(t, tt.debugEnabled, l.Core().Enabled(zapcore.DebugLevel))
			assert.Equal(t, tt.infoEnabled, l.Core().Enabled(zapcore.InfoLevel))
		})
	}
}

func TestNewLoggerDefaultsToInfo(t *testing.T) {
	l := NewLogger()
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestNewLoggerWithConfigConsoleFormat(t *testing.T) {
	l := NewLoggerWithConfig("info", "console")
	assert.NotNil(t, l.Logger)
}
