package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestInitLevels(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		debug   bool
		enabled zapcore.Level
		muted   zapcore.Level
	}{
		{"default", false, false, zapcore.WarnLevel, zapcore.InfoLevel},
		{"verbose", true, false, zapcore.InfoLevel, zapcore.DebugLevel},
		{"debug", false, true, zapcore.DebugLevel, zapcore.DebugLevel - 1},
		{"debug wins", true, true, zapcore.DebugLevel, zapcore.DebugLevel - 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Init(tt.verbose, tt.debug); err != nil {
				t.Fatalf("Init() error: %v", err)
			}
			core := Logger.Desugar().Core()
			if !core.Enabled(tt.enabled) {
				t.Errorf("expected level %s enabled", tt.enabled)
			}
			if core.Enabled(tt.muted) {
				t.Errorf("expected level %s muted", tt.muted)
			}
		})
	}
}
