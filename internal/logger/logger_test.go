package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/kozaktomas/capture-kit/internal/config"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.LogConfig
		wantDebug   bool
		wantInfo    bool
		expectError bool
	}{
		{"default", config.LogConfig{}, false, true, false},
		{"debug production", config.LogConfig{Level: "debug"}, true, true, false},
		{"warn development", config.LogConfig{Level: "warn", Development: true}, false, false, false},
		{"invalid", config.LogConfig{Level: "loud"}, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.expectError {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if got := l.Core().Enabled(zapcore.DebugLevel); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if got := l.Core().Enabled(zapcore.InfoLevel); got != tt.wantInfo {
				t.Errorf("info enabled = %v, want %v", got, tt.wantInfo)
			}
		})
	}
}
