package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	cases := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tc := range cases {
		lg := New(tc.in, false)
		if !lg.Desugar().Core().Enabled(tc.want) {
			t.Fatalf("level %q: expected %s enabled", tc.in, tc.want)
		}
		if tc.want > zapcore.DebugLevel && lg.Desugar().Core().Enabled(tc.want-1) {
			t.Fatalf("level %q: expected %s disabled", tc.in, tc.want-1)
		}
	}
}
