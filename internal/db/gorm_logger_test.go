package db

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"
)

func TestResolveGormLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level string
		env   string
		want  gormlogger.LogLevel
	}{
		{level: "debug", want: gormlogger.Info},
		{level: " INFO ", want: gormlogger.Warn},
		{level: "error", want: gormlogger.Error},
		{level: "silent", want: gormlogger.Silent},
		{level: "loud", env: "local", want: gormlogger.Warn},
		{level: "loud", env: "production", want: gormlogger.Error},
	}

	for _, tc := range tests {
		if got := resolveGormLogLevel(tc.level, tc.env); got != tc.want {
			t.Fatalf("resolveGormLogLevel(%q, %q) = %v, want %v", tc.level, tc.env, got, tc.want)
		}
	}
}

func TestGormLoggerWritesToZerolog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := zerolog.New(&buf).With().Str("channel", "db").Logger()

	newGormLogger(logger, gormlogger.Warn).Warn(context.Background(), "slow %s", "statement")
	out := buf.String()
	if !strings.Contains(out, `"channel":"db"`) || !strings.Contains(out, `"component":"gorm"`) || !strings.Contains(out, "slow statement") {
		t.Fatalf("unexpected log output: %q", out)
	}

	buf.Reset()
	newGormLogger(logger, gormlogger.Error).Warn(context.Background(), "dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected warn to be filtered at error level, got %q", buf.String())
	}
}
