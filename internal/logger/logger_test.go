package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TestParseLogLevel verifies mapping from strings to zapcore.Level and handling of unknown values.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" INFO ":  zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"fatal":   zapcore.FatalLevel,
	}
	for s, lvl := range cases {
		got, ok := ParseLogLevel(s)
		require.True(t, ok, s)
		require.Equal(t, lvl, got)
	}

	_, ok := ParseLogLevel("unknown")
	require.False(t, ok)
}

// TestContextHelpers checks that named loggers travel through the context and fields are emitted.
func TestContextHelpers(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	l := New(zap.NewAtomicLevelAt(zapcore.DebugLevel), &buf)

	ctx := ToContext(context.Background(), l)
	ctx = WithName(ctx, "start-point")
	ctx = WithKV(ctx, "volume", "languages")

	DebugKV(ctx, "Reading manifest", "image", "cyberdojo/commander")

	out := buf.String()
	require.Contains(t, out, "DEBUG")
	require.Contains(t, out, "start-point")
	require.Contains(t, out, "Reading manifest")
	require.Contains(t, out, "volume")
	require.Contains(t, out, "languages")
}

// TestFromContext_FallsBackToGlobal ensures a bare context yields the global logger.
func TestFromContext_FallsBackToGlobal(t *testing.T) {
	t.Parallel()

	require.Same(t, Logger(), FromContext(context.Background()))
}
