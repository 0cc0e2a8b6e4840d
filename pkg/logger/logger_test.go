package logger

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, parseLevel("warn"))
	require.Equal(t, slog.LevelError, parseLevel("error"))
	require.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestBuildSelectsHandlerByEnv(t *testing.T) {
	_, isJSON := build("production", "").Handler().(*slog.JSONHandler)
	require.True(t, isJSON)

	_, isJSON = build("dev", "").Handler().(*slog.JSONHandler)
	require.False(t, isJSON)
}
