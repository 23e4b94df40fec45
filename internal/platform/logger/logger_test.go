package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/engsync/briefing/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogLevels(t *testing.T) {
	tests := []struct {
		configured string
		debugOn    bool
		warnOn     bool
	}{
		{configured: "debug", debugOn: true, warnOn: true},
		{configured: "info", debugOn: false, warnOn: true},
		{configured: "warn", debugOn: false, warnOn: true},
		{configured: "error", debugOn: false, warnOn: false},
		{configured: "bogus", debugOn: false, warnOn: true}, // falls back to info
	}

	for _, tc := range tests {
		t.Run(tc.configured, func(t *testing.T) {
			logger, err := Setup(config.ServerConfig{LogLevel: tc.configured})
			require.NoError(t, err)
			require.NotNil(t, logger)

			ctx := context.Background()
			assert.Equal(t, tc.debugOn, logger.Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tc.warnOn, logger.Enabled(ctx, slog.LevelWarn))
		})
	}
}

func TestSetupEmitsJSON(t *testing.T) {
	// Setup writes to stdout; build an equivalent handler against a buffer to
	// verify the JSON shape the application emits.
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	logger.Info("broadcast completed", "recipient_count", 4)

	line := strings.TrimSpace(buf.String())
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &entry))

	assert.Equal(t, "broadcast completed", entry["msg"])
	assert.Equal(t, float64(4), entry["recipient_count"])
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	t.Run("returns stored logger", func(t *testing.T) {
		t.Parallel()
		logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
		ctx := WithLogger(context.Background(), logger)

		assert.Same(t, logger, FromContext(ctx))
	})

	t.Run("falls back to default logger", func(t *testing.T) {
		t.Parallel()
		assert.NotNil(t, FromContext(context.Background()))
		assert.NotNil(t, FromContext(nil)) //nolint:staticcheck // nil context fallback is part of the contract
	})
}
