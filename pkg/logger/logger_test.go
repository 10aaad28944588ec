package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Levels(t *testing.T) {
	assert.True(t, New("debug").Core().Enabled(zapcore.DebugLevel))
	assert.False(t, New("warn", "console").Core().Enabled(zapcore.InfoLevel))
	assert.True(t, New("nonsense").Core().Enabled(zapcore.InfoLevel))
}

func TestContextLogger_AttachesContextFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cl := NewContextLogger(zap.New(core))

	ctx := WithRequestID(context.Background(), "req_1")
	ctx = WithUserID(ctx, "u2")
	cl.LogRequest(ctx, "GET", "/dashboard/creator", 200, 4)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req_1", fields["request_id"])
	assert.Equal(t, "u2", fields["user_id"])
	assert.NotContains(t, fields, "trace_id")
	assert.Equal(t, "req_1", RequestID(ctx))
}

func TestContextLogger_StatusLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cl := NewContextLogger(zap.New(core))
	ctx := context.Background()

	cl.LogRequest(ctx, "GET", "/", 200, 1)
	cl.LogRequest(ctx, "GET", "/x", 404, 1)
	cl.LogRequest(ctx, "GET", "/y", 503, 1)

	levels := []zapcore.Level{}
	for _, e := range logs.All() {
		levels = append(levels, e.Level)
	}
	assert.Equal(t, []zapcore.Level{zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}, levels)
}
