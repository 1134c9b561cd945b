package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestContextFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	prev := globalLogger
	globalLogger = &Logger{zap: zap.New(core)}
	t.Cleanup(func() { globalLogger = prev })

	ctx := WithCriterionID(WithUserID(WithRunID(context.Background(), "run-1"), "42"), "c1")
	Warn(ctx, "criterion text not fully delivered", zap.String("reason", "broken pipe"))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "run-1", fields["run_id"])
	assert.Equal(t, "42", fields["user_id"])
	assert.Equal(t, "c1", fields["criterion_id"])
	assert.Equal(t, "broken pipe", fields["reason"])
}

func TestNilLoggerIsNoop(t *testing.T) {
	prev := globalLogger
	globalLogger = nil
	t.Cleanup(func() { globalLogger = prev })

	assert.NotPanics(t, func() {
		Info(context.Background(), "ignored")
		_ = Sync()
	})
}

func TestNewLoggerRejectsBadLevel(t *testing.T) {
	_, err := NewLogger(Config{Level: "loud"})
	assert.Error(t, err)

	l, err := NewLogger(Config{Level: "debug", Format: "json", OutputPath: "stderr"})
	require.NoError(t, err)
	assert.NotNil(t, l)
}
