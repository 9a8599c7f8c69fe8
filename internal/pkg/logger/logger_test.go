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

func TestWithFieldsAreAttached(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(zap.NewNop()) })

	ctx := WithFields(context.Background(), zap.String("run_id", "r1"))
	ctx = WithFields(ctx, zap.Int("line", 7))

	Infof(ctx, "row %d applied", 7)
	Warn(context.Background(), "plain")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "row 7 applied", entries[0].Message)
	assert.Equal(t, "r1", entries[0].ContextMap()["run_id"])
	assert.EqualValues(t, 7, entries[0].ContextMap()["line"])
	assert.Empty(t, entries[1].ContextMap())
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	require.Error(t, Init("loud", false))
	require.NoError(t, Init("warn", true))
	SetLogger(zap.NewNop())
}
