package obs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTime_LogsRequestIDAndError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	ctx := WithRequestID(context.Background(), "abc")

	err := errors.New("boom")
	Time(ctx, log, "geocode")(&err)

	var ok error
	Time(ctx, log, "route")(&ok)

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "abc", entries[0].ContextMap()["req_id"])
	assert.Equal(t, "geocode", entries[0].ContextMap()["op"])
	assert.Equal(t, "boom", entries[0].ContextMap()["error"])

	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.Equal(t, "route", entries[1].ContextMap()["op"])
}

func TestRequestID_MissingIsEmpty(t *testing.T) {
	assert.Equal(t, "", RequestID(context.Background()))
}
