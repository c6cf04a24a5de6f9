package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"stop-route-service/internal/ports"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordingWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaPublisher{writer: w, logger: zaptest.NewLogger(t)}

	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	err := p.Publish(context.Background(), ports.RouteEvent{
		Type:       "stop.added",
		StopID:     "abc",
		StopCount:  3,
		OccurredAt: at,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "abc", string(msg.Key))
	assert.Equal(t, at, msg.Time)
	assert.Equal(t, []kafkago.Header{{Key: "type", Value: []byte("stop.added")}}, msg.Headers)

	var got ports.RouteEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "stop.added", got.Type)
	assert.Equal(t, 3, got.StopCount)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WrapsWriterError(t *testing.T) {
	boom := errors.New("broker unreachable")
	p := &KafkaPublisher{writer: &recordingWriter{err: boom}, logger: zaptest.NewLogger(t)}

	err := p.Publish(context.Background(), ports.RouteEvent{Type: "stops.cleared"})
	assert.ErrorIs(t, err, boom)
}

func TestNewKafkaPublisher_ConfiguresAsyncWriter(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "route.events", nil)
	w, ok := p.writer.(*kafkago.Writer)
	require.True(t, ok)
	assert.True(t, w.Async)
	assert.Equal(t, "route.events", w.Topic)
	require.NoError(t, p.Close())
}

func TestNoop(t *testing.T) {
	assert.NoError(t, Noop{}.Publish(context.Background(), ports.RouteEvent{Type: "x"}))
}
