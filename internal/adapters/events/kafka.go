package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stop-route-service/internal/ports"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaPublisher writes route events as JSON, keyed by stop id so updates to
// one stop land on the same partition.
type KafkaPublisher struct {
	writer messageWriter
	logger *zap.Logger
}

// NewKafkaPublisher creates an async writer. Delivery failures surface in the
// writer's completion callback and are logged there.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion: func(msgs []kafkago.Message, err error) {
			if err != nil {
				logger.Error("failed to deliver route events",
					zap.Int("count", len(msgs)),
					zap.Error(err),
				)
			}
		},
	}
	return &KafkaPublisher{writer: w, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt ports.RouteEvent) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("publish %s: marshal: %w", evt.Type, err)
	}

	msg := kafkago.Message{
		Key:   []byte(evt.StopID),
		Value: value,
		Time:  evt.OccurredAt,
		Headers: []kafkago.Header{
			{Key: "type", Value: []byte(evt.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", evt.Type, err)
	}

	p.logger.Debug("route event queued", zap.String("type", evt.Type), zap.String("stop_id", evt.StopID))
	return nil
}

// Close flushes pending messages.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Noop discards events. Used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, ports.RouteEvent) error { return nil }
