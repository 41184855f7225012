package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// Handler receives every decoded cart event.
type Handler func(ctx context.Context, event CartEvent) error

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer reads cart events from Kafka as part of a consumer group.
// Undecodable messages and handler errors are logged and skipped.
type Consumer struct {
	reader messageReader
	handle Handler
	log    *slog.Logger
}

func NewConsumer(brokers []string, topic, groupID string, handle Handler, log *slog.Logger) *Consumer {
	if topic == "" {
		topic = DefaultTopic
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return newConsumer(reader, handle, log)
}

func newConsumer(reader messageReader, handle Handler, log *slog.Logger) *Consumer {
	return &Consumer{reader: reader, handle: handle, log: log}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("error closing kafka reader: %w", err)
	}
	return nil
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		c.log.ErrorContext(ctx, "error reading message", "error", err)
		return
	}

	var event CartEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		c.log.WarnContext(ctx, "error parsing cart event", "offset", m.Offset, "error", err)
		return
	}

	if err := c.handle(ctx, event); err != nil {
		c.log.ErrorContext(ctx, "cart event handler failed", "event_id", event.EventID, "error", err)
	}
}
