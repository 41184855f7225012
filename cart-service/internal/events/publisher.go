package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/fjod/go_cart/cart-service/internal/domain"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	DefaultTopic     = "cart-updated"
	defaultQueueSize = 64
	writeTimeout     = 10 * time.Second
)

// CartEvent is published after every committed cart change.
type CartEvent struct {
	EventID    string      `json:"event_id"`
	StorageKey string      `json:"storage_key"`
	Items      domain.Cart `json:"items"`
	TotalItems int         `json:"total_items"`
	OccurredAt time.Time   `json:"occurred_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher forwards committed carts to Kafka. OnCartChanged is meant to be
// registered with the engine's Subscribe; it only queues, and Run does the
// writes, so a slow broker never holds up a commit.
type Publisher struct {
	writer     messageWriter
	storageKey string
	queue      chan domain.Cart
	log        *slog.Logger
}

func NewPublisher(brokers []string, topic, storageKey string, log *slog.Logger) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newPublisher(writer, storageKey, defaultQueueSize, log)
}

func newPublisher(writer messageWriter, storageKey string, queueSize int, log *slog.Logger) *Publisher {
	return &Publisher{
		writer:     writer,
		storageKey: storageKey,
		queue:      make(chan domain.Cart, queueSize),
		log:        log,
	}
}

// OnCartChanged queues cart for publishing. When the queue is full the event
// is dropped and logged.
func (p *Publisher) OnCartChanged(cart domain.Cart) {
	select {
	case p.queue <- cart:
	default:
		p.log.Warn("cart event queue full, dropping event", "items", cart.TotalItems())
	}
}

// Run publishes queued carts until ctx is done. Events still queued at that
// point are flushed with a bounded timeout.
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.drain()
			return
		case cart := <-p.queue:
			if err := p.publish(ctx, cart); err != nil {
				p.log.ErrorContext(ctx, "failed to publish cart event", "error", err)
			}
		}
	}
}

func (p *Publisher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	for {
		select {
		case cart := <-p.queue:
			if err := p.publish(ctx, cart); err != nil {
				p.log.Error("failed to publish cart event", "error", err)
			}
		default:
			return
		}
	}
}

func (p *Publisher) publish(ctx context.Context, cart domain.Cart) error {
	event := CartEvent{
		EventID:    uuid.NewString(),
		StorageKey: p.storageKey,
		Items:      cart,
		TotalItems: cart.TotalItems(),
		OccurredAt: time.Now().UTC(),
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal cart event failed: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(p.storageKey),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.EventID)},
		},
	}
	if err := p.writer.WriteMessages(writeCtx, msg); err != nil {
		return fmt.Errorf("kafka write failed: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("error closing writer: %w", err)
	}
	return nil
}
