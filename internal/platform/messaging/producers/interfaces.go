package producers

import (
	"context"

	"github.com/segmentio/kafka-go"

	"github.com/tienda-register-ledger/internal/domain/ledger"
)

// MessagePublisher handles publishing messages to a primary topic
type MessagePublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

// EventPublisher publishes committed ledger events in entry order
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *ledger.Event) error
	Close() error
}

// DeadLetterPublisher handles publishing messages to a Dead Letter Queue
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var (
	_ EventPublisher      = (*LedgerEventProducer)(nil)
	_ DeadLetterPublisher = (*DLQProducer)(nil)
)
