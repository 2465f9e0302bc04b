package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/tienda-register-ledger/internal/config"
	"github.com/tienda-register-ledger/internal/domain/ledger"
)

// LedgerPartitionKey routes every ledger event of the register to one partition, keeping entry order
const LedgerPartitionKey = "register-ledger"

// Header keys attached to each ledger event
const (
	HeaderEntryID       = "entry-id"
	HeaderEntryKind     = "entry-kind"
	HeaderCorrelationID = "correlation-id"
)

// LedgerEventProducer publishes committed ledger events to the ledger topic
type LedgerEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewLedgerEventProducer creates the producer and ensures the ledger topic exists
func NewLedgerEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*LedgerEventProducer, error) {
	if cfg.LedgerTopic == "" {
		return nil, fmt.Errorf("kafka ledger topic is not configured")
	}

	conn, err := kafka.DialContext(ctx, "tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for ledger producer: %w", err)
	}
	defer conn.Close()

	err = ensureTopic(ctx, conn, ledgerTopicConfig(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure ledger topic %s exists: %w", cfg.LedgerTopic, err)
	}

	// Synchronous writes: the outbox marks a message processed only after the broker acknowledged it
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.LedgerTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}

	return NewLedgerEventProducerWithWriter(logger, writer, cfg.LedgerTopic), nil
}

// NewLedgerEventProducerWithWriter builds the producer over an existing writer
func NewLedgerEventProducerWithWriter(logger *slog.Logger, writer KafkaWriter, topic string) *LedgerEventProducer {
	return &LedgerEventProducer{
		logger: logger,
		writer: writer,
		topic:  topic,
	}
}

// Publish marshals value as JSON and writes it under key
func (p *LedgerEventProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message value for ledger producer: %w", err)
	}
	return p.write(ctx, kafka.Message{Key: []byte(key), Value: jsonValue})
}

// PublishEvent writes a ledger event with its entry metadata in headers
func (p *LedgerEventProducer) PublishEvent(ctx context.Context, event *ledger.Event) error {
	jsonValue, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger event %d: %w", event.Entry.ID, err)
	}

	headers := []kafka.Header{
		{Key: HeaderEntryID, Value: []byte(strconv.FormatInt(event.Entry.ID, 10))},
		{Key: HeaderEntryKind, Value: []byte(event.Entry.Kind)},
	}
	if event.CorrelationID != "" {
		headers = append(headers, kafka.Header{Key: HeaderCorrelationID, Value: []byte(event.CorrelationID)})
	}

	return p.write(ctx, kafka.Message{
		Key:     []byte(LedgerPartitionKey),
		Value:   jsonValue,
		Headers: headers,
	})
}

func (p *LedgerEventProducer) write(ctx context.Context, msg kafka.Message) error {
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish message via ledger producer",
			"topic", p.topic,
			"key", string(msg.Key),
			"error", err,
		)
		return fmt.Errorf("failed to publish message to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published message via ledger producer",
		"topic", p.topic,
		"key", string(msg.Key),
	)
	return nil
}

func (p *LedgerEventProducer) Close() error {
	p.logger.Info("Closing ledger Kafka message producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close ledger kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
