package producers

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tienda-register-ledger/internal/config"
)

// topicAdmin is the part of *kafka.Conn used to inspect and create topics
type topicAdmin interface {
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	CreateTopics(topics ...kafka.TopicConfig) error
}

var (
	topicReadAttempts = 5
	topicReadBackoff  = 2 * time.Second
)

// ledgerTopicConfig keeps committed entries forever so a fresh projector can
// rebuild the archive from the first offset
func ledgerTopicConfig(cfg *config.KafkaConfig) kafka.TopicConfig {
	tc := baseTopicConfig(cfg, cfg.LedgerTopic)
	tc.ConfigEntries = []kafka.ConfigEntry{
		{ConfigName: "retention.ms", ConfigValue: "-1"},
		{ConfigName: "cleanup.policy", ConfigValue: "delete"},
	}
	return tc
}

func dlqTopicConfig(cfg *config.KafkaConfig) kafka.TopicConfig {
	return baseTopicConfig(cfg, cfg.DLQTopic)
}

func baseTopicConfig(cfg *config.KafkaConfig, topic string) kafka.TopicConfig {
	return kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     cmp.Or(cfg.NumPartitions, 1),
		ReplicationFactor: cmp.Or(cfg.ReplicationFactor, 1),
	}
}

// ensureTopic creates the topic unless its partitions can be read. Transient
// read errors are retried; an unknown topic goes straight to creation.
func ensureTopic(ctx context.Context, admin topicAdmin, topic kafka.TopicConfig, log *slog.Logger) error {
	for attempt := 1; attempt <= topicReadAttempts; attempt++ {
		partitions, err := admin.ReadPartitions(topic.Topic)
		if err == nil && len(partitions) > 0 {
			log.Info("Kafka topic exists", "topic", topic.Topic, "partitions", len(partitions))
			return nil
		}
		if err == nil || errors.Is(err, kafka.UnknownTopicOrPartition) {
			break
		}
		log.Warn("Failed to read topic partitions, retrying", "topic", topic.Topic, "attempt", attempt, "error", err)
		if attempt == topicReadAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(topicReadBackoff):
		}
	}

	log.Info("Creating Kafka topic", "topic", topic.Topic,
		"partitions", topic.NumPartitions, "replication_factor", topic.ReplicationFactor)
	if err := admin.CreateTopics(topic); err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("failed to create kafka topic %s: %w", topic.Topic, err)
	}
	return nil
}
