package events

import (
	"context"
	"encoding/json"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/forest-carbon/internal/config"
)

const flushTimeoutMs = 10_000

// producer is the subset of *kafka.Producer used here.
type producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
	Close()
}

// KafkaPublisher writes events to a topic keyed by run ID and waits for
// each delivery report.
type KafkaPublisher struct {
	producer producer
	topic    string
}

// NewKafka connects a producer to cfg.BootstrapServers.
func NewKafka(cfg config.KafkaConfig) (*KafkaPublisher, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":   cfg.BootstrapServers,
		"acks":                "all",
		"enable.idempotence":  true,
		"compression.type":    "snappy",
		"linger.ms":           5,
		"request.timeout.ms":  30000,
		"delivery.timeout.ms": 120000,
	})
	if err != nil {
		return nil, eris.Wrap(err, "events: create kafka producer")
	}
	zap.L().Info("events: kafka producer initialized",
		zap.String("topic", cfg.Topic),
		zap.String("bootstrap_servers", cfg.BootstrapServers),
	)
	return &KafkaPublisher{producer: p, topic: cfg.Topic}, nil
}

// Publish produces e and blocks until the broker acknowledges it or ctx
// is done.
func (k *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return eris.Wrap(err, "events: marshal event")
	}

	delivery := make(chan kafka.Event, 1)
	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &k.topic, Partition: kafka.PartitionAny},
		Key:            []byte(e.RunID),
		Value:          payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
			{Key: "source", Value: []byte(e.Source)},
		},
	}
	if err := k.producer.Produce(msg, delivery); err != nil {
		return eris.Wrapf(err, "events: produce %s", e.Type)
	}

	select {
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "events: await delivery")
	case ev := <-delivery:
		m, ok := ev.(*kafka.Message)
		if !ok {
			return eris.Errorf("events: unexpected delivery event %T", ev)
		}
		if m.TopicPartition.Error != nil {
			return eris.Wrapf(m.TopicPartition.Error, "events: deliver %s", e.Type)
		}
		zap.L().Debug("events: delivered",
			zap.String("type", string(e.Type)),
			zap.String("run_id", e.RunID),
			zap.Int32("partition", m.TopicPartition.Partition),
		)
		return nil
	}
}

// Close flushes pending messages and closes the producer.
func (k *KafkaPublisher) Close() {
	if remaining := k.producer.Flush(flushTimeoutMs); remaining > 0 {
		zap.L().Warn("events: messages left unflushed", zap.Int("remaining", remaining))
	}
	k.producer.Close()
}
