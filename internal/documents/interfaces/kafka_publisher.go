package interfaces

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/segmentio/kafka-go"

	"trade-ledger/internal/documents/application"
	"trade-ledger/internal/observability/metrics"
)

// KafkaPublisher writes document issued events to a Kafka topic.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher constructs a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// PublishDocumentIssued writes the event keyed by document id.
func (p *KafkaPublisher) PublishDocumentIssued(ctx context.Context, event application.DocumentIssued) error {
	if p == nil || p.writer == nil {
		return errors.New("documents publisher: nil kafka writer")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.DocumentID),
		Value: data,
	})
	if err != nil {
		metrics.IncPublish(metrics.ResultError)
		return err
	}
	metrics.IncPublish(metrics.ResultSuccess)
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
