package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaPublisher writes audit events to a Kafka topic using an async
// producer. Publish never blocks the caller beyond serialization.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafkaPublisher connects to the brokers and ensures the topic exists.
// Topic creation failure is tolerated when the topic already exists or the
// cluster auto-creates topics.
func NewKafkaPublisher(ctx context.Context, brokers []string, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
		kgo.ProducerBatchMaxBytes(1<<20),
	)
	if err != nil {
		return nil, fmt.Errorf("creating kafka client: %w", err)
	}

	admCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	adm := kadm.NewClient(client)
	if _, err := adm.CreateTopics(admCtx, 1, 1, nil, topic); err != nil {
		logger.Warn("audit topic creation skipped", "topic", topic, "error", err)
	}

	return &KafkaPublisher{client: client, topic: topic, logger: logger}, nil
}

// Publish serializes the event and hands it to the async producer. Delivery
// failures are logged, not returned.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to serialize audit event", "type", event.Type, "error", err)
		return
	}

	record := &kgo.Record{
		Key:   []byte(event.UID),
		Value: payload,
	}
	p.client.Produce(context.WithoutCancel(ctx), record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("audit event delivery failed", "type", event.Type, "topic", p.topic, "error", err)
		}
	})
}

// Close flushes pending records and releases the client.
func (p *KafkaPublisher) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.client.Flush(ctx); err != nil {
		p.logger.Warn("audit flush incomplete on shutdown", "error", err)
	}
	p.client.Close()
}
