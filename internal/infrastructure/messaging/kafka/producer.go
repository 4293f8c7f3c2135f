package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/rs/zerolog"

	"github.com/storefront/store-api/internal/core/domain"
	"github.com/storefront/store-api/internal/core/ports"
)

var (
	_ ports.PurchaseEventPublisher = (*Producer)(nil)
	_ ports.PurchaseEventPublisher = (*LogPublisher)(nil)
)

// Producer publishes purchase events as JSON, keyed by client id.
type Producer struct {
	producer *kafka.Producer
	topic    string
}

func NewProducer(brokers, topic string) (*Producer, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  brokers,
		"acks":               "all",
		"enable.idempotence": true,
	})
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return &Producer{producer: p, topic: topic}, nil
}

// Publish produces evt and waits for its delivery report.
func (p *Producer) Publish(ctx context.Context, evt domain.PurchaseCreatedEvent) error {
	msg, err := newMessage(p.topic, evt)
	if err != nil {
		return err
	}

	delivery := make(chan kafka.Event, 1)
	if err := p.producer.Produce(msg, delivery); err != nil {
		return fmt.Errorf("produce purchase event: %w", err)
	}

	select {
	case e := <-delivery:
		m, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected delivery event %v", e)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("deliver purchase event: %w", m.TopicPartition.Error)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes outstanding messages, giving up when ctx is done.
func (p *Producer) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.producer.Flush(5000)
	}()
	select {
	case <-done:
		p.producer.Close()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newMessage(topic string, evt domain.PurchaseCreatedEvent) (*kafka.Message, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("marshal purchase event: %w", err)
	}
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(evt.ClientID.String()),
		Value:          data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("purchase.created")},
		},
	}, nil
}

// LogPublisher stands in for Kafka when no brokers are configured.
type LogPublisher struct {
	log zerolog.Logger
}

func NewLogPublisher(log zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, evt domain.PurchaseCreatedEvent) error {
	p.log.Info().
		Str("purchase_id", evt.PurchaseID.String()).
		Str("client_id", evt.ClientID.String()).
		Str("total", evt.Total.StringFixed(domain.MoneyPlaces)).
		Int("items", len(evt.Items)).
		Msg("purchase created event")
	return nil
}
