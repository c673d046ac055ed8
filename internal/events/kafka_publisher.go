package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"medhive-backend/internal/domain"

	"github.com/segmentio/kafka-go"
)

const EventInquiryDispatched = "inquiry.dispatched.v1"

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer MessageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return NewKafkaPublisherWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	})
}

func NewKafkaPublisherWithWriter(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

type envelope struct {
	Type    string                   `json:"type"`
	Payload domain.InquiryDispatched `json:"payload"`
}

func (p *KafkaPublisher) PublishInquiryDispatched(ctx context.Context, event domain.InquiryDispatched) error {
	value, err := json.Marshal(envelope{Type: EventInquiryDispatched, Payload: event})
	if err != nil {
		return err
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.RequestID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventInquiryDispatched)},
		},
	})
	if err != nil {
		return fmt.Errorf("kafka publish %s: %w", EventInquiryDispatched, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
