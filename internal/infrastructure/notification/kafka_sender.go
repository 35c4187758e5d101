package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domnotification "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/notification"

	otelkafka "github.com/Trendyol/otel-kafka-konsumer"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

var ErrNoBrokers = errors.New("notification: no kafka brokers configured")

// MessageWriter is the producing half of a Kafka client.
type MessageWriter interface {
	WriteMessage(ctx context.Context, msg kafka.Message) error
	Close() error
}

// KafkaSender publishes notifications as JSON records keyed by product name.
type KafkaSender struct {
	writer MessageWriter
}

func NewKafkaSender(w MessageWriter) *KafkaSender {
	return &KafkaSender{writer: w}
}

// NewKafkaWriter builds a trace-propagating writer for topic.
func NewKafkaWriter(brokers []string, topic, clientID string, tp trace.TracerProvider) (MessageWriter, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}
	base := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	w, err := otelkafka.NewWriter(base,
		otelkafka.WithTracerProvider(tp),
		otelkafka.WithPropagator(propagation.TraceContext{}),
		otelkafka.WithAttributes(
			[]attribute.KeyValue{
				semconv.MessagingDestinationNameKey.String(topic),
				attribute.String("messaging.kafka.client_id", clientID),
			},
		),
	)
	if err != nil {
		return nil, fmt.Errorf("notification: kafka writer: %w", err)
	}
	return w, nil
}

func (s *KafkaSender) Name() string { return "kafka" }

func (s *KafkaSender) Send(ctx context.Context, msg domnotification.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("notification: encode: %w", err)
	}
	record := kafka.Message{
		Key:   []byte(msg.ProductName),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(msg.EventID)},
			{Key: "kind", Value: []byte(msg.Kind)},
		},
	}
	if err := s.writer.WriteMessage(ctx, record); err != nil {
		return fmt.Errorf("notification: kafka write: %w", err)
	}
	return nil
}

func (s *KafkaSender) Close() error {
	return s.writer.Close()
}
