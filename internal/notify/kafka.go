package notify

import (
	"context"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes run events keyed by run id.
type Kafka struct {
	writer messageWriter
}

// NewKafka creates a synchronous writer for topic.
func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		Async:        false,
	}}
}

// Notify writes one message.
func (k *Kafka) Notify(ctx context.Context, event RunEvent) error {
	payload, err := event.Encode()
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.RunID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte("pipeline.run_finished")},
			{Key: "outcome", Value: []byte(event.Outcome)},
		},
	})
}

// Close releases the writer.
func (k *Kafka) Close() error {
	return k.writer.Close()
}
