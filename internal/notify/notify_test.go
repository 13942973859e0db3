package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/require"
)

type stubWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (s *stubWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	s.msgs = append(s.msgs, msgs...)
	return nil
}

func (s *stubWriter) Close() error {
	s.closed = true
	return nil
}

type stubChannel struct {
	key  string
	msgs []amqp.Publishing
}

func (s *stubChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	s.key = exchange + "/" + key
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *stubChannel) Close() error { return nil }

func sampleEvent() RunEvent {
	finished := time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC)
	return RunEvent{
		RunID:      "run-42",
		Kind:       "trip",
		Outcome:    "success",
		StartedAt:  finished.Add(-time.Minute),
		FinishedAt: finished,
		Files:      2,
		Extracted:  10,
		Loaded:     9,
		Dropped:    map[string]int{"missing_essential": 1},
		Archived:   2,
	}
}

func TestKafkaNotify(t *testing.T) {
	writer := &stubWriter{}
	k := &Kafka{writer: writer}

	require.NoError(t, k.Notify(context.Background(), sampleEvent()))
	require.Len(t, writer.msgs, 1)
	require.Equal(t, "run-42", string(writer.msgs[0].Key))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(writer.msgs[0].Value, &decoded))
	require.Equal(t, "success", decoded["outcome"])
	require.Equal(t, float64(9), decoded["loaded_rows"])
	require.NotContains(t, decoded, "error")

	require.NoError(t, k.Close())
	require.True(t, writer.closed)
}

func TestAMQPNotify(t *testing.T) {
	ch := &stubChannel{}
	a := &AMQP{ch: ch, queue: "pipeline_runs"}

	require.NoError(t, a.Notify(context.Background(), sampleEvent()))
	require.Equal(t, "/pipeline_runs", ch.key)
	require.Len(t, ch.msgs, 1)
	require.Equal(t, "application/json", ch.msgs[0].ContentType)
	require.Equal(t, amqp.Persistent, ch.msgs[0].DeliveryMode)
	require.Equal(t, "run-42", ch.msgs[0].MessageId)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, a.Notify(ctx, sampleEvent()), context.Canceled)
	require.NoError(t, a.Close())
}
