package tracker

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"indoortrack/internal/telemetry"
)

// KafkaWriter publishes position rows and zone transitions to Kafka topics,
// keyed by device id so per-device ordering is preserved.
type KafkaWriter struct {
	positions   *kafka.Writer
	transitions *kafka.Writer
}

// NewKafkaWriter creates a KafkaWriter. transitionTopic may be empty to
// publish positions only.
func NewKafkaWriter(brokers []string, positionTopic, transitionTopic string) *KafkaWriter {
	kw := &KafkaWriter{
		positions: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        positionTopic,
			Balancer:     &kafka.Hash{}, // partition by key (device id)
			RequiredAcks: kafka.RequireOne,
		},
	}
	if transitionTopic != "" {
		kw.transitions = &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        transitionTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		}
	}
	return kw
}

// Write publishes a single position row.
func (w *KafkaWriter) Write(row telemetry.PositionRow) error {
	return w.WriteBatch([]telemetry.PositionRow{row})
}

// WriteBatch publishes multiple position rows in one produce call.
func (w *KafkaWriter) WriteBatch(rows []telemetry.PositionRow) error {
	if len(rows) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(rows))
	for _, r := range rows {
		value, err := json.Marshal(r)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{Key: []byte(r.DeviceID), Value: value})
	}
	return w.positions.WriteMessages(context.Background(), msgs...)
}

// WriteTransition publishes a single zone transition.
func (w *KafkaWriter) WriteTransition(row telemetry.TransitionRow) error {
	return w.WriteTransitions([]telemetry.TransitionRow{row})
}

// WriteTransitions publishes multiple zone transitions in one produce call.
func (w *KafkaWriter) WriteTransitions(rows []telemetry.TransitionRow) error {
	if w.transitions == nil || len(rows) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(rows))
	for _, r := range rows {
		value, err := json.Marshal(r)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{Key: []byte(r.DeviceID), Value: value})
	}
	return w.transitions.WriteMessages(context.Background(), msgs...)
}

// Close shuts down the underlying Kafka producers.
func (w *KafkaWriter) Close() error {
	err := w.positions.Close()
	if w.transitions != nil {
		if e := w.transitions.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
