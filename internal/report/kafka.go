package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/gyaneshwarpardhi/evacflow/internal/sim"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes one message per finished run, keyed by building name.
// Steps are not published.
type KafkaSink struct {
	w messageWriter
}

// NewKafka creates a sink writing to topic on brokers.
func NewKafka(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{w: &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}}
}

func (*KafkaSink) Type() string { return "kafka" }

// Close flushes and closes the writer.
func (k *KafkaSink) Close() error { return k.w.Close() }

func (k *KafkaSink) Open(_ context.Context, run Run) (Recorder, error) {
	return &kafkaRecorder{w: k.w, run: run}, nil
}

// RunMessage is the published record.
type RunMessage struct {
	Run     Run         `json:"run"`
	Summary sim.Summary `json:"summary"`
}

type kafkaRecorder struct {
	w   messageWriter
	run Run
}

func (*kafkaRecorder) Step(context.Context, Frame) error { return nil }

func (r *kafkaRecorder) Close(ctx context.Context, s sim.Summary) error {
	msg, err := json.Marshal(RunMessage{Run: r.run, Summary: s})
	if err != nil {
		return fmt.Errorf("marshal run message: %w", err)
	}
	err = r.w.WriteMessages(context.WithoutCancel(ctx), kafka.Message{
		Key:   []byte(r.run.Building),
		Value: msg,
	})
	if err != nil {
		return fmt.Errorf("publish run %s: %w", r.run.ID, err)
	}
	return nil
}
