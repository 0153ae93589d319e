package tasklog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/hamed0406/alertledger/internal/domain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes each acknowledgement as a JSON domain.Acknowledgement,
// keyed by task id so one alert's history stays on one partition.
type Kafka struct {
	w   messageWriter
	now func() time.Time
}

func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
		},
		now: time.Now,
	}
}

func (k *Kafka) RecordAcknowledgement(ctx context.Context, taskID, user string, ackMillis int64) error {
	ev := domain.Acknowledgement{
		ID:         uuid.NewString(),
		TaskID:     taskID,
		User:       user,
		AckMillis:  ackMillis,
		RecordedAt: k.now().UTC(),
	}
	val, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal acknowledgement: %w", err)
	}
	if err := k.w.WriteMessages(ctx, kafka.Message{Key: []byte(taskID), Value: val}); err != nil {
		return fmt.Errorf("publish acknowledgement: %w", err)
	}
	return nil
}

func (k *Kafka) Close() error { return k.w.Close() }
