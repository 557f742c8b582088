// Package events announces committed imports to downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/jask/cashledger/internal/logging"
)

// DefaultTopic is used when no topic is configured.
const DefaultTopic = "ledger.imported"

// ImportEvent describes one committed import batch.
type ImportEvent struct {
	BatchID    string    `json:"batch_id"`
	AccountID  string    `json:"account_id"`
	Inserted   int       `json:"inserted"`
	Duplicates int       `json:"duplicates"`
	Dropped    int       `json:"dropped"`
	ImportedAt time.Time `json:"imported_at"`
}

// Publisher sends import events.
type Publisher interface {
	PublishImport(ctx context.Context, ev ImportEvent) error
	Close() error
}

// Nop discards events.
type Nop struct{}

func (Nop) PublishImport(context.Context, ImportEvent) error { return nil }
func (Nop) Close() error                                     { return nil }

// Kafka publishes events keyed by account so per-account order holds.
type Kafka struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewKafka(brokers []string, topic string, logger *zap.Logger) *Kafka {
	logger = logging.OrNop(logger)
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		Logger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Debug(fmt.Sprintf(msg, args...))
		}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Warn(fmt.Sprintf(msg, args...))
		}),
	}
	return &Kafka{writer: w, logger: logger}
}

// New picks Kafka when brokers are configured and Nop otherwise.
func New(brokers []string, topic string, logger *zap.Logger) Publisher {
	if len(brokers) == 0 {
		return Nop{}
	}
	return NewKafka(brokers, topic, logger)
}

func (k *Kafka) PublishImport(ctx context.Context, ev ImportEvent) error {
	msg, err := Message(ev)
	if err != nil {
		return err
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish import %s: %w", ev.BatchID, err)
	}
	return nil
}

func (k *Kafka) Close() error { return k.writer.Close() }

// Message encodes ev as a kafka message.
func Message(ev ImportEvent) (kafka.Message, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode import event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(ev.AccountID),
		Value: data,
		Time:  ev.ImportedAt,
		Headers: []kafka.Header{
			{Key: "batch_id", Value: []byte(ev.BatchID)},
		},
	}, nil
}
