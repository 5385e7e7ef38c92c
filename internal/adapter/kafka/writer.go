package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/mpi-etl/internal/config"
	"github.com/couchcryptid/mpi-etl/internal/domain"
)

// Writer announces persisted extracts on a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured notification topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes the summaries and writes them in a single
// WriteMessages call. Messages are keyed by extract stem so every
// notification for a region and year lands on the same partition.
func (w *Writer) Publish(ctx context.Context, summaries []domain.ExtractSummary) error {
	if len(summaries) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(summaries))
	for i := range summaries {
		msg, err := serializeToMessage(summaries[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d extract notifications: %w", len(msgs), err)
	}
	w.logger.Debug("extract notifications published", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an ExtractSummary into a Kafka message.
func serializeToMessage(s domain.ExtractSummary) (kafkago.Message, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize extract summary: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(domain.Stem(s.Region, s.Year)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "region", Value: []byte(s.Region)},
			{Key: "year", Value: []byte(strconv.Itoa(s.Year))},
			{Key: "generated_at", Value: []byte(s.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}

// SummaryFromMessage decodes a notification written by Writer.
func SummaryFromMessage(msg kafkago.Message) (domain.ExtractSummary, error) {
	var s domain.ExtractSummary
	if err := json.Unmarshal(msg.Value, &s); err != nil {
		return domain.ExtractSummary{}, fmt.Errorf("decode extract summary %q: %w", msg.Key, err)
	}
	return s, nil
}
