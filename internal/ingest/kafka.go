package ingest

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"ambulance/internal/tracking"
)

const publishTimeout = 2 * time.Second

// PositionProducer streams accepted position samples to Kafka for
// downstream consumers (trip replay, analytics).
type PositionProducer struct {
	writer *kafka.Writer
	log    zerolog.Logger
}

// NewPositionProducer builds a producer for the given brokers and topic.
func NewPositionProducer(brokers []string, topic string, log zerolog.Logger) *PositionProducer {
	return &PositionProducer{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
		log: log.With().Str("component", "position-producer").Logger(),
	}
}

// PublishPosition writes one event keyed by ambulance so a partition
// holds a single vehicle's stream in order.
func (p *PositionProducer) PublishPosition(event tracking.PositionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.AmbulanceID),
		Value: payload,
	})
	if err != nil {
		p.log.Warn().Err(err).Str("ambulance_id", event.AmbulanceID).Msg("kafka publish failed")
	}
	return err
}

// Close flushes and closes the underlying writer.
func (p *PositionProducer) Close() error {
	return p.writer.Close()
}
