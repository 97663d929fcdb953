// Package events publishes analysis lifecycle events to Kafka so
// downstream consumers (alerting, dashboards) can react to completed
// runs without polling the API.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ItaiMaoz/wnwd/internal/domain"
)

// messageWriter is the slice of kafka.Writer the publisher needs;
// narrowed for testability.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher implements the Publisher port over a Kafka topic.
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(broker, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(broker),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("publish event: encode payload: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("publish event: write message: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// AnalysisCompleted is emitted once per finished run.
type AnalysisCompleted struct {
	RunID       string    `json:"run_id"`
	ShipmentIDs []string  `json:"shipment_ids"`
	Records     int       `json:"records"`
	Errors      int       `json:"errors"`
	CompletedAt time.Time `json:"completed_at"`
}

// NewAnalysisCompleted summarizes a finished report for the event bus.
func NewAnalysisCompleted(runID string, shipmentIDs []string, report domain.AnalysisReport) AnalysisCompleted {
	return AnalysisCompleted{
		RunID:       runID,
		ShipmentIDs: shipmentIDs,
		Records:     len(report.Records),
		Errors:      len(report.Errors),
		CompletedAt: time.Now().UTC(),
	}
}
