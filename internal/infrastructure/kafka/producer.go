package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/arun-ammasai/crypto-trading-setup/internal/domain"
)

// EventAnalysisCompleted is the event type of every published analysis.
const EventAnalysisCompleted = "ANALYSIS_COMPLETED"

// AnalysisEvent is the Kafka message value.
type AnalysisEvent struct {
	EventType string               `json:"event_type"`
	Symbol    string               `json:"symbol"`
	Analysis  *domain.CoinAnalysis `json:"analysis"`
	Timestamp time.Time            `json:"timestamp"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer handles publishing events to Kafka
type Producer struct {
	writer messageWriter
	topic  string
	now    func() time.Time
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
		now:    time.Now,
	}
}

// PublishAnalysis publishes an ANALYSIS_COMPLETED event keyed by symbol, so
// every analysis of one symbol lands on the same partition.
func (p *Producer) PublishAnalysis(ctx context.Context, a *domain.CoinAnalysis) error {
	symbol := strings.ToUpper(a.Symbol)
	event := AnalysisEvent{
		EventType: EventAnalysisCompleted,
		Symbol:    symbol,
		Analysis:  a,
		Timestamp: p.now().UTC(),
	}
	return p.publish(ctx, symbol, event)
}

func (p *Producer) publish(ctx context.Context, key string, event AnalysisEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

var _ domain.AnalysisPublisher = (*Producer)(nil)
