// Package events publishes workflow events to Kafka.
//
// The publisher is fire-and-forget with error logging: certificate issuance
// and contribution confirmation must never fail because the event bus is
// down. Consumers (notifications, analytics) tolerate gaps.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"givehub/internal/platform/config"
)

// Event types emitted by the workflow engine.
const (
	TypeContributionConfirmed = "contribution.confirmed"
	TypeCertificateIssued     = "certificate.issued"
	TypeFlagRequestApproved   = "flag_request.approved"
)

// Envelope is the wire format for workflow events.
type Envelope struct {
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Publisher emits workflow events to a Kafka topic. A nil *Publisher is a
// valid no-op so services can be wired without a broker.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// New connects to the configured brokers and ensures the topic exists.
// Returns nil if no brokers are configured (events disabled).
func New(cfg config.KafkaConfig, logger *slog.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopic(client, cfg.Topic); err != nil {
		client.Close()
		return nil, err
	}

	return &Publisher{client: client, topic: cfg.Topic, logger: logger}, nil
}

func ensureTopic(client *kgo.Client, topic string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopic(ctx, -1, -1, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %q: %w", topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %q: %w", topic, resp.Err)
	}
	return nil
}

// Emit publishes one event asynchronously. Failures are logged, never
// returned: workflow state transitions do not depend on the bus.
func (p *Publisher) Emit(ctx context.Context, eventType string, payload any) {
	if p == nil {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		p.logger.ErrorContext(ctx, "marshal event payload", "type", eventType, "error", err)
		return
	}
	envelope, err := json.Marshal(Envelope{
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    body,
	})
	if err != nil {
		p.logger.ErrorContext(ctx, "marshal event envelope", "type", eventType, "error", err)
		return
	}

	record := &kgo.Record{Topic: p.topic, Key: []byte(eventType), Value: envelope}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("publish workflow event", "type", eventType, "error", err)
		}
	})
}

// Close flushes pending records and releases the client.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = p.client.Flush(ctx)
	p.client.Close()
}
