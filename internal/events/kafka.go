package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/inboundiq/server/internal/agent/model"
	logx "github.com/inboundiq/server/pkg/logger"
)

// KafkaSink publishes decision and escalation events to two topics, keyed by
// lead so each lead's events stay ordered within a partition.
type KafkaSink struct {
	decisions   *kafka.Writer
	escalations *kafka.Writer
}

func NewKafkaSink(brokers []string, decisionTopic, escalationTopic string) *KafkaSink {
	return &KafkaSink{
		decisions: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    decisionTopic,
			Balancer: &kafka.LeastBytes{},
		},
		escalations: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    escalationTopic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (s *KafkaSink) PublishDecision(ctx context.Context, ev DecisionEvent) error {
	return publish(ctx, s.decisions, ev.LeadKey, ev)
}

func (s *KafkaSink) PublishEscalation(ctx context.Context, ev model.EscalationEvent) error {
	return publish(ctx, s.escalations, ev.LeadKey, ev)
}

func publish(ctx context.Context, w *kafka.Writer, key string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: b}); err != nil {
		logx.Error().Err(err).Str("topic", w.Topic).Str("key", key).Msg("failed to publish event")
		return fmt.Errorf("write %s: %w", w.Topic, err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	derr := s.decisions.Close()
	eerr := s.escalations.Close()
	if derr != nil {
		return derr
	}
	return eerr
}

var _ Sink = (*KafkaSink)(nil)
