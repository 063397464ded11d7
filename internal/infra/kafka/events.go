package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Josselin-menguy/ldap-user-manager/internal/core/domain"
	"github.com/Josselin-menguy/ldap-user-manager/internal/core/port"
	"github.com/Josselin-menguy/ldap-user-manager/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	DN        string           `json:"dn,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventType, dn string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	envelope := eventEnvelope{
		EventID:   uuid.NewString(),
		EventType: eventType,
		DN:        dn,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishAccountCreated publishes directory.account.created events.
func (p *EventPublisher) PublishAccountCreated(ctx context.Context, event domain.AccountCreatedEvent) error {
	payload := struct {
		DN        string    `json:"dn"`
		Login     string    `json:"login"`
		Groups    []string  `json:"groups,omitempty"`
		CreatedAt time.Time `json:"created_at"`
	}{
		DN:        event.DN,
		Login:     event.Login,
		Groups:    event.Groups,
		CreatedAt: event.CreatedAt.UTC(),
	}

	return p.publish(ctx, "directory.account.created", event.DN, event.CreatedAt, payload)
}

// PublishAccountModified publishes directory.account.modified events.
func (p *EventPublisher) PublishAccountModified(ctx context.Context, event domain.AccountModifiedEvent) error {
	payload := struct {
		DN         string    `json:"dn"`
		ModifiedAt time.Time `json:"modified_at"`
	}{
		DN:         event.DN,
		ModifiedAt: event.ModifiedAt.UTC(),
	}

	return p.publish(ctx, "directory.account.modified", event.DN, event.ModifiedAt, payload)
}

// PublishDeletionScheduled publishes directory.account.deletion_scheduled events.
func (p *EventPublisher) PublishDeletionScheduled(ctx context.Context, event domain.DeletionScheduledEvent) error {
	payload := struct {
		DN          string    `json:"dn"`
		ScheduledAt time.Time `json:"scheduled_at"`
	}{
		DN:          event.DN,
		ScheduledAt: event.ScheduledAt,
	}

	return p.publish(ctx, "directory.account.deletion_scheduled", event.DN, event.ScheduledAt, payload)
}

// PublishAccountDeleted publishes directory.account.deleted events.
func (p *EventPublisher) PublishAccountDeleted(ctx context.Context, event domain.AccountDeletedEvent) error {
	payload := struct {
		DN        string    `json:"dn"`
		Mode      string    `json:"mode"`
		DeletedAt time.Time `json:"deleted_at"`
	}{
		DN:        event.DN,
		Mode:      string(event.Mode),
		DeletedAt: event.DeletedAt.UTC(),
	}

	return p.publish(ctx, "directory.account.deleted", event.DN, event.DeletedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
