package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Josselin-menguy/ldap-user-manager/internal/core/domain"
	"github.com/Josselin-menguy/ldap-user-manager/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, dn string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.String("dn", dn),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishAccountCreated logs directory.account.created events.
func (p *StubPublisher) PublishAccountCreated(_ context.Context, event domain.AccountCreatedEvent) error {
	payload := map[string]any{
		"dn":         event.DN,
		"login":      event.Login,
		"groups":     event.Groups,
		"created_at": event.CreatedAt,
	}
	p.logEvent("directory.account.created", event.DN, event.CreatedAt, payload)
	return nil
}

// PublishAccountModified logs directory.account.modified events.
func (p *StubPublisher) PublishAccountModified(_ context.Context, event domain.AccountModifiedEvent) error {
	payload := map[string]any{
		"dn":          event.DN,
		"modified_at": event.ModifiedAt,
	}
	p.logEvent("directory.account.modified", event.DN, event.ModifiedAt, payload)
	return nil
}

// PublishDeletionScheduled logs directory.account.deletion_scheduled events.
func (p *StubPublisher) PublishDeletionScheduled(_ context.Context, event domain.DeletionScheduledEvent) error {
	payload := map[string]any{
		"dn":           event.DN,
		"scheduled_at": event.ScheduledAt,
	}
	p.logEvent("directory.account.deletion_scheduled", event.DN, event.ScheduledAt, payload)
	return nil
}

// PublishAccountDeleted logs directory.account.deleted events.
func (p *StubPublisher) PublishAccountDeleted(_ context.Context, event domain.AccountDeletedEvent) error {
	payload := map[string]any{
		"dn":         event.DN,
		"mode":       string(event.Mode),
		"deleted_at": event.DeletedAt,
	}
	p.logEvent("directory.account.deleted", event.DN, event.DeletedAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
