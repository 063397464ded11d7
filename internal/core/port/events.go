package port

import (
	"context"

	"github.com/Josselin-menguy/ldap-user-manager/internal/core/domain"
)

// EventPublisher publishes account lifecycle events to the message bus.
// Publishing is fire-and-forget relative to the primary directory operation.
type EventPublisher interface {
	PublishAccountCreated(ctx context.Context, event domain.AccountCreatedEvent) error
	PublishAccountModified(ctx context.Context, event domain.AccountModifiedEvent) error
	PublishDeletionScheduled(ctx context.Context, event domain.DeletionScheduledEvent) error
	PublishAccountDeleted(ctx context.Context, event domain.AccountDeletedEvent) error
}
