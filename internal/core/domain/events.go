package domain

import "time"

// AccountCreatedEvent is published after an account entry has been added.
type AccountCreatedEvent struct {
	DN        string
	Login     string
	Groups    []string
	CreatedAt time.Time
}

// AccountModifiedEvent is published after attribute changes have been applied.
type AccountModifiedEvent struct {
	DN         string
	ModifiedAt time.Time
}

// DeletionScheduledEvent is published when an account enters deferred deletion.
type DeletionScheduledEvent struct {
	DN          string
	ScheduledAt time.Time
}

// AccountDeletedEvent is published when an entry leaves the directory, either
// through the immediate path or through the expiry sweep.
type AccountDeletedEvent struct {
	DN        string
	Mode      DeletionMode
	DeletedAt time.Time
}

// DeletionMode distinguishes the two terminal deletion paths.
type DeletionMode string

const (
	DeletionImmediate DeletionMode = "immediate"
	DeletionExpired   DeletionMode = "expired"
)
