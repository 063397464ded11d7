package port

import (
	"context"
	"time"
)

// CreationNotice carries the data rendered into the account creation mail and
// its attached credential sheet.
type CreationNotice struct {
	FullName    string
	FirstName   string
	LastName    string
	OrgUnit     string
	Description string
	Office      string
	PhoneNumber string
	Login       string
	Domain      string
	ManagerDN   string
	Groups      []string
	Password    string
}

// ModificationNotice summarises applied attribute changes.
type ModificationNotice struct {
	FullName    string
	DN          string
	Description string
	Office      string
	PhoneNumber string
	ManagerDN   string
	Groups      []string
}

// Notifier delivers stakeholder notifications for account lifecycle changes.
// Every call is best-effort: callers log failures and never let them affect
// the outcome of the directory operation that triggered them.
type Notifier interface {
	AccountCreated(ctx context.Context, notice CreationNotice) error
	AccountModified(ctx context.Context, notice ModificationNotice) error
	AccountDeleted(ctx context.Context, fullName string) error
	DeletionScheduled(ctx context.Context, fullName string, at time.Time) error
	DeletionCompleted(ctx context.Context, commonName string, at time.Time) error
}
