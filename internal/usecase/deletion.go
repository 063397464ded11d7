package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Josselin-menguy/ldap-user-manager/internal/core/domain"
	"github.com/Josselin-menguy/ldap-user-manager/internal/core/port"
)

var (
	// ErrDNRequired indicates the delete request is missing its target DN.
	ErrDNRequired = errors.New("dn is required")
	// ErrInvalidRetention indicates a retention value failed to parse as a
	// non-negative integer.
	ErrInvalidRetention = errors.New("retention_days and retention_minutes must be non-negative integers")
	// ErrDirectoryUnavailable indicates the admin bind could not be established.
	ErrDirectoryUnavailable = errors.New("directory unavailable")
)

// DeleteInput captures one delete request. Retention values arrive as raw
// strings so that non-numeric input can be rejected as a validation failure
// rather than a directory failure; empty strings mean zero.
type DeleteInput struct {
	DN               string
	FullName         string
	RetentionDays    string
	RetentionMinutes string
}

// DeleteResult reports the action taken for a delete request.
type DeleteResult struct {
	Immediate   bool
	ScheduledAt time.Time
	Message     string
}

// DeletionService decides, per request, between immediate deletion and
// deferred deletion with a scheduled timestamp stored on the entry itself.
type DeletionService struct {
	connector port.Connector
	notifier  port.Notifier
	events    port.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewDeletionService constructs DeletionService.
func NewDeletionService(connector port.Connector, notifier port.Notifier, events port.EventPublisher, logger *zap.Logger) *DeletionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeletionService{
		connector: connector,
		notifier:  notifier,
		events:    events,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock allows injection of a custom clock (primarily for testing).
func (s *DeletionService) WithClock(now func() time.Time) *DeletionService {
	if now != nil {
		s.now = now
	}
	return s
}

// Delete validates the request, then either removes the entry immediately or
// disables it and records the deletion schedule on the entry. Validation
// failures are returned before any directory connection is opened.
func (s *DeletionService) Delete(ctx context.Context, input DeleteInput) (*DeleteResult, error) {
	dn := strings.TrimSpace(input.DN)
	if dn == "" {
		return nil, ErrDNRequired
	}

	days, err := parseRetention(input.RetentionDays)
	if err != nil {
		return nil, err
	}
	minutes, err := parseRetention(input.RetentionMinutes)
	if err != nil {
		return nil, err
	}

	conn, err := s.connector.AdminBind(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}
	defer conn.Close()

	if days == 0 && minutes == 0 {
		return s.deleteImmediately(ctx, conn, dn, input.FullName)
	}

	scheduledAt := s.now().Add(time.Duration(days)*24*time.Hour + time.Duration(minutes)*time.Minute)
	return s.scheduleDeletion(ctx, conn, dn, input.FullName, scheduledAt)
}

func (s *DeletionService) deleteImmediately(ctx context.Context, conn port.Directory, dn, fullName string) (*DeleteResult, error) {
	if err := conn.Delete(ctx, dn); err != nil {
		return nil, err
	}

	s.logger.Info("account deleted immediately", zap.String("dn", dn))

	if s.notifier != nil {
		if err := s.notifier.AccountDeleted(ctx, fullName); err != nil {
			s.logger.Warn("deletion notification failed", zap.String("dn", dn), zap.Error(err))
		}
	}
	if s.events != nil {
		if err := s.events.PublishAccountDeleted(ctx, domain.AccountDeletedEvent{
			DN:        dn,
			Mode:      domain.DeletionImmediate,
			DeletedAt: s.now(),
		}); err != nil {
			s.logger.Warn("deletion event publish failed", zap.String("dn", dn), zap.Error(err))
		}
	}

	return &DeleteResult{
		Immediate: true,
		Message:   "The user has been deleted immediately.",
	}, nil
}

func (s *DeletionService) scheduleDeletion(ctx context.Context, conn port.Directory, dn, fullName string, scheduledAt time.Time) (*DeleteResult, error) {
	formatted := domain.FormatScheduledAt(scheduledAt)

	changes := []port.AttributeChange{
		{Op: port.ChangeReplace, Name: domain.AttrAccountControl, Values: []string{domain.ControlDisabled}},
		{Op: port.ChangeReplace, Name: domain.AttrScheduledDeletion, Values: []string{formatted}},
	}
	if err := conn.Modify(ctx, dn, changes); err != nil {
		return nil, err
	}

	s.logger.Info("account disabled with scheduled deletion",
		zap.String("dn", dn),
		zap.String("scheduled_at", formatted),
	)

	if s.notifier != nil {
		if err := s.notifier.DeletionScheduled(ctx, fullName, scheduledAt); err != nil {
			s.logger.Warn("schedule notification failed", zap.String("dn", dn), zap.Error(err))
		}
	}
	if s.events != nil {
		if err := s.events.PublishDeletionScheduled(ctx, domain.DeletionScheduledEvent{
			DN:          dn,
			ScheduledAt: scheduledAt,
		}); err != nil {
			s.logger.Warn("schedule event publish failed", zap.String("dn", dn), zap.Error(err))
		}
	}

	return &DeleteResult{
		ScheduledAt: scheduledAt,
		Message: fmt.Sprintf("The user will be permanently deleted on %s. The account has been disabled in the meantime.",
			formatted),
	}, nil
}

func parseRetention(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, ErrInvalidRetention
	}

	return value, nil
}
