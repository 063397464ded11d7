package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Josselin-menguy/ldap-user-manager/internal/core/domain"
	"github.com/Josselin-menguy/ldap-user-manager/internal/core/port"
)

// pendingDeletionFilter matches disabled accounts carrying any deletion
// schedule value, past or future.
const pendingDeletionFilter = "(&(userAccountControl=514)(extensionAttribute1=*))"

// SweepReport summarises the outcome of one sweep run.
type SweepReport struct {
	Scanned     int
	Deleted     []string
	Pending     []string
	Malformed   []string
	OutOfWindow []string
	Failed      []string
}

// SweepService finalises due deferred deletions. It is idempotent and
// re-runnable: deleted entries no longer match the search filter, and a
// corrupt record never blocks the rest of the scan.
type SweepService struct {
	connector port.Connector
	notifier  port.Notifier
	events    port.EventPublisher
	logger    *zap.Logger
	baseDN    string
	window    time.Duration
	now       func() time.Time
}

// NewSweepService constructs SweepService. The window bounds the accepted
// schedule timestamps on both sides of now; out-of-window values are treated
// as stale data and never acted on.
func NewSweepService(connector port.Connector, notifier port.Notifier, events port.EventPublisher, baseDN string, window time.Duration, logger *zap.Logger) *SweepService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if window <= 0 {
		window = 180 * 24 * time.Hour
	}
	return &SweepService{
		connector: connector,
		notifier:  notifier,
		events:    events,
		logger:    logger,
		baseDN:    baseDN,
		window:    window,
		now:       time.Now,
	}
}

// WithClock allows injection of a custom clock (primarily for testing).
func (s *SweepService) WithClock(now func() time.Time) *SweepService {
	if now != nil {
		s.now = now
	}
	return s
}

// Run performs one full scan-and-act pass over all disabled accounts with a
// pending deletion schedule. One connection is held for the whole pass.
func (s *SweepService) Run(ctx context.Context) (*SweepReport, error) {
	now := s.now()
	lo := now.Add(-s.window)
	hi := now.Add(s.window)

	s.logger.Info("sweep started",
		zap.String("run_at", domain.FormatScheduledAt(now)),
		zap.String("base_dn", s.baseDN),
	)

	conn, err := s.connector.AdminBind(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}
	defer conn.Close()

	entries, err := conn.Search(ctx, port.SearchRequest{
		BaseDN:     s.baseDN,
		Filter:     pendingDeletionFilter,
		Attributes: []string{domain.AttrDistinguishedName, domain.AttrScheduledDeletion},
	})
	if err != nil {
		return nil, err
	}

	report := &SweepReport{Scanned: len(entries)}
	for _, entry := range entries {
		s.processEntry(ctx, conn, entry, now, lo, hi, report)
	}

	s.logger.Info("sweep finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("deleted", len(report.Deleted)),
		zap.Int("pending", len(report.Pending)),
		zap.Int("malformed", len(report.Malformed)),
		zap.Int("out_of_window", len(report.OutOfWindow)),
		zap.Int("failed", len(report.Failed)),
	)

	return report, nil
}

func (s *SweepService) processEntry(ctx context.Context, conn port.Directory, entry port.Entry, now, lo, hi time.Time, report *SweepReport) {
	dn := entry.DN
	if dn == "" {
		dn = entry.First(domain.AttrDistinguishedName)
	}
	raw := entry.First(domain.AttrScheduledDeletion)

	scheduledAt, err := domain.ParseScheduledAt(raw)
	if err != nil {
		s.logger.Warn("invalid deletion date format",
			zap.String("dn", dn),
			zap.String("value", raw),
		)
		report.Malformed = append(report.Malformed, dn)
		return
	}

	// Stale or corrupted schedule data outside the window is never acted on.
	if scheduledAt.Before(lo) || scheduledAt.After(hi) {
		s.logger.Warn("deletion date outside acceptance window",
			zap.String("dn", dn),
			zap.String("scheduled_at", raw),
		)
		report.OutOfWindow = append(report.OutOfWindow, dn)
		return
	}

	if scheduledAt.After(now) {
		s.logger.Info("deletion still pending",
			zap.String("dn", dn),
			zap.String("scheduled_at", raw),
		)
		report.Pending = append(report.Pending, dn)
		return
	}

	if err := conn.Delete(ctx, dn); err != nil {
		s.logger.Error("account deletion failed",
			zap.String("dn", dn),
			zap.Error(err),
		)
		report.Failed = append(report.Failed, dn)
		return
	}

	s.logger.Info("account deleted",
		zap.String("dn", dn),
		zap.String("scheduled_at", raw),
	)
	report.Deleted = append(report.Deleted, dn)

	if s.notifier != nil {
		if err := s.notifier.DeletionCompleted(ctx, domain.CommonName(dn), now); err != nil {
			s.logger.Warn("deletion notification failed", zap.String("dn", dn), zap.Error(err))
		}
	}
	if s.events != nil {
		if err := s.events.PublishAccountDeleted(ctx, domain.AccountDeletedEvent{
			DN:        dn,
			Mode:      domain.DeletionExpired,
			DeletedAt: now,
		}); err != nil {
			s.logger.Warn("deletion event publish failed", zap.String("dn", dn), zap.Error(err))
		}
	}
}
