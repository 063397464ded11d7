package mail

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/Josselin-menguy/ldap-user-manager/internal/core/port"
	"github.com/Josselin-menguy/ldap-user-manager/internal/infra/config"
	"github.com/Josselin-menguy/ldap-user-manager/internal/infra/pdf"
)

// Mailer delivers lifecycle notifications over SMTP. All sends are best
// effort from the caller's perspective: a failed send is logged by the caller
// and never affects the triggering directory operation.
type Mailer struct {
	cfg    config.MailSettings
	logger *zap.Logger
	send   func(messages ...*gomail.Message) error
}

// NewMailer constructs a Mailer using the configured SMTP relay.
func NewMailer(cfg config.MailSettings, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &Mailer{cfg: cfg, logger: logger, send: dialer.DialAndSend}
}

// AccountCreated sends the creation summary with the attached credential
// sheet, plus the support copy carrying the same attachment.
func (m *Mailer) AccountCreated(ctx context.Context, notice port.CreationNotice) error {
	body, err := buildCreationBody(notice)
	if err != nil {
		return err
	}

	sheet, err := pdf.CredentialSheet(m.cfg.LogoPath, notice.FirstName, notice.LastName, notice.Login, notice.Password)
	if err != nil {
		return err
	}

	msg := m.message(m.cfg.Recipient, "Account creation completed", body)
	attachPDF(msg, "account_creation.pdf", sheet)
	if err := m.send(msg); err != nil {
		return fmt.Errorf("send creation mail: %w", err)
	}
	m.logger.Info("creation mail sent", zap.String("login", notice.Login))

	if m.cfg.SupportRecipient == "" {
		return nil
	}

	supportBody, err := buildSupportBody(notice.FullName)
	if err != nil {
		return err
	}
	support := m.message(m.cfg.SupportRecipient, fmt.Sprintf("User created: %s", notice.FullName), supportBody)
	attachPDF(support, "account_creation.pdf", sheet)
	if err := m.send(support); err != nil {
		return fmt.Errorf("send support mail: %w", err)
	}
	m.logger.Info("support mail sent", zap.String("login", notice.Login))

	return nil
}

// AccountModified sends the modification summary.
func (m *Mailer) AccountModified(ctx context.Context, notice port.ModificationNotice) error {
	body, err := buildModificationBody(notice)
	if err != nil {
		return err
	}

	if err := m.send(m.message(m.cfg.Recipient, "Collaborator modification", body)); err != nil {
		return fmt.Errorf("send modification mail: %w", err)
	}
	m.logger.Info("modification mail sent", zap.String("dn", notice.DN))
	return nil
}

// AccountDeleted sends the immediate deletion notice.
func (m *Mailer) AccountDeleted(ctx context.Context, fullName string) error {
	body, err := buildDeletionBody(fullName)
	if err != nil {
		return err
	}

	if err := m.send(m.message(m.cfg.Recipient, "Immediate collaborator deletion", body)); err != nil {
		return fmt.Errorf("send deletion mail: %w", err)
	}
	m.logger.Info("deletion mail sent")
	return nil
}

// DeletionScheduled sends the deferred deletion notice with the scheduled
// date.
func (m *Mailer) DeletionScheduled(ctx context.Context, fullName string, at time.Time) error {
	body, err := buildScheduledBody(fullName, at)
	if err != nil {
		return err
	}

	if err := m.send(m.message(m.cfg.Recipient, "Scheduled collaborator deletion", body)); err != nil {
		return fmt.Errorf("send scheduled deletion mail: %w", err)
	}
	m.logger.Info("scheduled deletion mail sent")
	return nil
}

// DeletionCompleted sends the sweep's final deletion confirmation.
func (m *Mailer) DeletionCompleted(ctx context.Context, commonName string, at time.Time) error {
	body, err := buildCompletedBody(commonName, at)
	if err != nil {
		return err
	}

	if err := m.send(m.message(m.cfg.Recipient, "Deferred deletion completed", body)); err != nil {
		return fmt.Errorf("send completion mail: %w", err)
	}
	m.logger.Info("completion mail sent", zap.String("cn", commonName))
	return nil
}

func (m *Mailer) message(to, subject, htmlBody string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.Sender)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)
	return msg
}

func attachPDF(msg *gomail.Message, name string, data []byte) {
	msg.Attach(name,
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}),
		gomail.SetHeader(map[string][]string{"Content-Type": {"application/pdf"}}),
	)
}

var _ port.Notifier = (*Mailer)(nil)
