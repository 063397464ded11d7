package ldap

import (
	"context"
	"crypto/tls"
	"fmt"

	goldap "github.com/go-ldap/ldap/v3"
	"go.uber.org/zap"

	"github.com/Josselin-menguy/ldap-user-manager/internal/core/port"
	"github.com/Josselin-menguy/ldap-user-manager/internal/infra/config"
)

// Connector opens bound LDAPS connections against the configured directory.
// Every bind produces a fresh connection scoped to one request or job run;
// connections are never pooled.
type Connector struct {
	cfg    config.DirectorySettings
	logger *zap.Logger
}

// NewConnector constructs a Connector for the configured directory service.
func NewConnector(cfg config.DirectorySettings, logger *zap.Logger) *Connector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connector{cfg: cfg, logger: logger}
}

func (c *Connector) dial(ctx context.Context) (*goldap.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("ldaps://%s:%d", c.cfg.Host, c.cfg.Port)
	conn, err := goldap.DialURL(url, goldap.DialWithTLSConfig(&tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: c.cfg.InsecureSkipVerify,
	}))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	if c.cfg.RequestTimeout > 0 {
		conn.SetTimeout(c.cfg.RequestTimeout)
	}

	return conn, nil
}

// AdminBind opens a connection bound with the service account principal.
func (c *Connector) AdminBind(ctx context.Context) (port.Directory, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", port.ErrBindFailed, err)
	}

	if err := conn.Bind(c.cfg.AdminUPN(), c.cfg.BindPassword); err != nil {
		conn.Close()
		c.logger.Error("admin bind failed", zap.String("host", c.cfg.Host), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", port.ErrBindFailed, err)
	}

	return &session{conn: conn, logger: c.logger}, nil
}

// VerifyCredentials performs a throwaway bind with the supplied principal to
// check its password. The returned error never distinguishes a wrong password
// from an unknown principal.
func (c *Connector) VerifyCredentials(ctx context.Context, bindDN, password string) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", port.ErrBindFailed, err)
	}
	defer conn.Close()

	if err := conn.Bind(bindDN, password); err != nil {
		return port.ErrBindFailed
	}

	return nil
}

var _ port.Connector = (*Connector)(nil)

// session adapts one bound *ldap.Conn to the port.Directory contract.
type session struct {
	conn   *goldap.Conn
	logger *zap.Logger
}

func (s *session) Search(ctx context.Context, req port.SearchRequest) ([]port.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := s.conn.Search(goldap.NewSearchRequest(
		req.BaseDN,
		goldap.ScopeWholeSubtree,
		goldap.NeverDerefAliases,
		0, 0, false,
		req.Filter,
		req.Attributes,
		nil,
	))
	if err != nil {
		return nil, &port.OperationError{Op: "search", DN: req.BaseDN, Err: err}
	}

	entries := make([]port.Entry, 0, len(res.Entries))
	for _, e := range res.Entries {
		attrs := make(map[string][]string, len(e.Attributes))
		for _, a := range e.Attributes {
			attrs[a.Name] = a.Values
		}
		entries = append(entries, port.Entry{DN: e.DN, Attributes: attrs})
	}

	return entries, nil
}

func (s *session) AddEntry(ctx context.Context, dn string, attributes map[string][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	req := goldap.NewAddRequest(dn, nil)
	for name, values := range attributes {
		req.Attribute(name, values)
	}

	if err := s.conn.Add(req); err != nil {
		return &port.OperationError{Op: "add", DN: dn, Err: err}
	}

	return nil
}

func (s *session) Modify(ctx context.Context, dn string, changes []port.AttributeChange) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	req := goldap.NewModifyRequest(dn, nil)
	for _, change := range changes {
		switch change.Op {
		case port.ChangeAdd:
			req.Add(change.Name, change.Values)
		case port.ChangeDelete:
			req.Delete(change.Name, change.Values)
		default:
			req.Replace(change.Name, change.Values)
		}
	}

	if err := s.conn.Modify(req); err != nil {
		return &port.OperationError{Op: "modify", DN: dn, Err: err}
	}

	return nil
}

func (s *session) Delete(ctx context.Context, dn string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.conn.Del(goldap.NewDelRequest(dn, nil)); err != nil {
		return &port.OperationError{Op: "delete", DN: dn, Err: err}
	}

	return nil
}

func (s *session) Close() error {
	s.conn.Close()
	return nil
}

// EscapeFilter escapes a value for safe interpolation into a search filter.
func EscapeFilter(value string) string {
	return goldap.EscapeFilter(value)
}
