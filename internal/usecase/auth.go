package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Josselin-menguy/ldap-user-manager/internal/core/domain"
	"github.com/Josselin-menguy/ldap-user-manager/internal/core/port"
	ldapinfra "github.com/Josselin-menguy/ldap-user-manager/internal/infra/ldap"
	"github.com/Josselin-menguy/ldap-user-manager/internal/infra/security"
)

var (
	// ErrCredentialsRequired indicates username or password was not supplied.
	ErrCredentialsRequired = errors.New("username and password are required")
	// ErrInvalidCredentials covers unknown principals and wrong passwords
	// alike; the distinction is never surfaced.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotAuthorized indicates valid credentials without the required group
	// membership.
	ErrNotAuthorized = errors.New("not authorized to access this application")
)

// AuthService verifies operator credentials against the directory and issues
// session tokens.
type AuthService struct {
	connector       port.Connector
	tokens          *security.TokenManager
	baseDN          string
	requiredGroupDN string
	logger          *zap.Logger
}

// NewAuthService constructs AuthService. requiredGroupDN may be empty, in
// which case no group membership is enforced.
func NewAuthService(connector port.Connector, tokens *security.TokenManager, baseDN, requiredGroupDN string, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		connector:       connector,
		tokens:          tokens,
		baseDN:          baseDN,
		requiredGroupDN: strings.ToLower(strings.TrimSpace(requiredGroupDN)),
		logger:          logger,
	}
}

// Login resolves the principal through the admin-bound connection, verifies
// the password with a bind as the user, checks the required group membership,
// and issues a session token. The password is passed to the bind untouched:
// surrounding whitespace can be part of a valid password.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", ErrCredentialsRequired
	}

	userDN, memberOf, err := s.resolvePrincipal(ctx, username)
	if err != nil {
		return "", err
	}

	if err := s.connector.VerifyCredentials(ctx, userDN, password); err != nil {
		return "", ErrInvalidCredentials
	}

	if s.requiredGroupDN != "" && !containsGroup(memberOf, s.requiredGroupDN) {
		return "", ErrNotAuthorized
	}

	token, err := s.tokens.Issue(username)
	if err != nil {
		return "", fmt.Errorf("issue session token: %w", err)
	}

	s.logger.Info("operator logged in", zap.String("username", username))
	return token, nil
}

// ParseToken validates a session token and returns its subject.
func (s *AuthService) ParseToken(raw string) (string, error) {
	return s.tokens.Parse(raw)
}

// TokenTTLSeconds exposes the session lifetime for cookie expiry.
func (s *AuthService) TokenTTLSeconds() int {
	return int(s.tokens.TTL().Seconds())
}

func (s *AuthService) resolvePrincipal(ctx context.Context, username string) (string, []string, error) {
	conn, err := s.connector.AdminBind(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}
	defer conn.Close()

	filter := fmt.Sprintf("(%s=%s)", domain.AttrPrincipalName, ldapinfra.EscapeFilter(username))
	entries, err := conn.Search(ctx, port.SearchRequest{
		BaseDN:     s.baseDN,
		Filter:     filter,
		Attributes: []string{domain.AttrDistinguishedName, domain.AttrMemberOf},
	})
	if err != nil {
		return "", nil, err
	}
	if len(entries) < 1 {
		return "", nil, ErrInvalidCredentials
	}

	entry := entries[0]
	dn := entry.DN
	if dn == "" {
		dn = entry.First(domain.AttrDistinguishedName)
	}

	return dn, entry.Attributes[domain.AttrMemberOf], nil
}

func containsGroup(memberOf []string, groupDN string) bool {
	for _, dn := range memberOf {
		if strings.ToLower(strings.TrimSpace(dn)) == groupDN {
			return true
		}
	}
	return false
}
