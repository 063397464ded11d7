package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/Josselin-menguy/ldap-user-manager/internal/core/domain"
	"github.com/Josselin-menguy/ldap-user-manager/internal/core/port"
	"github.com/Josselin-menguy/ldap-user-manager/internal/infra/security"
)

const requiredGroup = "CN=Directory Admins,OU=Groups,DC=x,DC=y"

func newAuthFixture(t *testing.T, connector port.Connector) *AuthService {
	t.Helper()

	tokens, err := security.NewTokenManager("test-secret", 2*time.Hour)
	if err != nil {
		t.Fatalf("failed to build token manager: %v", err)
	}

	return NewAuthService(connector, tokens, "DC=x,DC=y", requiredGroup, zaptest.NewLogger(t))
}

func principalEntry(dn string, memberOf ...string) port.Entry {
	return port.Entry{
		DN: dn,
		Attributes: map[string][]string{
			domain.AttrMemberOf: memberOf,
		},
	}
}

func TestLoginSuccess(t *testing.T) {
	dir := &fakeDirectory{entries: []port.Entry{
		principalEntry("CN=Jane Doe,OU=Users,DC=x,DC=y", requiredGroup),
	}}
	connector := &fakeConnector{dir: dir}

	svc := newAuthFixture(t, connector)

	token, err := svc.Login(context.Background(), "jdoe@example.com", "secret")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	subject, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("issued token failed to parse: %v", err)
	}
	if subject != "jdoe@example.com" {
		t.Fatalf("expected subject jdoe@example.com, got %q", subject)
	}

	if len(connector.verified) != 1 || connector.verified[0].dn != "CN=Jane Doe,OU=Users,DC=x,DC=y" {
		t.Fatalf("expected credential check against the resolved DN, got %v", connector.verified)
	}
	if len(dir.searches) != 1 || !strings.Contains(dir.searches[0].Filter, "userPrincipalName=") {
		t.Fatalf("expected a principal search, got %v", dir.searches)
	}
}

func TestLoginPreservesPasswordWhitespace(t *testing.T) {
	dir := &fakeDirectory{entries: []port.Entry{
		principalEntry("CN=Jane Doe,OU=Users,DC=x,DC=y", requiredGroup),
	}}
	connector := &fakeConnector{dir: dir}
	svc := newAuthFixture(t, connector)

	if _, err := svc.Login(context.Background(), "jdoe@example.com", "  padded secret  "); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	if len(connector.verified) != 1 {
		t.Fatalf("expected one credential check, got %d", len(connector.verified))
	}
	if got := connector.verified[0].password; got != "  padded secret  " {
		t.Fatalf("password must reach the bind untouched, got %q", got)
	}
}

func TestLoginRequiresCredentials(t *testing.T) {
	connector := &fakeConnector{}
	svc := newAuthFixture(t, connector)

	_, err := svc.Login(context.Background(), "  ", "secret")
	if !errors.Is(err, ErrCredentialsRequired) {
		t.Fatalf("expected ErrCredentialsRequired, got %v", err)
	}
	if connector.binds != 0 {
		t.Fatalf("missing credentials must not open a connection")
	}
}

func TestLoginUnknownPrincipal(t *testing.T) {
	dir := &fakeDirectory{}
	connector := &fakeConnector{dir: dir}
	svc := newAuthFixture(t, connector)

	_, err := svc.Login(context.Background(), "nobody@example.com", "secret")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(connector.verified) != 0 {
		t.Fatalf("unknown principal must not attempt a user bind")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	dir := &fakeDirectory{entries: []port.Entry{
		principalEntry("CN=Jane Doe,OU=Users,DC=x,DC=y", requiredGroup),
	}}
	connector := &fakeConnector{dir: dir, verifyErr: port.ErrBindFailed}
	svc := newAuthFixture(t, connector)

	_, err := svc.Login(context.Background(), "jdoe@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password must map to ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginMissingRequiredGroup(t *testing.T) {
	dir := &fakeDirectory{entries: []port.Entry{
		principalEntry("CN=Jane Doe,OU=Users,DC=x,DC=y", "CN=Other Group,OU=Groups,DC=x,DC=y"),
	}}
	connector := &fakeConnector{dir: dir}
	svc := newAuthFixture(t, connector)

	_, err := svc.Login(context.Background(), "jdoe@example.com", "secret")
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestLoginGroupMatchIsCaseInsensitive(t *testing.T) {
	dir := &fakeDirectory{entries: []port.Entry{
		principalEntry("CN=Jane Doe,OU=Users,DC=x,DC=y", strings.ToUpper(requiredGroup)),
	}}
	connector := &fakeConnector{dir: dir}
	svc := newAuthFixture(t, connector)

	if _, err := svc.Login(context.Background(), "jdoe@example.com", "secret"); err != nil {
		t.Fatalf("case difference in group DN must not deny access: %v", err)
	}
}

func TestLoginWithoutRequiredGroupConfigured(t *testing.T) {
	dir := &fakeDirectory{entries: []port.Entry{
		principalEntry("CN=Jane Doe,OU=Users,DC=x,DC=y"),
	}}
	connector := &fakeConnector{dir: dir}

	tokens, err := security.NewTokenManager("test-secret", 2*time.Hour)
	if err != nil {
		t.Fatalf("failed to build token manager: %v", err)
	}
	svc := NewAuthService(connector, tokens, "DC=x,DC=y", "", zaptest.NewLogger(t))

	if _, err := svc.Login(context.Background(), "jdoe@example.com", "secret"); err != nil {
		t.Fatalf("empty required group must disable the membership check: %v", err)
	}
}
