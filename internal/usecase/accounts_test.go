package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/Josselin-menguy/ldap-user-manager/internal/core/domain"
	"github.com/Josselin-menguy/ldap-user-manager/internal/core/port"
)

func newAccountFixture(t *testing.T, connector port.Connector, notifier port.Notifier, events port.EventPublisher) *AccountService {
	t.Helper()

	svc := NewAccountService(connector, notifier, events, nil, "DC=x,DC=y",
		[]string{"CN=All Staff,OU=Groups,DC=x,DC=y"}, zaptest.NewLogger(t))
	svc.genPassword = func(int) (string, error) { return "Str0ng!Passw0rd", nil }
	svc.randomDigit = func() (string, error) { return "7", nil }
	return svc
}

// loginTaken builds a searchFn that reports the given sAMAccountName values as
// already present.
func loginTaken(taken ...string) func(req port.SearchRequest) ([]port.Entry, error) {
	return func(req port.SearchRequest) ([]port.Entry, error) {
		for _, login := range taken {
			if strings.Contains(req.Filter, "sAMAccountName="+login+")") {
				return []port.Entry{{DN: "CN=Existing,OU=Users,DC=x,DC=y"}}, nil
			}
		}
		return nil, nil
	}
}

func TestCreateProvisionsAccount(t *testing.T) {
	dir := &fakeDirectory{searchFn: loginTaken()}
	connector := &fakeConnector{dir: dir}
	notifier := &fakeNotifier{}
	events := &fakePublisher{}

	svc := newAccountFixture(t, connector, notifier, events)

	result, err := svc.Create(context.Background(), CreateInput{
		FullName:  "Jane Doe",
		FirstName: "Jane",
		LastName:  "Doe",
		OrgUnit:   "Users",
		Domain:    "@example.com",
		ManagerDN: "CN=Boss,OU=Users,DC=x,DC=y",
		MemberOf:  []string{"CN=Editors,OU=Groups,DC=x,DC=y"},
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if result.Login != "jdoe" {
		t.Fatalf("expected default login jdoe, got %q", result.Login)
	}
	if result.DN != "CN=Jane Doe,OU=Users,DC=x,DC=y" {
		t.Fatalf("unexpected DN %q", result.DN)
	}
	if result.Password != "Str0ng!Passw0rd" {
		t.Fatalf("expected the generated password to be returned")
	}

	if len(dir.added) != 1 {
		t.Fatalf("expected one add, got %d", len(dir.added))
	}
	attrs := dir.added[0].attributes
	if got := attrs[domain.AttrAccountControl]; len(got) != 1 || got[0] != domain.ControlEnabled {
		t.Fatalf("new accounts must be enabled, got %v", got)
	}
	if got := attrs[domain.AttrPrincipalName]; len(got) != 1 || got[0] != "jdoe@example.com" {
		t.Fatalf("unexpected principal name %v", got)
	}
	if got := attrs[domain.AttrUnicodePwd]; len(got) != 1 || got[0] != domain.EncodeUnicodePassword("Str0ng!Passw0rd") {
		t.Fatalf("password must be stored UTF-16LE quoted")
	}
	if got := attrs["manager"]; len(got) != 1 || got[0] != "CN=Boss,OU=Users,DC=x,DC=y" {
		t.Fatalf("unexpected manager %v", got)
	}

	// Requested group plus the default group, deduplicated.
	if len(dir.modified) != 2 {
		t.Fatalf("expected 2 group membership adds, got %d", len(dir.modified))
	}
	for _, call := range dir.modified {
		if call.changes[0].Op != port.ChangeAdd || call.changes[0].Name != domain.AttrMember {
			t.Fatalf("group change must add a member, got %+v", call.changes[0])
		}
		if call.changes[0].Values[0] != result.DN {
			t.Fatalf("group member must be the new DN, got %v", call.changes[0].Values)
		}
	}

	if len(notifier.created) != 1 || notifier.created[0].Password != result.Password {
		t.Fatalf("creation notice must carry the generated password")
	}
	if len(events.created) != 1 || events.created[0].Login != "jdoe" {
		t.Fatalf("expected one creation event for jdoe, got %v", events.created)
	}
}

func TestCreateResolvesLoginCollisions(t *testing.T) {
	dir := &fakeDirectory{searchFn: loginTaken("jdoe")}
	connector := &fakeConnector{dir: dir}

	svc := newAccountFixture(t, connector, nil, nil)

	result, err := svc.Create(context.Background(), CreateInput{
		FullName:  "Jane Doe",
		FirstName: "Jane",
		LastName:  "Doe",
		OrgUnit:   "Users",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if result.Login != "jadoe" {
		t.Fatalf("expected collision to grow the first-name prefix to jadoe, got %q", result.Login)
	}
}

func TestCreateFallsBackToDigitSuffix(t *testing.T) {
	dir := &fakeDirectory{searchFn: loginTaken("jdoe", "jadoe", "jandoe", "janedoe")}
	connector := &fakeConnector{dir: dir}

	svc := newAccountFixture(t, connector, nil, nil)

	result, err := svc.Create(context.Background(), CreateInput{
		FullName:  "Jane Doe",
		FirstName: "Jane",
		LastName:  "Doe",
		OrgUnit:   "Users",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if result.Login != "janedoe7" {
		t.Fatalf("expected digit-suffixed login janedoe7, got %q", result.Login)
	}
}

func TestCreateRequiresIdentityFields(t *testing.T) {
	connector := &fakeConnector{}
	svc := newAccountFixture(t, connector, nil, nil)

	_, err := svc.Create(context.Background(), CreateInput{FullName: "Jane Doe"})
	if !errors.Is(err, ErrMissingRequiredFields) {
		t.Fatalf("expected ErrMissingRequiredFields, got %v", err)
	}
	if connector.binds != 0 {
		t.Fatalf("validation failure must not open a connection")
	}
}

func TestCreateToleratesGroupAddFailures(t *testing.T) {
	dir := &fakeDirectory{searchFn: loginTaken(), modifyErr: errors.New("no such object")}
	connector := &fakeConnector{dir: dir}

	svc := newAccountFixture(t, connector, nil, nil)

	if _, err := svc.Create(context.Background(), CreateInput{
		FullName:  "Jane Doe",
		FirstName: "Jane",
		LastName:  "Doe",
		OrgUnit:   "Users",
		MemberOf:  []string{"CN=Missing,OU=Groups,DC=x,DC=y"},
	}); err != nil {
		t.Fatalf("a failed group add must not fail the creation: %v", err)
	}
}

func TestApplyChangesRequiresRoutingFields(t *testing.T) {
	connector := &fakeConnector{}
	svc := newAccountFixture(t, connector, nil, nil)

	err := svc.ApplyChanges(context.Background(), ModifyInput{DN: "CN=Jane Doe,OU=Users,DC=x,DC=y"})
	if !errors.Is(err, ErrMissingModifyFields) {
		t.Fatalf("expected ErrMissingModifyFields, got %v", err)
	}
	if connector.binds != 0 {
		t.Fatalf("validation failure must not open a connection")
	}
}

func TestApplyChangesReplacesProvidedAttributes(t *testing.T) {
	dir := &fakeDirectory{}
	connector := &fakeConnector{dir: dir}
	notifier := &fakeNotifier{}
	events := &fakePublisher{}

	svc := newAccountFixture(t, connector, notifier, events)

	err := svc.ApplyChanges(context.Background(), ModifyInput{
		DN:          "CN=Jane Doe,OU=Users,DC=x,DC=y",
		FullName:    "Jane Doe",
		OrgUnit:     "Users",
		MainOrgUnit: "Corp",
		Description: "Senior Engineer",
		PhoneNumber: "0123456789",
	})
	if err != nil {
		t.Fatalf("ApplyChanges returned error: %v", err)
	}

	if len(dir.modified) != 1 {
		t.Fatalf("expected one modify, got %d", len(dir.modified))
	}
	changes := dir.modified[0].changes
	// description + telephoneNumber + homePhone
	if len(changes) != 3 {
		t.Fatalf("expected 3 attribute changes, got %d", len(changes))
	}
	for _, change := range changes {
		if change.Op != port.ChangeReplace {
			t.Fatalf("modification must replace attributes, got %+v", change)
		}
	}

	if len(notifier.modified) != 1 || notifier.modified[0].DN != "CN=Jane Doe,OU=Users,DC=x,DC=y" {
		t.Fatalf("expected one modification notice, got %v", notifier.modified)
	}
	if len(events.modified) != 1 {
		t.Fatalf("expected one modification event, got %d", len(events.modified))
	}
}

func TestApplyChangesWithoutAttributesSkipsDirectory(t *testing.T) {
	connector := &fakeConnector{}
	notifier := &fakeNotifier{}

	svc := newAccountFixture(t, connector, notifier, nil)

	err := svc.ApplyChanges(context.Background(), ModifyInput{
		DN:          "CN=Jane Doe,OU=Users,DC=x,DC=y",
		OrgUnit:     "Users",
		MainOrgUnit: "Corp",
	})
	if err != nil {
		t.Fatalf("ApplyChanges returned error: %v", err)
	}

	if connector.binds != 0 {
		t.Fatalf("no attribute changes must mean no directory connection")
	}
	if len(notifier.modified) != 1 {
		t.Fatalf("the modification summary is still sent, got %d notices", len(notifier.modified))
	}
}

func TestSearchAccountsEmptyQuery(t *testing.T) {
	connector := &fakeConnector{}
	svc := newAccountFixture(t, connector, nil, nil)

	refs, err := svc.SearchAccounts(context.Background(), "   ")
	if err != nil {
		t.Fatalf("SearchAccounts returned error: %v", err)
	}
	if refs == nil || len(refs) != 0 {
		t.Fatalf("empty query must yield an empty non-nil slice, got %v", refs)
	}
	if connector.binds != 0 {
		t.Fatalf("empty query must not open a connection")
	}
}

func TestSearchEscapesFilterMetacharacters(t *testing.T) {
	dir := &fakeDirectory{}
	connector := &fakeConnector{dir: dir}
	svc := newAccountFixture(t, connector, nil, nil)

	if _, err := svc.SearchAccounts(context.Background(), "do*e"); err != nil {
		t.Fatalf("SearchAccounts returned error: %v", err)
	}

	if len(dir.searches) != 1 {
		t.Fatalf("expected one search, got %d", len(dir.searches))
	}
	filter := dir.searches[0].Filter
	if strings.Contains(filter, "do*e") {
		t.Fatalf("query metacharacters must be escaped, got filter %q", filter)
	}
	if !strings.Contains(filter, `do\2ae`) {
		t.Fatalf("expected escaped asterisk in filter, got %q", filter)
	}
}

func TestSearchManagersIncludeCommonName(t *testing.T) {
	dir := &fakeDirectory{entries: []port.Entry{
		{
			DN: "CN=Boss,OU=Users,DC=x,DC=y",
			Attributes: map[string][]string{
				domain.AttrCommonName: {"Boss"},
			},
		},
	}}
	connector := &fakeConnector{dir: dir}
	svc := newAccountFixture(t, connector, nil, nil)

	refs, err := svc.SearchManagers(context.Background(), "boss")
	if err != nil {
		t.Fatalf("SearchManagers returned error: %v", err)
	}
	if len(refs) != 1 || refs[0].CN != "Boss" || refs[0].DN != "CN=Boss,OU=Users,DC=x,DC=y" {
		t.Fatalf("unexpected manager refs %v", refs)
	}
}
