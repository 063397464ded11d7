package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Josselin-menguy/ldap-user-manager/internal/core/domain"
	"github.com/Josselin-menguy/ldap-user-manager/internal/core/port"
	ldapinfra "github.com/Josselin-menguy/ldap-user-manager/internal/infra/ldap"
	"github.com/Josselin-menguy/ldap-user-manager/internal/infra/security"
)

var (
	// ErrMissingRequiredFields indicates a creation request without the
	// mandatory identity fields.
	ErrMissingRequiredFields = errors.New("fullName, firstName, lastName and new_ou are required")
	// ErrMissingModifyFields indicates an apply-changes request without its
	// mandatory routing fields.
	ErrMissingModifyFields = errors.New("dn, new_ou and main_ou are required")
	// ErrPasswordGeneration indicates no policy-compliant credential could be
	// produced.
	ErrPasswordGeneration = errors.New("could not generate a policy-compliant password")
)

const maxPasswordAttempts = 10

// CreateInput captures an account creation request.
type CreateInput struct {
	FullName    string
	FirstName   string
	LastName    string
	OrgUnit     string
	Description string
	Office      string
	PhoneNumber string
	LoginName   string
	Domain      string
	ManagerDN   string
	MemberOf    []string
}

// CreateResult reports the provisioned identity.
type CreateResult struct {
	DN       string
	Login    string
	Password string
}

// ModifyInput captures an apply-changes request.
type ModifyInput struct {
	DN          string
	FullName    string
	OrgUnit     string
	MainOrgUnit string
	Description string
	Office      string
	PhoneNumber string
	ManagerDN   string
	MemberOf    []string
}

// DirectoryRef is a directory entry reference returned by searches.
type DirectoryRef struct {
	DN string `json:"dn"`
	CN string `json:"cn,omitempty"`
}

// AccountService handles account provisioning, modification, and lookups.
type AccountService struct {
	connector     port.Connector
	notifier      port.Notifier
	events        port.EventPublisher
	validator     *security.PasswordValidator
	baseDN        string
	defaultGroups []string
	logger        *zap.Logger
	now           func() time.Time
	genPassword   func(length int) (string, error)
	randomDigit   func() (string, error)
}

// NewAccountService constructs AccountService.
func NewAccountService(connector port.Connector, notifier port.Notifier, events port.EventPublisher, validator *security.PasswordValidator, baseDN string, defaultGroups []string, logger *zap.Logger) *AccountService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{
		connector:     connector,
		notifier:      notifier,
		events:        events,
		validator:     validator,
		baseDN:        baseDN,
		defaultGroups: defaultGroups,
		logger:        logger,
		now:           time.Now,
		genPassword:   security.GeneratePassword,
		randomDigit:   security.RandomDigit,
	}
}

// Create provisions a new enabled account with a unique login, a generated
// initial password, and memberships in the requested plus default groups.
func (s *AccountService) Create(ctx context.Context, input CreateInput) (*CreateResult, error) {
	fullName := strings.TrimSpace(input.FullName)
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	orgUnit := strings.TrimSpace(input.OrgUnit)
	if fullName == "" || firstName == "" || lastName == "" || orgUnit == "" {
		return nil, ErrMissingRequiredFields
	}

	login := strings.TrimSpace(input.LoginName)
	if login == "" {
		login = defaultLogin(firstName, lastName)
	}

	conn, err := s.connector.AdminBind(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}
	defer conn.Close()

	login, err = s.uniqueLogin(ctx, conn, login, firstName, lastName)
	if err != nil {
		return nil, err
	}

	password, err := s.generatePassword()
	if err != nil {
		return nil, err
	}

	dn := fmt.Sprintf("CN=%s,OU=%s,%s", fullName, orgUnit, s.baseDN)
	attributes := map[string][]string{
		"objectClass":             {"top", "person", "organizationalPerson", "user"},
		domain.AttrCommonName:     {fullName},
		"sn":                      {lastName},
		"givenName":               {firstName},
		"displayName":             {fullName},
		domain.AttrPrincipalName:  {login + input.Domain},
		domain.AttrSAMAccountName: {login},
		"mail":                    {login + input.Domain},
		domain.AttrUnicodePwd:     {domain.EncodeUnicodePassword(password)},
		domain.AttrAccountControl: {domain.ControlEnabled},
	}
	if v := strings.TrimSpace(input.Description); v != "" {
		attributes["description"] = []string{v}
	}
	if v := strings.TrimSpace(input.Office); v != "" {
		attributes["physicalDeliveryOfficeName"] = []string{v}
	}
	if v := strings.TrimSpace(input.PhoneNumber); v != "" {
		attributes["telephoneNumber"] = []string{v}
		attributes["homePhone"] = []string{v}
	}
	if v := strings.TrimSpace(input.ManagerDN); v != "" {
		attributes["manager"] = []string{v}
	}

	if err := conn.AddEntry(ctx, dn, attributes); err != nil {
		return nil, err
	}

	groups := mergeGroups(input.MemberOf, s.defaultGroups)
	for _, groupDN := range groups {
		change := []port.AttributeChange{{Op: port.ChangeAdd, Name: domain.AttrMember, Values: []string{dn}}}
		if err := conn.Modify(ctx, groupDN, change); err != nil {
			s.logger.Warn("group membership add failed",
				zap.String("group", groupDN),
				zap.String("dn", dn),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("account created", zap.String("dn", dn), zap.String("login", login))

	if s.notifier != nil {
		notice := port.CreationNotice{
			FullName:    fullName,
			FirstName:   firstName,
			LastName:    lastName,
			OrgUnit:     orgUnit,
			Description: input.Description,
			Office:      input.Office,
			PhoneNumber: input.PhoneNumber,
			Login:       login,
			Domain:      input.Domain,
			ManagerDN:   input.ManagerDN,
			Groups:      groups,
			Password:    password,
		}
		if err := s.notifier.AccountCreated(ctx, notice); err != nil {
			s.logger.Warn("creation notification failed", zap.String("dn", dn), zap.Error(err))
		}
	}
	if s.events != nil {
		if err := s.events.PublishAccountCreated(ctx, domain.AccountCreatedEvent{
			DN:        dn,
			Login:     login,
			Groups:    groups,
			CreatedAt: s.now(),
		}); err != nil {
			s.logger.Warn("creation event publish failed", zap.String("dn", dn), zap.Error(err))
		}
	}

	return &CreateResult{DN: dn, Login: login, Password: password}, nil
}

// ApplyChanges replaces the modifiable attributes of an existing account and
// sends the modification summary.
func (s *AccountService) ApplyChanges(ctx context.Context, input ModifyInput) error {
	dn := strings.TrimSpace(input.DN)
	if dn == "" || strings.TrimSpace(input.OrgUnit) == "" || strings.TrimSpace(input.MainOrgUnit) == "" {
		return ErrMissingModifyFields
	}

	var changes []port.AttributeChange
	if v := strings.TrimSpace(input.Description); v != "" {
		changes = append(changes, port.AttributeChange{Op: port.ChangeReplace, Name: "description", Values: []string{v}})
	}
	if v := strings.TrimSpace(input.Office); v != "" {
		changes = append(changes, port.AttributeChange{Op: port.ChangeReplace, Name: "physicalDeliveryOfficeName", Values: []string{v}})
	}
	if v := strings.TrimSpace(input.PhoneNumber); v != "" {
		changes = append(changes, port.AttributeChange{Op: port.ChangeReplace, Name: "telephoneNumber", Values: []string{v}})
		changes = append(changes, port.AttributeChange{Op: port.ChangeReplace, Name: "homePhone", Values: []string{v}})
	}
	if v := strings.TrimSpace(input.ManagerDN); v != "" {
		changes = append(changes, port.AttributeChange{Op: port.ChangeReplace, Name: "manager", Values: []string{v}})
	}

	if len(changes) > 0 {
		conn, err := s.connector.AdminBind(ctx)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
		}
		defer conn.Close()

		if err := conn.Modify(ctx, dn, changes); err != nil {
			return err
		}
	}

	s.logger.Info("account modified", zap.String("dn", dn), zap.Int("changes", len(changes)))

	if s.notifier != nil {
		notice := port.ModificationNotice{
			FullName:    input.FullName,
			DN:          dn,
			Description: input.Description,
			Office:      input.Office,
			PhoneNumber: input.PhoneNumber,
			ManagerDN:   input.ManagerDN,
			Groups:      input.MemberOf,
		}
		if err := s.notifier.AccountModified(ctx, notice); err != nil {
			s.logger.Warn("modification notification failed", zap.String("dn", dn), zap.Error(err))
		}
	}
	if s.events != nil {
		if err := s.events.PublishAccountModified(ctx, domain.AccountModifiedEvent{
			DN:         dn,
			ModifiedAt: s.now(),
		}); err != nil {
			s.logger.Warn("modification event publish failed", zap.String("dn", dn), zap.Error(err))
		}
	}

	return nil
}

// SearchAccounts returns DNs of entries whose common name contains the query.
// An empty query yields an empty result without opening a connection.
func (s *AccountService) SearchAccounts(ctx context.Context, query string) ([]DirectoryRef, error) {
	return s.searchByCN(ctx, query, []string{domain.AttrDistinguishedName}, false)
}

// SearchManagers returns DN and CN pairs matching the query.
func (s *AccountService) SearchManagers(ctx context.Context, query string) ([]DirectoryRef, error) {
	return s.searchByCN(ctx, query, []string{domain.AttrDistinguishedName, domain.AttrCommonName}, true)
}

// SearchGroups returns DN and CN pairs of groups matching the query.
func (s *AccountService) SearchGroups(ctx context.Context, query string) ([]DirectoryRef, error) {
	return s.searchByCN(ctx, query, []string{domain.AttrDistinguishedName, domain.AttrCommonName}, true)
}

func (s *AccountService) searchByCN(ctx context.Context, query string, attributes []string, includeCN bool) ([]DirectoryRef, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []DirectoryRef{}, nil
	}

	conn, err := s.connector.AdminBind(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}
	defer conn.Close()

	filter := fmt.Sprintf("(cn=*%s*)", ldapinfra.EscapeFilter(query))
	entries, err := conn.Search(ctx, port.SearchRequest{
		BaseDN:     s.baseDN,
		Filter:     filter,
		Attributes: attributes,
	})
	if err != nil {
		return nil, err
	}

	refs := make([]DirectoryRef, 0, len(entries))
	for _, entry := range entries {
		ref := DirectoryRef{DN: entry.DN}
		if ref.DN == "" {
			ref.DN = entry.First(domain.AttrDistinguishedName)
		}
		if includeCN {
			ref.CN = entry.First(domain.AttrCommonName)
		}
		refs = append(refs, ref)
	}

	return refs, nil
}

// uniqueLogin probes the directory for sAMAccountName collisions, growing the
// first-name prefix one rune at a time and falling back to a random digit
// suffix once the prefix is exhausted.
func (s *AccountService) uniqueLogin(ctx context.Context, conn port.Directory, login, firstName, lastName string) (string, error) {
	firstRunes := []rune(strings.ToLower(firstName))
	last := strings.ToLower(lastName)

	candidate := login
	for i := 1; ; i++ {
		filter := fmt.Sprintf("(%s=%s)", domain.AttrSAMAccountName, ldapinfra.EscapeFilter(candidate))
		entries, err := conn.Search(ctx, port.SearchRequest{
			BaseDN:     s.baseDN,
			Filter:     filter,
			Attributes: []string{domain.AttrSAMAccountName},
		})
		if err != nil {
			return "", err
		}
		if len(entries) == 0 {
			return candidate, nil
		}

		if i+1 <= len(firstRunes) {
			candidate = string(firstRunes[:i+1]) + last
		} else {
			digit, err := s.randomDigit()
			if err != nil {
				return "", fmt.Errorf("generate login suffix: %w", err)
			}
			candidate = string(firstRunes) + last + digit
		}
	}
}

func (s *AccountService) generatePassword() (string, error) {
	for attempt := 0; attempt < maxPasswordAttempts; attempt++ {
		password, err := s.genPassword(security.DefaultPasswordLength)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		if err := s.validator.Validate(password); err == nil {
			return password, nil
		}
	}
	return "", ErrPasswordGeneration
}

func defaultLogin(firstName, lastName string) string {
	first := []rune(strings.ToLower(firstName))
	return string(first[:1]) + strings.ToLower(lastName)
}

func mergeGroups(requested, defaults []string) []string {
	seen := make(map[string]struct{}, len(requested)+len(defaults))
	merged := make([]string, 0, len(requested)+len(defaults))
	for _, groupDN := range append(append([]string{}, requested...), defaults...) {
		groupDN = strings.TrimSpace(groupDN)
		if groupDN == "" {
			continue
		}
		if _, ok := seen[groupDN]; ok {
			continue
		}
		seen[groupDN] = struct{}{}
		merged = append(merged, groupDN)
	}
	return merged
}
