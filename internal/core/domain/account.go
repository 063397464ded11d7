package domain

import (
	"bytes"
	"regexp"
	"strings"
	"time"
	"unicode/utf16"
)

// Directory attribute names and values used on the wire. These are part of the
// external contract with the directory service and must not be changed.
const (
	AttrDistinguishedName = "distinguishedName"
	AttrAccountControl    = "userAccountControl"
	AttrScheduledDeletion = "extensionAttribute1"
	AttrCommonName        = "cn"
	AttrSAMAccountName    = "sAMAccountName"
	AttrPrincipalName     = "userPrincipalName"
	AttrMemberOf          = "memberOf"
	AttrMember            = "member"
	AttrUnicodePwd        = "unicodePwd"

	ControlEnabled  = "512"
	ControlDisabled = "514"
)

// Schedule timestamp layouts accepted in extensionAttribute1. A value longer
// than a bare date carries the time component.
const (
	ScheduleLayout     = "2006-01-02 15:04"
	ScheduleDateLayout = "2006-01-02"
)

// StateKind discriminates the logical account states.
type StateKind int

const (
	StateUnknown StateKind = iota
	StateActive
	StatePendingDeletion
)

// AccountState is the decoded form of the string-encoded directory attributes.
// DeletionAt is only meaningful for StatePendingDeletion.
type AccountState struct {
	Kind       StateKind
	DeletionAt time.Time
}

// DecodeState interprets the raw userAccountControl and extensionAttribute1
// values read from the directory. A disabled account with an unparsable or
// absent schedule decodes to StateUnknown rather than guessing.
func DecodeState(control, scheduledAt string) AccountState {
	switch strings.TrimSpace(control) {
	case ControlEnabled:
		return AccountState{Kind: StateActive}
	case ControlDisabled:
		at, err := ParseScheduledAt(scheduledAt)
		if err != nil {
			return AccountState{Kind: StateUnknown}
		}
		return AccountState{Kind: StatePendingDeletion, DeletionAt: at}
	default:
		return AccountState{Kind: StateUnknown}
	}
}

// ParseScheduledAt parses a deletion schedule value, accepting both stored
// formats. Timestamps are local wall-clock; no timezone is modelled.
func ParseScheduledAt(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if len(value) > len(ScheduleDateLayout) {
		return time.ParseInLocation(ScheduleLayout, value, time.Local)
	}
	return time.ParseInLocation(ScheduleDateLayout, value, time.Local)
}

// FormatScheduledAt renders a deletion timestamp in the canonical stored form.
func FormatScheduledAt(t time.Time) string {
	return t.Format(ScheduleLayout)
}

var cnPattern = regexp.MustCompile(`(?i)^CN=([^,]+)`)

// CommonName extracts the value of the leading CN= component of a DN. When the
// DN does not match that shape the raw DN is returned so callers always have a
// printable name.
func CommonName(dn string) string {
	if dn == "" {
		return ""
	}
	if m := cnPattern.FindStringSubmatch(dn); m != nil {
		return m[1]
	}
	return dn
}

// EncodeUnicodePassword produces the UTF-16LE encoding of the quoted password
// expected by Active Directory's unicodePwd attribute.
func EncodeUnicodePassword(password string) string {
	quoted := `"` + password + `"`
	var buf bytes.Buffer
	for _, unit := range utf16.Encode([]rune(quoted)) {
		buf.WriteByte(byte(unit))
		buf.WriteByte(byte(unit >> 8))
	}
	return buf.String()
}
