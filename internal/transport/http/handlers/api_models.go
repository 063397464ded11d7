package handlers

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// FlexibleString accepts a JSON string or number and normalizes it to its
// string form. Clients send retention values both ways.
type FlexibleString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexibleString) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*f = ""
		return nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexibleString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*f = FlexibleString(n.String())
	return nil
}

// String returns the normalized value.
func (f FlexibleString) String() string {
	return string(f)
}

// GroupRef accepts either a bare DN string or an object carrying a dn field.
type GroupRef string

// UnmarshalJSON implements json.Unmarshaler.
func (g *GroupRef) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*g = ""
		return nil
	}

	if len(trimmed) > 0 && trimmed[0] == '{' {
		var obj struct {
			DN string `json:"dn"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*g = GroupRef(obj.DN)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("expected group DN string or object: %w", err)
	}
	*g = GroupRef(s)
	return nil
}

func groupDNs(refs []GroupRef) []string {
	dns := make([]string, 0, len(refs))
	for _, ref := range refs {
		if string(ref) == "" {
			continue
		}
		dns = append(dns, string(ref))
	}
	return dns
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CheckAuthResponse is returned by the session probe endpoint.
type CheckAuthResponse struct {
	Authenticated bool   `json:"authenticated"`
	User          string `json:"user"`
}

// CreateUserRequest defines the payload for account creation.
type CreateUserRequest struct {
	FullName       string     `json:"fullName"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	OrgUnit        string     `json:"new_ou"`
	NewDescription string     `json:"newDescription"`
	NewOffice      string     `json:"newOffice"`
	NewPhoneNumber string     `json:"newPhoneNumber"`
	LoginName      string     `json:"loginName"`
	Domain         string     `json:"domain"`
	ManagerDN      string     `json:"managerDn"`
	MemberOf       []GroupRef `json:"memberOf"`
}

// CreateUserResponse reports the provisioned identity, including the generated
// initial password.
type CreateUserResponse struct {
	Message   string `json:"message"`
	Password  string `json:"password"`
	LoginName string `json:"loginName"`
}

// DeleteUserRequest defines the payload for the deletion endpoint.
type DeleteUserRequest struct {
	DN               string         `json:"dn"`
	FullName         string         `json:"fullName"`
	RetentionDays    FlexibleString `json:"retention_days"`
	RetentionMinutes FlexibleString `json:"retention_minutes"`
}

// ApplyChangesRequest defines the payload for the modification endpoint.
type ApplyChangesRequest struct {
	DN             string     `json:"dn"`
	FullName       string     `json:"fullName"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	OrgUnit        string     `json:"new_ou"`
	MainOrgUnit    string     `json:"main_ou"`
	NewDescription string     `json:"newDescription"`
	NewOffice      string     `json:"newOffice"`
	NewPhoneNumber string     `json:"newPhoneNumber"`
	LoginName      string     `json:"loginName"`
	Domain         string     `json:"domain"`
	ManagerDN      string     `json:"managerDn"`
	MemberOf       []GroupRef `json:"memberOf"`
}
