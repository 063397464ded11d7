package port

import (
	"context"
	"errors"
	"fmt"
)

// ErrBindFailed indicates a directory bind could not be established. The error
// deliberately carries no detail about which of principal or password was
// wrong.
var ErrBindFailed = errors.New("directory: bind failed")

// Entry is a directory entry as returned by a search.
type Entry struct {
	DN         string
	Attributes map[string][]string
}

// First returns the first value of the named attribute, or "" when absent.
func (e Entry) First(name string) string {
	if values := e.Attributes[name]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// SearchRequest describes a subtree search. Filter values must already be
// escaped against control-character injection before interpolation.
type SearchRequest struct {
	BaseDN     string
	Filter     string
	Attributes []string
}

// ChangeOp enumerates modify operation types.
type ChangeOp int

const (
	ChangeReplace ChangeOp = iota
	ChangeAdd
	ChangeDelete
)

// AttributeChange is a single attribute mutation within a modify request.
type AttributeChange struct {
	Op     ChangeOp
	Name   string
	Values []string
}

// Directory is a bound directory connection scoped to one request or job run.
// Callers must Close it on every exit path.
type Directory interface {
	Search(ctx context.Context, req SearchRequest) ([]Entry, error)
	AddEntry(ctx context.Context, dn string, attributes map[string][]string) error
	Modify(ctx context.Context, dn string, changes []AttributeChange) error
	Delete(ctx context.Context, dn string) error
	Close() error
}

// Connector opens bound directory connections. AdminBind authenticates with
// the service account; VerifyCredentials performs a throwaway bind with the
// supplied principal to check a password.
type Connector interface {
	AdminBind(ctx context.Context) (Directory, error)
	VerifyCredentials(ctx context.Context, bindDN, password string) error
}

// OperationError wraps a failed directory operation together with the
// directory's native diagnostic, preserved for operator debugging.
type OperationError struct {
	Op  string
	DN  string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("directory %s %s: %v", e.Op, e.DN, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}
