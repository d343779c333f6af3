package approval

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrAlreadyApproved  = errors.New("access request already approved")
	ErrIncomplete       = errors.New("decision only partially applied")
)

// ErrNotFound is returned when no access request exists for a uid. RequestStore
// implementations return it from lookups of a missing uid.
var ErrNotFound = errors.New("access request not found")

// Reason names why a permission check failed.
type Reason string

const (
	ReasonCallerNotApproved   Reason = "caller not approved"
	ReasonNotApprover         Reason = "caller role cannot approve"
	ReasonApproverTeamMissing Reason = "approver team missing"
	ReasonCallerTeamMissing   Reason = "caller has no team"
	ReasonTeamMismatch        Reason = "target team differs from approver team"
)

// DeniedError is returned for every permission failure. It matches
// ErrPermissionDenied with errors.Is.
type DeniedError struct {
	Reason Reason
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("permission denied: %s", e.Reason)
}

func (e *DeniedError) Is(target error) bool {
	return target == ErrPermissionDenied
}

func deny(r Reason) error {
	return &DeniedError{Reason: r}
}
