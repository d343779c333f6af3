package approval

import (
	"context"
	"time"
)

// Status is the lifecycle state of an access request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Caller is the authenticated identity asserted by the request token.
type Caller struct {
	UID      string
	Email    string
	Approved bool
	Role     Role
	TeamID   string
	HQID     string
}

type callerKey struct{}

// WithCaller attaches the caller identity to ctx.
func WithCaller(ctx context.Context, c *Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the caller attached to ctx, if any.
func CallerFrom(ctx context.Context) (*Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(*Caller)
	return c, ok && c != nil
}

// AccessRequest is the stored record a new user files to gain access.
type AccessRequest struct {
	UID            string     `db:"uid" json:"uid"`
	Email          string     `db:"email" json:"email,omitempty"`
	Status         Status     `db:"status" json:"status"`
	Role           string     `db:"role" json:"role,omitempty"`
	HQID           string     `db:"hq_id" json:"hqId,omitempty"`
	TeamID         string     `db:"team_id" json:"teamId,omitempty"`
	PartID         string     `db:"part_id" json:"partId,omitempty"`
	DecidedByUID   string     `db:"decided_by_uid" json:"decidedByUid,omitempty"`
	DecidedByEmail string     `db:"decided_by_email" json:"decidedByEmail,omitempty"`
	DecidedAt      *time.Time `db:"decided_at" json:"decidedAt,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
}

// Decision is the mutation written back to an access request.
type Decision struct {
	Status         Status
	Role           string
	HQID           string
	TeamID         string
	PartID         string
	DecidedByUID   string
	DecidedByEmail string
	DecidedAt      time.Time
}

// Claims is the full authorization claim set of a user. Writing claims
// replaces whatever the user had before.
type Claims struct {
	Approved bool   `json:"approved"`
	Role     string `json:"role,omitempty"`
	HQID     string `json:"hqId,omitempty"`
	TeamID   string `json:"teamId,omitempty"`
	PartID   string `json:"partId,omitempty"`
}

// Input is the body of an approve/reject call.
type Input struct {
	UID    string `json:"uid" validate:"required"`
	Status string `json:"status" validate:"required,oneof=approved rejected"`
	Role   string `json:"role,omitempty"`
	HQID   string `json:"hqId,omitempty"`
	TeamID string `json:"teamId,omitempty"`
	PartID string `json:"partId,omitempty"`
}

// Filing is the body of a user's own access request.
type Filing struct {
	Role   string `json:"role,omitempty"`
	HQID   string `json:"hqId,omitempty"`
	TeamID string `json:"teamId,omitempty"`
	PartID string `json:"partId,omitempty"`
}

// Applied describes how much of a decision reached the stores.
type Applied int

const (
	NotApplied Applied = iota
	PartiallyApplied
	FullyApplied
)

func (a Applied) String() string {
	switch a {
	case FullyApplied:
		return "fully_applied"
	case PartiallyApplied:
		return "partially_applied"
	default:
		return "not_applied"
	}
}

// Outcome is the result of deciding an access request.
type Outcome struct {
	Status        Status
	Claims        Claims
	Applied       Applied
	ClaimsWritten bool
	RequestSaved  bool
}

// ClaimsStore persists authorization claims per user.
type ClaimsStore interface {
	SetClaims(ctx context.Context, uid string, claims Claims) error
}

// RequestStore persists access requests.
type RequestStore interface {
	GetAccessRequest(ctx context.Context, uid string) (AccessRequest, error)
	SaveAccessRequest(ctx context.Context, req AccessRequest) error
	UpdateAccessRequest(ctx context.Context, uid string, d Decision) error
	ListAccessRequests(ctx context.Context, status Status, teamID string) ([]AccessRequest, error)
}
