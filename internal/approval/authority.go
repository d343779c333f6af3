// Package approval decides who may approve or reject access requests and
// computes the authorization claims that result from a decision.
package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// DefaultHQID is used when neither the call nor the stored request names a
// headquarters.
const DefaultHQID = "hq-main"

type Option func(*Authority)

// WithDefaultHQ overrides DefaultHQID.
func WithDefaultHQ(id string) Option {
	return func(a *Authority) {
		if id != "" {
			a.defaultHQ = id
		}
	}
}

// WithClock sets the time source used for audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Authority) {
		if now != nil {
			a.now = now
		}
	}
}

// Authority applies the access approval workflow against the claims and
// request stores.
type Authority struct {
	claims    ClaimsStore
	requests  RequestStore
	validate  *validator.Validate
	logger    *zap.Logger
	defaultHQ string
	now       func() time.Time
}

// NewAuthority creates an Authority. Both stores are required.
func NewAuthority(claims ClaimsStore, requests RequestStore, logger *zap.Logger, opts ...Option) *Authority {
	if claims == nil || requests == nil {
		panic("claims and request stores must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Authority{
		claims:    claims,
		requests:  requests,
		validate:  validator.New(),
		logger:    logger.Named("approval"),
		defaultHQ: DefaultHQID,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CheckAuthenticated reports ErrUnauthenticated for a missing identity.
func CheckAuthenticated(c *Caller) error {
	if c == nil || c.UID == "" {
		return ErrUnauthenticated
	}
	return nil
}

// CheckApprover runs the caller-side preconditions of a decision in order.
// Transports call it before interpreting the request body.
func CheckApprover(c *Caller) error {
	if err := CheckAuthenticated(c); err != nil {
		return err
	}
	if !c.Approved {
		return deny(ReasonCallerNotApproved)
	}
	if !c.Role.CanApprove() {
		return deny(ReasonNotApprover)
	}
	if c.Role == RoleTeamLeader && c.TeamID == "" {
		return deny(ReasonApproverTeamMissing)
	}
	return nil
}

// Decide approves or rejects the access request named by in.UID.
//
// All preconditions are checked before any store is touched. Once writing
// starts, the claims write and the request update are attempted
// independently and neither is rolled back; the Outcome reports how much
// was applied and a non-nil error wraps ErrIncomplete when not everything
// was.
func (a *Authority) Decide(ctx context.Context, caller *Caller, in Input) (Outcome, error) {
	if err := CheckApprover(caller); err != nil {
		return Outcome{}, err
	}
	if err := a.validate.Struct(in); err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	req, err := a.requests.GetAccessRequest(ctx, in.UID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Outcome{}, err
		}
		return Outcome{}, fmt.Errorf("load access request: %w", err)
	}

	switch Status(in.Status) {
	case StatusApproved:
		return a.approve(ctx, caller, in, req)
	case StatusRejected:
		if req.Status == StatusApproved {
			return Outcome{}, ErrAlreadyApproved
		}
		return a.reject(ctx, caller, in, req)
	case StatusPending:
	}
	return Outcome{}, fmt.Errorf("%w: status %q", ErrInvalidArgument, in.Status)
}

func (a *Authority) approve(ctx context.Context, caller *Caller, in Input, req AccessRequest) (Outcome, error) {
	requested := ParseRole(firstNonEmpty(in.Role, req.Role))
	role := ResolveRole(caller.Role, requested)

	var leaderTeam string
	if caller.Role == RoleTeamLeader {
		leaderTeam = caller.TeamID
	}
	hq := ResolveHQ(in.HQID, req.HQID, a.defaultHQ)
	team := ResolveTeam(in.TeamID, req.TeamID, leaderTeam)
	part := ResolvePart(in.PartID, req.PartID)

	if err := checkScope(caller, team); err != nil {
		return Outcome{}, err
	}

	claims := Claims{
		Approved: true,
		Role:     role.String(),
		HQID:     hq,
		TeamID:   team,
		PartID:   part,
	}
	d := Decision{
		Status:         StatusApproved,
		Role:           claims.Role,
		HQID:           hq,
		TeamID:         team,
		PartID:         part,
		DecidedByUID:   caller.UID,
		DecidedByEmail: caller.Email,
		DecidedAt:      a.now(),
	}
	return a.apply(ctx, in.UID, claims, d)
}

// reject scopes on the stored team; the input team is ignored.
func (a *Authority) reject(ctx context.Context, caller *Caller, in Input, req AccessRequest) (Outcome, error) {
	if err := checkScope(caller, ResolveTeam("", req.TeamID, caller.TeamID)); err != nil {
		return Outcome{}, err
	}

	d := Decision{
		Status:         StatusRejected,
		DecidedByUID:   caller.UID,
		DecidedByEmail: caller.Email,
		DecidedAt:      a.now(),
	}
	return a.apply(ctx, in.UID, Claims{Approved: false}, d)
}

// checkScope limits non-super-admins to requests of their own team.
func checkScope(caller *Caller, team string) error {
	if caller.Role == RoleSuperAdmin {
		return nil
	}
	if caller.TeamID == "" {
		return deny(ReasonCallerTeamMissing)
	}
	if team != caller.TeamID {
		return deny(ReasonTeamMismatch)
	}
	return nil
}

func (a *Authority) apply(ctx context.Context, uid string, claims Claims, d Decision) (Outcome, error) {
	out := Outcome{Status: d.Status, Claims: claims}

	var errs []error
	if err := a.claims.SetClaims(ctx, uid, claims); err != nil {
		errs = append(errs, fmt.Errorf("set claims: %w", err))
	} else {
		out.ClaimsWritten = true
	}
	if err := a.requests.UpdateAccessRequest(ctx, uid, d); err != nil {
		errs = append(errs, fmt.Errorf("update access request: %w", err))
	} else {
		out.RequestSaved = true
	}

	switch {
	case out.ClaimsWritten && out.RequestSaved:
		out.Applied = FullyApplied
	case out.ClaimsWritten || out.RequestSaved:
		out.Applied = PartiallyApplied
	default:
		out.Applied = NotApplied
	}

	if len(errs) > 0 {
		a.logger.Error("access decision not fully applied",
			zap.String("uid", uid),
			zap.String("status", string(d.Status)),
			zap.Stringer("applied", out.Applied),
			zap.Errors("errors", errs))
		return out, fmt.Errorf("%w: %w", ErrIncomplete, errors.Join(errs...))
	}

	a.logger.Info("access request decided",
		zap.String("uid", uid),
		zap.String("status", string(d.Status)),
		zap.String("role", claims.Role),
		zap.String("team_id", claims.TeamID),
		zap.String("decided_by", d.DecidedByUID))
	return out, nil
}

// RequestAccess files or refreshes the caller's own pending request.
// The caller needs a valid identity but not prior approval.
func (a *Authority) RequestAccess(ctx context.Context, caller *Caller, f Filing) (AccessRequest, error) {
	if err := CheckAuthenticated(caller); err != nil {
		return AccessRequest{}, err
	}

	createdAt := a.now()
	existing, err := a.requests.GetAccessRequest(ctx, caller.UID)
	switch {
	case err == nil:
		if existing.Status == StatusApproved {
			return AccessRequest{}, ErrAlreadyApproved
		}
		createdAt = existing.CreatedAt
	case errors.Is(err, ErrNotFound):
	default:
		return AccessRequest{}, fmt.Errorf("load access request: %w", err)
	}

	req := AccessRequest{
		UID:       caller.UID,
		Email:     caller.Email,
		Status:    StatusPending,
		Role:      f.Role,
		HQID:      f.HQID,
		TeamID:    f.TeamID,
		PartID:    f.PartID,
		CreatedAt: createdAt,
	}
	if err := a.requests.SaveAccessRequest(ctx, req); err != nil {
		return AccessRequest{}, fmt.Errorf("save access request: %w", err)
	}

	a.logger.Info("access requested",
		zap.String("uid", caller.UID),
		zap.String("team_id", f.TeamID))
	return req, nil
}

// ListRequests returns the requests visible to the caller. Team leaders
// only see their own team. An empty status lists every status.
func (a *Authority) ListRequests(ctx context.Context, caller *Caller, status Status) ([]AccessRequest, error) {
	if err := CheckApprover(caller); err != nil {
		return nil, err
	}
	switch status {
	case "", StatusPending, StatusApproved, StatusRejected:
	default:
		return nil, fmt.Errorf("%w: status %q", ErrInvalidArgument, status)
	}

	var team string
	if caller.Role != RoleSuperAdmin {
		team = caller.TeamID
	}
	reqs, err := a.requests.ListAccessRequests(ctx, status, team)
	if err != nil {
		return nil, fmt.Errorf("list access requests: %w", err)
	}
	return reqs, nil
}
