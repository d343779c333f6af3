package approval_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/godilite/eval-server/internal/approval"
	"github.com/godilite/eval-server/internal/approval/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var fixedNow = time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)

func newAuthority(t *testing.T, claims *mocks.MockClaimsStore, reqs *mocks.MockRequestStore) *approval.Authority {
	t.Helper()
	return approval.NewAuthority(claims, reqs, zaptest.NewLogger(t),
		approval.WithDefaultHQ("hq-seoul"),
		approval.WithClock(func() time.Time { return fixedNow }),
	)
}

func storedRequest(req approval.AccessRequest) *mocks.MockRequestStore {
	return &mocks.MockRequestStore{
		GetAccessRequestFunc: func(ctx context.Context, uid string) (approval.AccessRequest, error) {
			req.UID = uid
			return req, nil
		},
	}
}

func superAdmin() *approval.Caller {
	return &approval.Caller{UID: "admin-1", Email: "admin@example.com", Approved: true, Role: approval.RoleSuperAdmin}
}

func teamLeader(team string) *approval.Caller {
	return &approval.Caller{UID: "lead-1", Email: "lead@example.com", Approved: true, Role: approval.RoleTeamLeader, TeamID: team}
}

func TestNewAuthority(t *testing.T) {
	t.Run("nil stores panic", func(t *testing.T) {
		assert.Panics(t, func() {
			approval.NewAuthority(nil, &mocks.MockRequestStore{}, nil)
		})
		assert.Panics(t, func() {
			approval.NewAuthority(&mocks.MockClaimsStore{}, nil, nil)
		})
	})

	t.Run("nil logger is allowed", func(t *testing.T) {
		assert.NotNil(t, approval.NewAuthority(&mocks.MockClaimsStore{}, &mocks.MockRequestStore{}, nil))
	})
}

func TestDecide_Preconditions(t *testing.T) {
	valid := approval.Input{UID: "user-9", Status: "approved"}

	cases := []struct {
		name   string
		caller *approval.Caller
		input  approval.Input
		target error
		reason approval.Reason
	}{
		{
			name:   "no caller",
			caller: nil,
			input:  valid,
			target: approval.ErrUnauthenticated,
		},
		{
			name:   "caller not approved",
			caller: &approval.Caller{UID: "u", Approved: false, Role: approval.RoleSuperAdmin},
			input:  valid,
			target: approval.ErrPermissionDenied,
			reason: approval.ReasonCallerNotApproved,
		},
		{
			name:   "plain user cannot approve",
			caller: &approval.Caller{UID: "u", Approved: true, Role: approval.RoleUser, TeamID: "t1"},
			input:  valid,
			target: approval.ErrPermissionDenied,
			reason: approval.ReasonNotApprover,
		},
		{
			name:   "unknown role cannot approve",
			caller: &approval.Caller{UID: "u", Approved: true, Role: approval.ParseRole("ADMIN")},
			input:  valid,
			target: approval.ErrPermissionDenied,
			reason: approval.ReasonNotApprover,
		},
		{
			name:   "team leader without team",
			caller: teamLeader(""),
			input:  valid,
			target: approval.ErrPermissionDenied,
			reason: approval.ReasonApproverTeamMissing,
		},
		{
			name:   "missing uid",
			caller: superAdmin(),
			input:  approval.Input{Status: "approved"},
			target: approval.ErrInvalidArgument,
		},
		{
			name:   "bad status",
			caller: superAdmin(),
			input:  approval.Input{UID: "user-9", Status: "pending"},
			target: approval.ErrInvalidArgument,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			claims := &mocks.MockClaimsStore{}
			reqs := &mocks.MockRequestStore{}
			a := newAuthority(t, claims, reqs)

			_, err := a.Decide(context.Background(), tc.caller, tc.input)

			require.Error(t, err)
			assert.ErrorIs(t, err, tc.target)
			if tc.reason != "" {
				var denied *approval.DeniedError
				require.True(t, errors.As(err, &denied))
				assert.Equal(t, tc.reason, denied.Reason)
			}
			assert.Zero(t, reqs.Reads, "no store access before preconditions pass")
			assert.Zero(t, mocks.Writes(claims, reqs))
		})
	}
}

func TestDecide_NotFound(t *testing.T) {
	claims := &mocks.MockClaimsStore{}
	reqs := &mocks.MockRequestStore{}
	a := newAuthority(t, claims, reqs)

	_, err := a.Decide(context.Background(), superAdmin(), approval.Input{UID: "ghost", Status: "approved"})

	assert.ErrorIs(t, err, approval.ErrNotFound)
	assert.Equal(t, 1, reqs.Reads)
	assert.Zero(t, mocks.Writes(claims, reqs))
}

func TestDecide_StoreReadFailure(t *testing.T) {
	reqs := &mocks.MockRequestStore{
		GetAccessRequestFunc: func(ctx context.Context, uid string) (approval.AccessRequest, error) {
			return approval.AccessRequest{}, errors.New("disk on fire")
		},
	}
	a := newAuthority(t, &mocks.MockClaimsStore{}, reqs)

	_, err := a.Decide(context.Background(), superAdmin(), approval.Input{UID: "u", Status: "approved"})

	require.Error(t, err)
	assert.NotErrorIs(t, err, approval.ErrNotFound)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestDecide_TeamScope(t *testing.T) {
	input := approval.Input{UID: "user-9", Status: "approved"}

	t.Run("team leader cannot approve another team", func(t *testing.T) {
		claims := &mocks.MockClaimsStore{}
		reqs := storedRequest(approval.AccessRequest{Status: approval.StatusPending, TeamID: "t2"})
		a := newAuthority(t, claims, reqs)

		_, err := a.Decide(context.Background(), teamLeader("t1"), input)

		assert.ErrorIs(t, err, approval.ErrPermissionDenied)
		var denied *approval.DeniedError
		require.True(t, errors.As(err, &denied))
		assert.Equal(t, approval.ReasonTeamMismatch, denied.Reason)
		assert.Zero(t, mocks.Writes(claims, reqs))
	})

	t.Run("explicit team input cannot escape scope", func(t *testing.T) {
		claims := &mocks.MockClaimsStore{}
		reqs := storedRequest(approval.AccessRequest{Status: approval.StatusPending, TeamID: "t1"})
		a := newAuthority(t, claims, reqs)

		_, err := a.Decide(context.Background(), teamLeader("t1"),
			approval.Input{UID: "user-9", Status: "approved", TeamID: "t2"})

		assert.ErrorIs(t, err, approval.ErrPermissionDenied)
		assert.Zero(t, mocks.Writes(claims, reqs))
	})

	t.Run("super admin approves any team", func(t *testing.T) {
		claims := &mocks.MockClaimsStore{}
		reqs := storedRequest(approval.AccessRequest{Status: approval.StatusPending, TeamID: "t2"})
		a := newAuthority(t, claims, reqs)

		out, err := a.Decide(context.Background(), superAdmin(), input)

		require.NoError(t, err)
		assert.Equal(t, approval.FullyApplied, out.Applied)
		assert.Equal(t, "t2", out.Claims.TeamID)
	})

	t.Run("team leader falls back to own team", func(t *testing.T) {
		claims := &mocks.MockClaimsStore{}
		reqs := storedRequest(approval.AccessRequest{Status: approval.StatusPending})
		a := newAuthority(t, claims, reqs)

		out, err := a.Decide(context.Background(), teamLeader("t1"), input)

		require.NoError(t, err)
		assert.Equal(t, "t1", out.Claims.TeamID)
	})
}

func TestDecide_ApproveResolution(t *testing.T) {
	t.Run("team leader cannot grant super admin", func(t *testing.T) {
		claims := &mocks.MockClaimsStore{}
		reqs := storedRequest(approval.AccessRequest{Status: approval.StatusPending, TeamID: "t1"})
		a := newAuthority(t, claims, reqs)

		out, err := a.Decide(context.Background(), teamLeader("t1"),
			approval.Input{UID: "user-9", Status: "approved", Role: "SUPER_ADMIN"})

		require.NoError(t, err)
		assert.Equal(t, "USER", out.Claims.Role)
		require.Len(t, claims.Writes, 1)
		assert.Equal(t, "USER", claims.Writes[0].Claims.Role)
	})

	t.Run("full claims and audit fields are written", func(t *testing.T) {
		claims := &mocks.MockClaimsStore{}
		reqs := storedRequest(approval.AccessRequest{
			Status: approval.StatusPending,
			Role:   "TEAM_LEADER",
			HQID:   "hq-busan",
			TeamID: "t7",
			PartID: "p1",
		})
		a := newAuthority(t, claims, reqs)

		out, err := a.Decide(context.Background(), superAdmin(),
			approval.Input{UID: "user-9", Status: "approved", PartID: "p2"})

		require.NoError(t, err)
		want := approval.Claims{Approved: true, Role: "TEAM_LEADER", HQID: "hq-busan", TeamID: "t7", PartID: "p2"}
		assert.Equal(t, want, out.Claims)
		require.Len(t, claims.Writes, 1)
		assert.Equal(t, "user-9", claims.Writes[0].UID)
		assert.Equal(t, want, claims.Writes[0].Claims)

		require.Len(t, reqs.Updates, 1)
		d := reqs.Updates[0]
		assert.Equal(t, approval.StatusApproved, d.Status)
		assert.Equal(t, "TEAM_LEADER", d.Role)
		assert.Equal(t, "hq-busan", d.HQID)
		assert.Equal(t, "admin-1", d.DecidedByUID)
		assert.Equal(t, "admin@example.com", d.DecidedByEmail)
		assert.Equal(t, fixedNow, d.DecidedAt)
	})

	t.Run("default headquarters applies last", func(t *testing.T) {
		claims := &mocks.MockClaimsStore{}
		reqs := storedRequest(approval.AccessRequest{Status: approval.StatusPending})
		a := newAuthority(t, claims, reqs)

		out, err := a.Decide(context.Background(), superAdmin(), approval.Input{UID: "user-9", Status: "approved"})

		require.NoError(t, err)
		assert.Equal(t, "hq-seoul", out.Claims.HQID)
		assert.Empty(t, out.Claims.TeamID, "super admin's team is never borrowed")
	})

	t.Run("rejected request can be reconsidered", func(t *testing.T) {
		reqs := storedRequest(approval.AccessRequest{Status: approval.StatusRejected, TeamID: "t1"})
		a := newAuthority(t, &mocks.MockClaimsStore{}, reqs)

		out, err := a.Decide(context.Background(), teamLeader("t1"), approval.Input{UID: "user-9", Status: "approved"})

		require.NoError(t, err)
		assert.Equal(t, approval.StatusApproved, out.Status)
	})

	t.Run("approving twice yields identical claims", func(t *testing.T) {
		claims := &mocks.MockClaimsStore{}
		reqs := storedRequest(approval.AccessRequest{Status: approval.StatusApproved, TeamID: "t1", Role: "USER"})
		a := newAuthority(t, claims, reqs)
		in := approval.Input{UID: "user-9", Status: "approved"}

		first, err := a.Decide(context.Background(), teamLeader("t1"), in)
		require.NoError(t, err)
		second, err := a.Decide(context.Background(), teamLeader("t1"), in)
		require.NoError(t, err)

		assert.Equal(t, first.Claims, second.Claims)
		assert.Len(t, reqs.Updates, 2)
	})
}

func TestDecide_Reject(t *testing.T) {
	t.Run("claims are exactly approved false", func(t *testing.T) {
		claims := &mocks.MockClaimsStore{}
		reqs := storedRequest(approval.AccessRequest{Status: approval.StatusPending, TeamID: "t1", Role: "TEAM_LEADER"})
		a := newAuthority(t, claims, reqs)

		out, err := a.Decide(context.Background(), superAdmin(),
			approval.Input{UID: "user-9", Status: "rejected", Role: "TEAM_LEADER", TeamID: "t1", HQID: "hq"})

		require.NoError(t, err)
		assert.Equal(t, approval.StatusRejected, out.Status)
		require.Len(t, claims.Writes, 1)

		raw, err := json.Marshal(claims.Writes[0].Claims)
		require.NoError(t, err)
		assert.JSONEq(t, `{"approved": false}`, string(raw))

		require.Len(t, reqs.Updates, 1)
		assert.Equal(t, approval.StatusRejected, reqs.Updates[0].Status)
		assert.Equal(t, "admin-1", reqs.Updates[0].DecidedByUID)
		assert.Empty(t, reqs.Updates[0].Role)
	})

	t.Run("team leader cannot reject another team", func(t *testing.T) {
		claims := &mocks.MockClaimsStore{}
		reqs := storedRequest(approval.AccessRequest{Status: approval.StatusPending, TeamID: "t2"})
		a := newAuthority(t, claims, reqs)

		_, err := a.Decide(context.Background(), teamLeader("t1"),
			approval.Input{UID: "user-9", Status: "rejected", TeamID: "t1"})

		var denied *approval.DeniedError
		require.True(t, errors.As(err, &denied))
		assert.Equal(t, approval.ReasonTeamMismatch, denied.Reason)
		assert.Zero(t, mocks.Writes(claims, reqs))
	})

	t.Run("team leader rejects own team", func(t *testing.T) {
		claims := &mocks.MockClaimsStore{}
		reqs := storedRequest(approval.AccessRequest{Status: approval.StatusPending, TeamID: "t1"})
		a := newAuthority(t, claims, reqs)

		out, err := a.Decide(context.Background(), teamLeader("t1"), approval.Input{UID: "user-9", Status: "rejected"})

		require.NoError(t, err)
		assert.Equal(t, approval.FullyApplied, out.Applied)
		assert.Equal(t, "lead-1", reqs.Updates[0].DecidedByUID)
	})

	t.Run("approved requests cannot be rejected", func(t *testing.T) {
		claims := &mocks.MockClaimsStore{}
		reqs := storedRequest(approval.AccessRequest{Status: approval.StatusApproved})
		a := newAuthority(t, claims, reqs)

		_, err := a.Decide(context.Background(), superAdmin(), approval.Input{UID: "user-9", Status: "rejected"})

		assert.ErrorIs(t, err, approval.ErrAlreadyApproved)
		assert.Zero(t, mocks.Writes(claims, reqs))
	})
}

func TestDecide_PartialApplication(t *testing.T) {
	pending := approval.AccessRequest{Status: approval.StatusPending, TeamID: "t1"}
	in := approval.Input{UID: "user-9", Status: "approved"}

	t.Run("request update fails after claims write", func(t *testing.T) {
		claims := &mocks.MockClaimsStore{}
		reqs := storedRequest(pending)
		reqs.UpdateAccessRequestFunc = func(ctx context.Context, uid string, d approval.Decision) error {
			return errors.New("write conflict")
		}
		a := newAuthority(t, claims, reqs)

		out, err := a.Decide(context.Background(), superAdmin(), in)

		assert.ErrorIs(t, err, approval.ErrIncomplete)
		assert.Contains(t, err.Error(), "write conflict")
		assert.Equal(t, approval.PartiallyApplied, out.Applied)
		assert.True(t, out.ClaimsWritten)
		assert.False(t, out.RequestSaved)
	})

	t.Run("claims failure still attempts the request update", func(t *testing.T) {
		claims := &mocks.MockClaimsStore{
			SetClaimsFunc: func(ctx context.Context, uid string, c approval.Claims) error {
				return errors.New("identity provider down")
			},
		}
		reqs := storedRequest(pending)
		a := newAuthority(t, claims, reqs)

		out, err := a.Decide(context.Background(), superAdmin(), in)

		assert.ErrorIs(t, err, approval.ErrIncomplete)
		assert.Equal(t, approval.PartiallyApplied, out.Applied)
		assert.Len(t, reqs.Updates, 1)
	})

	t.Run("both writes fail", func(t *testing.T) {
		claims := &mocks.MockClaimsStore{
			SetClaimsFunc: func(ctx context.Context, uid string, c approval.Claims) error {
				return errors.New("a")
			},
		}
		reqs := storedRequest(pending)
		reqs.UpdateAccessRequestFunc = func(ctx context.Context, uid string, d approval.Decision) error {
			return errors.New("b")
		}
		a := newAuthority(t, claims, reqs)

		out, err := a.Decide(context.Background(), superAdmin(), in)

		assert.ErrorIs(t, err, approval.ErrIncomplete)
		assert.Equal(t, approval.NotApplied, out.Applied)
	})
}

func TestRequestAccess(t *testing.T) {
	caller := &approval.Caller{UID: "new-1", Email: "new@example.com"}

	t.Run("unauthenticated", func(t *testing.T) {
		a := newAuthority(t, &mocks.MockClaimsStore{}, &mocks.MockRequestStore{})
		_, err := a.RequestAccess(context.Background(), nil, approval.Filing{})
		assert.ErrorIs(t, err, approval.ErrUnauthenticated)
	})

	t.Run("first filing creates a pending request", func(t *testing.T) {
		reqs := &mocks.MockRequestStore{}
		a := newAuthority(t, &mocks.MockClaimsStore{}, reqs)

		req, err := a.RequestAccess(context.Background(), caller, approval.Filing{TeamID: "t1", Role: "TEAM_LEADER"})

		require.NoError(t, err)
		assert.Equal(t, approval.StatusPending, req.Status)
		assert.Equal(t, fixedNow, req.CreatedAt)
		require.Len(t, reqs.Saved, 1)
		assert.Equal(t, "new@example.com", reqs.Saved[0].Email)
	})

	t.Run("rejected requester may file again", func(t *testing.T) {
		created := fixedNow.Add(-48 * time.Hour)
		reqs := storedRequest(approval.AccessRequest{Status: approval.StatusRejected, CreatedAt: created})
		a := newAuthority(t, &mocks.MockClaimsStore{}, reqs)

		req, err := a.RequestAccess(context.Background(), caller, approval.Filing{TeamID: "t2"})

		require.NoError(t, err)
		assert.Equal(t, approval.StatusPending, req.Status)
		assert.Equal(t, created, req.CreatedAt)
	})

	t.Run("approved requester cannot file again", func(t *testing.T) {
		reqs := storedRequest(approval.AccessRequest{Status: approval.StatusApproved})
		a := newAuthority(t, &mocks.MockClaimsStore{}, reqs)

		_, err := a.RequestAccess(context.Background(), caller, approval.Filing{})

		assert.ErrorIs(t, err, approval.ErrAlreadyApproved)
		assert.Empty(t, reqs.Saved)
	})
}

func TestListRequests(t *testing.T) {
	var gotTeam string
	var gotStatus approval.Status
	reqs := &mocks.MockRequestStore{
		ListAccessRequestsFunc: func(ctx context.Context, status approval.Status, teamID string) ([]approval.AccessRequest, error) {
			gotStatus, gotTeam = status, teamID
			return []approval.AccessRequest{{UID: "a"}}, nil
		},
	}
	a := newAuthority(t, &mocks.MockClaimsStore{}, reqs)

	t.Run("team leader is scoped to own team", func(t *testing.T) {
		out, err := a.ListRequests(context.Background(), teamLeader("t1"), approval.StatusPending)
		require.NoError(t, err)
		assert.Len(t, out, 1)
		assert.Equal(t, "t1", gotTeam)
		assert.Equal(t, approval.StatusPending, gotStatus)
	})

	t.Run("super admin sees every team", func(t *testing.T) {
		_, err := a.ListRequests(context.Background(), superAdmin(), "")
		require.NoError(t, err)
		assert.Empty(t, gotTeam)
	})

	t.Run("users are denied", func(t *testing.T) {
		_, err := a.ListRequests(context.Background(),
			&approval.Caller{UID: "u", Approved: true, Role: approval.RoleUser}, "")
		assert.ErrorIs(t, err, approval.ErrPermissionDenied)
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := a.ListRequests(context.Background(), superAdmin(), "archived")
		assert.ErrorIs(t, err, approval.ErrInvalidArgument)
	})
}
