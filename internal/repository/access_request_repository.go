package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/godilite/eval-server/internal/approval"
	"github.com/jmoiron/sqlx"
)

// AccessRequestRepository stores access requests. It implements
// approval.RequestStore.
type AccessRequestRepository struct {
	db *sqlx.DB
}

func NewAccessRequestRepository(db *sqlx.DB) *AccessRequestRepository {
	return &AccessRequestRepository{db: db}
}

const accessRequestColumns = `uid, email, status, role, hq_id, team_id, part_id,
	decided_by_uid, decided_by_email, decided_at, created_at`

// GetAccessRequest returns approval.ErrNotFound when uid has no request.
func (r *AccessRequestRepository) GetAccessRequest(ctx context.Context, uid string) (approval.AccessRequest, error) {
	query := r.db.Rebind(`SELECT ` + accessRequestColumns + ` FROM access_requests WHERE uid = ?`)

	var req approval.AccessRequest
	if err := r.db.GetContext(ctx, &req, query, uid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return approval.AccessRequest{}, approval.ErrNotFound
		}
		return approval.AccessRequest{}, fmt.Errorf("query GetAccessRequest: %w", err)
	}
	return req, nil
}

// SaveAccessRequest inserts a request or resets an existing one to the
// submitted state. Previous audit fields are kept.
func (r *AccessRequestRepository) SaveAccessRequest(ctx context.Context, req approval.AccessRequest) error {
	query := r.db.Rebind(`
		INSERT INTO access_requests (uid, email, status, role, hq_id, team_id, part_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (uid) DO UPDATE SET
			email = excluded.email,
			status = excluded.status,
			role = excluded.role,
			hq_id = excluded.hq_id,
			team_id = excluded.team_id,
			part_id = excluded.part_id
	`)

	_, err := r.db.ExecContext(ctx, query,
		req.UID, req.Email, string(req.Status), req.Role, req.HQID, req.TeamID, req.PartID, req.CreatedAt)
	if err != nil {
		return fmt.Errorf("exec SaveAccessRequest: %w", err)
	}
	return nil
}

// UpdateAccessRequest writes a decision. Rejections only touch the status
// and audit columns.
func (r *AccessRequestRepository) UpdateAccessRequest(ctx context.Context, uid string, d approval.Decision) error {
	var (
		query string
		args  []any
	)
	if d.Status == approval.StatusApproved {
		query = `UPDATE access_requests
			SET status = ?, role = ?, hq_id = ?, team_id = ?, part_id = ?,
				decided_by_uid = ?, decided_by_email = ?, decided_at = ?
			WHERE uid = ?`
		args = []any{string(d.Status), d.Role, d.HQID, d.TeamID, d.PartID,
			d.DecidedByUID, d.DecidedByEmail, d.DecidedAt, uid}
	} else {
		query = `UPDATE access_requests
			SET status = ?, decided_by_uid = ?, decided_by_email = ?, decided_at = ?
			WHERE uid = ?`
		args = []any{string(d.Status), d.DecidedByUID, d.DecidedByEmail, d.DecidedAt, uid}
	}

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("exec UpdateAccessRequest: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows UpdateAccessRequest: %w", err)
	}
	if n == 0 {
		return approval.ErrNotFound
	}
	return nil
}

// ListAccessRequests filters by status and team when they are non-empty.
func (r *AccessRequestRepository) ListAccessRequests(ctx context.Context, status approval.Status, teamID string) ([]approval.AccessRequest, error) {
	var (
		where []string
		args  []any
	)
	if status != "" {
		where = append(where, "status = ?")
		args = append(args, string(status))
	}
	if teamID != "" {
		where = append(where, "team_id = ?")
		args = append(args, teamID)
	}

	query := `SELECT ` + accessRequestColumns + ` FROM access_requests`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at, uid`

	reqs := []approval.AccessRequest{}
	if err := r.db.SelectContext(ctx, &reqs, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("query ListAccessRequests: %w", err)
	}
	return reqs, nil
}

// ClaimsRepository stores each user's authorization claims as a JSON
// document. It implements approval.ClaimsStore.
type ClaimsRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewClaimsRepository(db *sqlx.DB) *ClaimsRepository {
	return &ClaimsRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// SetClaims replaces the user's claim set.
func (r *ClaimsRepository) SetClaims(ctx context.Context, uid string, claims approval.Claims) error {
	doc, err := json.Marshal(claims)
	if err != nil {
		return fmt.Errorf("encode claims: %w", err)
	}

	query := r.db.Rebind(`
		INSERT INTO user_claims (uid, claims, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (uid) DO UPDATE SET claims = excluded.claims, updated_at = excluded.updated_at
	`)
	if _, err := r.db.ExecContext(ctx, query, uid, string(doc), r.now()); err != nil {
		return fmt.Errorf("exec SetClaims: %w", err)
	}
	return nil
}

// GetClaims returns the raw claims document for uid.
func (r *ClaimsRepository) GetClaims(ctx context.Context, uid string) (map[string]any, error) {
	var doc string
	err := r.db.GetContext(ctx, &doc, r.db.Rebind(`SELECT claims FROM user_claims WHERE uid = ?`), uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, approval.ErrNotFound
		}
		return nil, fmt.Errorf("query GetClaims: %w", err)
	}

	out := map[string]any{}
	if err := json.Unmarshal([]byte(doc), &out); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}
	return out, nil
}
