package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/godilite/eval-server/internal/repository/models"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

type EvaluationRepository struct {
	db *sqlx.DB
}

func NewEvaluationRepository(db *sqlx.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

type templateRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Items     string    `db:"items"`
	CreatedBy string    `db:"created_by"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type campaignRow struct {
	ID          string     `db:"id"`
	TemplateID  string     `db:"template_id"`
	Title       string     `db:"title"`
	DueDate     *time.Time `db:"due_date"`
	TargetUsers string     `db:"target_users"`
	CreatedBy   string     `db:"created_by"`
	CreatedAt   time.Time  `db:"created_at"`
}

// SaveTemplate inserts or replaces a template. Items are stored as one JSON
// document so the rubric keeps its order.
func (r *EvaluationRepository) SaveTemplate(ctx context.Context, t models.Template) error {
	items, err := json.Marshal(t.Items)
	if err != nil {
		return fmt.Errorf("encode template items: %w", err)
	}

	query := r.db.Rebind(`
		INSERT INTO templates (id, name, items, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			items = excluded.items,
			updated_at = excluded.updated_at
	`)
	if _, err := r.db.ExecContext(ctx, query, t.ID, t.Name, string(items), t.CreatedBy, t.CreatedAt, t.UpdatedAt); err != nil {
		return fmt.Errorf("exec SaveTemplate: %w", err)
	}
	return nil
}

func (r *EvaluationRepository) GetTemplate(ctx context.Context, id string) (models.Template, error) {
	query := r.db.Rebind(`SELECT id, name, items, created_by, created_at, updated_at FROM templates WHERE id = ?`)

	var row templateRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Template{}, fmt.Errorf("template %q: %w", id, models.ErrNotFound)
		}
		return models.Template{}, fmt.Errorf("query GetTemplate: %w", err)
	}

	t := models.Template{
		ID:        row.ID,
		Name:      row.Name,
		CreatedBy: row.CreatedBy,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(row.Items), &t.Items); err != nil {
		return models.Template{}, fmt.Errorf("decode template items: %w", err)
	}
	return t, nil
}

func (r *EvaluationRepository) CreateCampaign(ctx context.Context, c models.Campaign) error {
	targets, err := json.Marshal(c.TargetUsers)
	if err != nil {
		return fmt.Errorf("encode target users: %w", err)
	}

	query := r.db.Rebind(`
		INSERT INTO campaigns (id, template_id, title, due_date, target_users, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if _, err := r.db.ExecContext(ctx, query, c.ID, c.TemplateID, c.Title, c.DueDate, string(targets), c.CreatedBy, c.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("campaign %q: %w", c.ID, models.ErrAlreadyExists)
		}
		return fmt.Errorf("exec CreateCampaign: %w", err)
	}
	return nil
}

func (r *EvaluationRepository) GetCampaign(ctx context.Context, id string) (models.Campaign, error) {
	query := r.db.Rebind(`
		SELECT id, template_id, title, due_date, target_users, created_by, created_at
		FROM campaigns WHERE id = ?
	`)

	var row campaignRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Campaign{}, fmt.Errorf("campaign %q: %w", id, models.ErrNotFound)
		}
		return models.Campaign{}, fmt.Errorf("query GetCampaign: %w", err)
	}

	c := models.Campaign{
		ID:         row.ID,
		TemplateID: row.TemplateID,
		Title:      row.Title,
		DueDate:    row.DueDate,
		CreatedBy:  row.CreatedBy,
		CreatedAt:  row.CreatedAt,
	}
	if err := json.Unmarshal([]byte(row.TargetUsers), &c.TargetUsers); err != nil {
		return models.Campaign{}, fmt.Errorf("decode target users: %w", err)
	}
	return c, nil
}

// InsertSubmission stores a rater's answers. Answers are append-only: a
// rater who already submitted for the evaluatee gets ErrAlreadyExists.
func (r *EvaluationRepository) InsertSubmission(ctx context.Context, s models.Submission) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin InsertSubmission: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var existing int
	countQuery := tx.Rebind(`
		SELECT COUNT(1) FROM answers
		WHERE campaign_id = ? AND evaluatee_uid = ? AND rater_uid = ?
	`)
	if err = tx.GetContext(ctx, &existing, countQuery, s.CampaignID, s.EvaluateeUID, s.RaterUID); err != nil {
		return fmt.Errorf("query existing answers: %w", err)
	}
	if existing > 0 {
		return fmt.Errorf("submission by %q for %q: %w", s.RaterUID, s.EvaluateeUID, models.ErrAlreadyExists)
	}

	insert := tx.Rebind(`
		INSERT INTO answers (campaign_id, evaluatee_uid, rater_uid, item_id, score, grade, comment, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	for _, a := range s.Answers {
		if _, err = tx.ExecContext(ctx, insert,
			s.CampaignID, s.EvaluateeUID, s.RaterUID, a.ItemID, a.Score, a.Grade, a.Comment, s.SubmittedAt); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("answer for item %d: %w", a.ItemID, models.ErrAlreadyExists)
			}
			return fmt.Errorf("exec insert answer: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit InsertSubmission: %w", err)
	}
	return nil
}

// GetAnswers returns every answer given for an evaluatee in a campaign,
// ordered by rater and item.
func (r *EvaluationRepository) GetAnswers(ctx context.Context, campaignID, evaluateeUID string) ([]models.RaterAnswer, error) {
	query := r.db.Rebind(`
		SELECT rater_uid, item_id, score, grade, comment
		FROM answers
		WHERE campaign_id = ? AND evaluatee_uid = ?
		ORDER BY rater_uid, item_id
	`)

	var out []models.RaterAnswer
	if err := r.db.SelectContext(ctx, &out, query, campaignID, evaluateeUID); err != nil {
		return nil, fmt.Errorf("query GetAnswers: %w", err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
