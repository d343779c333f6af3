package models

import (
	"errors"
	"time"

	"github.com/godilite/eval-server/internal/scoring"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
)

type Template struct {
	ID        string
	Name      string
	Items     []scoring.Item
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Campaign struct {
	ID          string
	TemplateID  string
	Title       string
	DueDate     *time.Time
	TargetUsers []string
	CreatedBy   string
	CreatedAt   time.Time
}

type Answer struct {
	ItemID  int
	Score   float64
	Grade   string
	Comment string
}

// Submission is one rater's complete set of answers for an evaluatee.
type Submission struct {
	CampaignID   string
	EvaluateeUID string
	RaterUID     string
	Answers      []Answer
	SubmittedAt  time.Time
}

// RaterAnswer is a stored answer together with the rater who gave it.
type RaterAnswer struct {
	RaterUID string  `db:"rater_uid"`
	ItemID   int     `db:"item_id"`
	Score    float64 `db:"score"`
	Grade    string  `db:"grade"`
	Comment  string  `db:"comment"`
}
