package service

import (
	"context"

	"github.com/godilite/eval-server/internal/notify"
	"github.com/godilite/eval-server/internal/repository/models"
)

// EvaluationRepository defines the storage operations the service relies on.
type EvaluationRepository interface {
	SaveTemplate(ctx context.Context, t models.Template) error
	GetTemplate(ctx context.Context, id string) (models.Template, error)
	CreateCampaign(ctx context.Context, c models.Campaign) error
	GetCampaign(ctx context.Context, id string) (models.Campaign, error)
	InsertSubmission(ctx context.Context, s models.Submission) error
	GetAnswers(ctx context.Context, campaignID, evaluateeUID string) ([]models.RaterAnswer, error)
}

// Notifier delivers campaign notifications.
type Notifier interface {
	Notify(ctx context.Context, m notify.Message) error
}
