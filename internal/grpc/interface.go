package grpc

import (
	"context"
	"time"

	"github.com/godilite/eval-server/internal/approval"
	"github.com/godilite/eval-server/internal/repository/models"
	"github.com/godilite/eval-server/internal/scoring"
	"github.com/godilite/eval-server/internal/service"
)

// Cacher defines the interface for cache operations.
type Cacher interface {
	Close() error
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Approver decides and lists access requests.
type Approver interface {
	Decide(ctx context.Context, caller *approval.Caller, in approval.Input) (approval.Outcome, error)
	RequestAccess(ctx context.Context, caller *approval.Caller, f approval.Filing) (approval.AccessRequest, error)
	ListRequests(ctx context.Context, caller *approval.Caller, status approval.Status) ([]approval.AccessRequest, error)
}

type EvaluationService interface {
	ComputeTotalScore(caller *approval.Caller, inputs []scoring.ScoreInput) (float64, error)
	GeneratePreset(caller *approval.Caller, scale, itemType string) ([]scoring.Scoring, error)
	SaveTemplate(ctx context.Context, caller *approval.Caller, in service.TemplateInput) (service.SaveTemplateResult, error)
	GetTemplate(ctx context.Context, caller *approval.Caller, id string) (service.TemplateView, error)
	ReapplyTemplateScoring(ctx context.Context, caller *approval.Caller, templateID, scale string) (service.TemplateView, error)
	CompleteItemScoring(ctx context.Context, caller *approval.Caller, templateID string, itemID int) (service.ItemView, bool, error)
	CreateCampaign(ctx context.Context, caller *approval.Caller, in service.CampaignInput) (models.Campaign, error)
	SubmitAnswers(ctx context.Context, caller *approval.Caller, in service.SubmissionInput) error
	GetEvaluationResult(ctx context.Context, caller *approval.Caller, campaignID, evaluateeUID string) (service.EvaluationResult, error)
}
