package mocks

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/godilite/eval-server/internal/approval"
	"github.com/godilite/eval-server/internal/repository/models"
	"github.com/godilite/eval-server/internal/scoring"
	"github.com/godilite/eval-server/internal/service"
)

// MockEvaluationService is a mock implementation of the EvaluationService
// interface for testing the handler layer.
type MockEvaluationService struct {
	ComputeTotalScoreFunc      func(caller *approval.Caller, inputs []scoring.ScoreInput) (float64, error)
	GeneratePresetFunc         func(caller *approval.Caller, scale, itemType string) ([]scoring.Scoring, error)
	SaveTemplateFunc           func(ctx context.Context, caller *approval.Caller, in service.TemplateInput) (service.SaveTemplateResult, error)
	GetTemplateFunc            func(ctx context.Context, caller *approval.Caller, id string) (service.TemplateView, error)
	ReapplyTemplateScoringFunc func(ctx context.Context, caller *approval.Caller, templateID, scale string) (service.TemplateView, error)
	CompleteItemScoringFunc    func(ctx context.Context, caller *approval.Caller, templateID string, itemID int) (service.ItemView, bool, error)
	CreateCampaignFunc         func(ctx context.Context, caller *approval.Caller, in service.CampaignInput) (models.Campaign, error)
	SubmitAnswersFunc          func(ctx context.Context, caller *approval.Caller, in service.SubmissionInput) error
	GetEvaluationResultFunc    func(ctx context.Context, caller *approval.Caller, campaignID, evaluateeUID string) (service.EvaluationResult, error)

	ResultCalls atomic.Int32
}

var errNotImplemented = errors.New("mock function not implemented")

func (m *MockEvaluationService) ComputeTotalScore(caller *approval.Caller, inputs []scoring.ScoreInput) (float64, error) {
	if m.ComputeTotalScoreFunc != nil {
		return m.ComputeTotalScoreFunc(caller, inputs)
	}
	return 0, errNotImplemented
}

func (m *MockEvaluationService) GeneratePreset(caller *approval.Caller, scale, itemType string) ([]scoring.Scoring, error) {
	if m.GeneratePresetFunc != nil {
		return m.GeneratePresetFunc(caller, scale, itemType)
	}
	return nil, errNotImplemented
}

func (m *MockEvaluationService) SaveTemplate(ctx context.Context, caller *approval.Caller, in service.TemplateInput) (service.SaveTemplateResult, error) {
	if m.SaveTemplateFunc != nil {
		return m.SaveTemplateFunc(ctx, caller, in)
	}
	return service.SaveTemplateResult{}, errNotImplemented
}

func (m *MockEvaluationService) GetTemplate(ctx context.Context, caller *approval.Caller, id string) (service.TemplateView, error) {
	if m.GetTemplateFunc != nil {
		return m.GetTemplateFunc(ctx, caller, id)
	}
	return service.TemplateView{}, errNotImplemented
}

func (m *MockEvaluationService) ReapplyTemplateScoring(ctx context.Context, caller *approval.Caller, templateID, scale string) (service.TemplateView, error) {
	if m.ReapplyTemplateScoringFunc != nil {
		return m.ReapplyTemplateScoringFunc(ctx, caller, templateID, scale)
	}
	return service.TemplateView{}, errNotImplemented
}

func (m *MockEvaluationService) CompleteItemScoring(ctx context.Context, caller *approval.Caller, templateID string, itemID int) (service.ItemView, bool, error) {
	if m.CompleteItemScoringFunc != nil {
		return m.CompleteItemScoringFunc(ctx, caller, templateID, itemID)
	}
	return service.ItemView{}, false, errNotImplemented
}

func (m *MockEvaluationService) CreateCampaign(ctx context.Context, caller *approval.Caller, in service.CampaignInput) (models.Campaign, error) {
	if m.CreateCampaignFunc != nil {
		return m.CreateCampaignFunc(ctx, caller, in)
	}
	return models.Campaign{}, errNotImplemented
}

func (m *MockEvaluationService) SubmitAnswers(ctx context.Context, caller *approval.Caller, in service.SubmissionInput) error {
	if m.SubmitAnswersFunc != nil {
		return m.SubmitAnswersFunc(ctx, caller, in)
	}
	return errNotImplemented
}

func (m *MockEvaluationService) GetEvaluationResult(ctx context.Context, caller *approval.Caller, campaignID, evaluateeUID string) (service.EvaluationResult, error) {
	m.ResultCalls.Add(1)
	if m.GetEvaluationResultFunc != nil {
		return m.GetEvaluationResultFunc(ctx, caller, campaignID, evaluateeUID)
	}
	return service.EvaluationResult{}, errNotImplemented
}

// MockApprover is a mock implementation of the Approver interface.
type MockApprover struct {
	DecideFunc        func(ctx context.Context, caller *approval.Caller, in approval.Input) (approval.Outcome, error)
	RequestAccessFunc func(ctx context.Context, caller *approval.Caller, f approval.Filing) (approval.AccessRequest, error)
	ListRequestsFunc  func(ctx context.Context, caller *approval.Caller, status approval.Status) ([]approval.AccessRequest, error)
}

func (m *MockApprover) Decide(ctx context.Context, caller *approval.Caller, in approval.Input) (approval.Outcome, error) {
	if m.DecideFunc != nil {
		return m.DecideFunc(ctx, caller, in)
	}
	return approval.Outcome{}, errNotImplemented
}

func (m *MockApprover) RequestAccess(ctx context.Context, caller *approval.Caller, f approval.Filing) (approval.AccessRequest, error) {
	if m.RequestAccessFunc != nil {
		return m.RequestAccessFunc(ctx, caller, f)
	}
	return approval.AccessRequest{}, errNotImplemented
}

func (m *MockApprover) ListRequests(ctx context.Context, caller *approval.Caller, status approval.Status) ([]approval.AccessRequest, error) {
	if m.ListRequestsFunc != nil {
		return m.ListRequestsFunc(ctx, caller, status)
	}
	return nil, errNotImplemented
}
