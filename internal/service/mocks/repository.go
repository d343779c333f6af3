package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/godilite/eval-server/internal/notify"
	"github.com/godilite/eval-server/internal/repository/models"
)

// MockEvaluationRepository is a mock implementation of the
// EvaluationRepository interface for testing the service layer.
type MockEvaluationRepository struct {
	SaveTemplateFunc     func(ctx context.Context, t models.Template) error
	GetTemplateFunc      func(ctx context.Context, id string) (models.Template, error)
	CreateCampaignFunc   func(ctx context.Context, c models.Campaign) error
	GetCampaignFunc      func(ctx context.Context, id string) (models.Campaign, error)
	InsertSubmissionFunc func(ctx context.Context, s models.Submission) error
	GetAnswersFunc       func(ctx context.Context, campaignID, evaluateeUID string) ([]models.RaterAnswer, error)

	mu          sync.Mutex
	Saved       []models.Template
	Campaigns   []models.Campaign
	Submissions []models.Submission
}

func (m *MockEvaluationRepository) SaveTemplate(ctx context.Context, t models.Template) error {
	m.mu.Lock()
	m.Saved = append(m.Saved, t)
	m.mu.Unlock()
	if m.SaveTemplateFunc != nil {
		return m.SaveTemplateFunc(ctx, t)
	}
	return nil
}

func (m *MockEvaluationRepository) GetTemplate(ctx context.Context, id string) (models.Template, error) {
	if m.GetTemplateFunc != nil {
		return m.GetTemplateFunc(ctx, id)
	}
	return models.Template{}, models.ErrNotFound
}

func (m *MockEvaluationRepository) CreateCampaign(ctx context.Context, c models.Campaign) error {
	m.mu.Lock()
	m.Campaigns = append(m.Campaigns, c)
	m.mu.Unlock()
	if m.CreateCampaignFunc != nil {
		return m.CreateCampaignFunc(ctx, c)
	}
	return nil
}

func (m *MockEvaluationRepository) GetCampaign(ctx context.Context, id string) (models.Campaign, error) {
	if m.GetCampaignFunc != nil {
		return m.GetCampaignFunc(ctx, id)
	}
	return models.Campaign{}, models.ErrNotFound
}

func (m *MockEvaluationRepository) InsertSubmission(ctx context.Context, s models.Submission) error {
	m.mu.Lock()
	m.Submissions = append(m.Submissions, s)
	m.mu.Unlock()
	if m.InsertSubmissionFunc != nil {
		return m.InsertSubmissionFunc(ctx, s)
	}
	return nil
}

func (m *MockEvaluationRepository) GetAnswers(ctx context.Context, campaignID, evaluateeUID string) ([]models.RaterAnswer, error) {
	if m.GetAnswersFunc != nil {
		return m.GetAnswersFunc(ctx, campaignID, evaluateeUID)
	}
	return nil, errors.New("GetAnswersFunc not implemented")
}

// MockNotifier records every message it is asked to deliver.
type MockNotifier struct {
	NotifyFunc func(ctx context.Context, m notify.Message) error

	mu       sync.Mutex
	Messages []notify.Message
}

func (n *MockNotifier) Notify(ctx context.Context, m notify.Message) error {
	n.mu.Lock()
	n.Messages = append(n.Messages, m)
	n.mu.Unlock()
	if n.NotifyFunc != nil {
		return n.NotifyFunc(ctx, m)
	}
	return nil
}
