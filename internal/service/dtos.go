package service

import (
	"time"

	"github.com/godilite/eval-server/internal/repository/models"
	"github.com/godilite/eval-server/internal/scoring"
)

// ItemView is a template item together with the scale its rubric matches.
type ItemView struct {
	scoring.Item
	ScoringType     scoring.ScaleID `json:"scoringType"`
	ScaleRecognized bool            `json:"scaleRecognized"`
}

type TemplateView struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Items     []ItemView `json:"items"`
	CreatedBy string     `json:"createdBy,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type TemplateInput struct {
	ID    string
	Name  string
	Items []scoring.Item
}

type SaveTemplateResult struct {
	Template      TemplateView
	WeightWarning string
}

type CampaignInput struct {
	TemplateID  string
	Title       string
	DueDate     *time.Time
	TargetUsers []string
}

type SubmissionInput struct {
	CampaignID   string
	EvaluateeUID string
	Answers      []models.Answer
}

type RaterTotal struct {
	RaterUID   string  `json:"raterUid"`
	TotalScore float64 `json:"totalScore"`
}

// EvaluationResult is the aggregated score of one evaluatee in a campaign.
type EvaluationResult struct {
	CampaignID   string       `json:"campaignId"`
	EvaluateeUID string       `json:"evaluateeUid"`
	TotalScore   float64      `json:"totalScore"`
	Raters       []RaterTotal `json:"raters"`
}

func viewTemplate(t models.Template) TemplateView {
	items := make([]ItemView, len(t.Items))
	for i, it := range t.Items {
		id, ok := scoring.ScaleOrDefault(it.Scoring)
		items[i] = ItemView{Item: it, ScoringType: id, ScaleRecognized: ok}
	}
	return TemplateView{
		ID:        t.ID,
		Name:      t.Name,
		Items:     items,
		CreatedBy: t.CreatedBy,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}
