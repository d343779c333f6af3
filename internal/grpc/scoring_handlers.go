package grpc

import (
	"context"
	"fmt"
	"strings"
	"time"

	v1 "github.com/godilite/eval-server/api/v1"
	"github.com/godilite/eval-server/internal/approval"
	"github.com/godilite/eval-server/internal/repository/models"
	"github.com/godilite/eval-server/internal/scoring"
	"github.com/godilite/eval-server/internal/service"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	defaultCacheDuration = 10 * time.Minute
	defaultGRPCTimeout   = 10 * time.Second
)

type CacheKeyType string

const cacheKeyEvaluationResult CacheKeyType = "grpc:evaluation_result"

func resultKey(campaignID, evaluateeUID string) string {
	return fmt.Sprintf("%s:%s:%s", cacheKeyEvaluationResult, campaignID, evaluateeUID)
}

// ScoringHandlers serves eval.v1.Scoring.
type ScoringHandlers struct {
	v1.UnimplementedScoringServer
	evaluations EvaluationService
	cache       Cacher
	logger      *zap.Logger
	sfGroup     singleflight.Group
	cacheTTL    time.Duration
}

// NewScoringHandlers initializes the scoring handlers. cache may be nil.
func NewScoringHandlers(evaluations EvaluationService, cache Cacher, logger *zap.Logger, ttl time.Duration) *ScoringHandlers {
	if evaluations == nil {
		panic("nil EvaluationService provided to NewScoringHandlers")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = defaultCacheDuration
	}
	return &ScoringHandlers{
		evaluations: evaluations,
		cache:       cache,
		logger:      logger.Named("grpc-scoring"),
		cacheTTL:    ttl,
	}
}

type computeTotalRequest struct {
	Answers []scoring.ScoreInput `json:"answers"`
}

func (h *ScoringHandlers) ComputeTotalScore(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in computeTotalRequest
	if err := v1.Decode(req, &in); err != nil {
		return nil, handleError(ctx, h.logger, "ComputeTotalScore", err)
	}
	total, err := h.evaluations.ComputeTotalScore(callerFrom(ctx), in.Answers)
	if err != nil {
		return nil, handleError(ctx, h.logger, "ComputeTotalScore", err)
	}
	return v1.Encode(map[string]any{"totalScore": total})
}

type presetRequest struct {
	ScoringType string `json:"scoringType"`
	ItemType    string `json:"itemType"`
}

func (h *ScoringHandlers) GenerateScoringPreset(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in presetRequest
	if err := v1.Decode(req, &in); err != nil {
		return nil, handleError(ctx, h.logger, "GenerateScoringPreset", err)
	}
	rubric, err := h.evaluations.GeneratePreset(callerFrom(ctx), in.ScoringType, in.ItemType)
	if err != nil {
		return nil, handleError(ctx, h.logger, "GenerateScoringPreset", err)
	}
	return v1.Encode(map[string]any{"scoring": rubric})
}

type saveTemplateRequest struct {
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name"`
	Items []scoring.Item `json:"items"`
}

type templateResponse struct {
	Template      service.TemplateView `json:"template"`
	WeightWarning string               `json:"weightWarning,omitempty"`
}

func (h *ScoringHandlers) SaveTemplate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in saveTemplateRequest
	if err := v1.Decode(req, &in); err != nil {
		return nil, handleError(ctx, h.logger, "SaveTemplate", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	res, err := h.evaluations.SaveTemplate(ctx, callerFrom(ctx), service.TemplateInput{ID: in.ID, Name: in.Name, Items: in.Items})
	if err != nil {
		return nil, handleError(ctx, h.logger, "SaveTemplate", err)
	}
	return v1.Encode(templateResponse{Template: res.Template, WeightWarning: res.WeightWarning})
}

type getTemplateRequest struct {
	ID string `json:"id"`
}

func (h *ScoringHandlers) GetTemplate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in getTemplateRequest
	if err := v1.Decode(req, &in); err != nil {
		return nil, handleError(ctx, h.logger, "GetTemplate", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	view, err := h.evaluations.GetTemplate(ctx, callerFrom(ctx), in.ID)
	if err != nil {
		return nil, handleError(ctx, h.logger, "GetTemplate", err)
	}
	return v1.Encode(templateResponse{Template: view})
}

type reapplyRequest struct {
	TemplateID  string `json:"templateId"`
	ScoringType string `json:"scoringType"`
}

func (h *ScoringHandlers) ReapplyTemplateScoring(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in reapplyRequest
	if err := v1.Decode(req, &in); err != nil {
		return nil, handleError(ctx, h.logger, "ReapplyTemplateScoring", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	view, err := h.evaluations.ReapplyTemplateScoring(ctx, callerFrom(ctx), in.TemplateID, in.ScoringType)
	if err != nil {
		return nil, handleError(ctx, h.logger, "ReapplyTemplateScoring", err)
	}
	return v1.Encode(templateResponse{Template: view})
}

type completeItemRequest struct {
	TemplateID string `json:"templateId"`
	ItemID     int    `json:"itemId"`
}

type completeItemResponse struct {
	Item            service.ItemView `json:"item"`
	ScaleRecognized bool             `json:"scaleRecognized"`
}

func (h *ScoringHandlers) CompleteItemScoring(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in completeItemRequest
	if err := v1.Decode(req, &in); err != nil {
		return nil, handleError(ctx, h.logger, "CompleteItemScoring", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	item, recognized, err := h.evaluations.CompleteItemScoring(ctx, callerFrom(ctx), in.TemplateID, in.ItemID)
	if err != nil {
		return nil, handleError(ctx, h.logger, "CompleteItemScoring", err)
	}
	return v1.Encode(completeItemResponse{Item: item, ScaleRecognized: recognized})
}

type createCampaignRequest struct {
	TemplateID  string   `json:"templateId"`
	Title       string   `json:"title"`
	DueDate     string   `json:"dueDate,omitempty"`
	TargetUsers []string `json:"targetUsers,omitempty"`
}

type campaignView struct {
	ID          string    `json:"id"`
	TemplateID  string    `json:"templateId"`
	Title       string    `json:"title"`
	DueDate     string    `json:"dueDate,omitempty"`
	TargetUsers []string  `json:"targetUsers"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

// parseDueDate accepts a calendar date or an RFC 3339 timestamp.
func parseDueDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: dueDate %q is not a date", service.ErrInvalidInput, s)
}

func (h *ScoringHandlers) CreateCampaign(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in createCampaignRequest
	if err := v1.Decode(req, &in); err != nil {
		return nil, handleError(ctx, h.logger, "CreateCampaign", err)
	}
	due, err := parseDueDate(in.DueDate)
	if err != nil {
		return nil, handleError(ctx, h.logger, "CreateCampaign", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	c, err := h.evaluations.CreateCampaign(ctx, callerFrom(ctx), service.CampaignInput{
		TemplateID:  in.TemplateID,
		Title:       in.Title,
		DueDate:     due,
		TargetUsers: in.TargetUsers,
	})
	if err != nil {
		return nil, handleError(ctx, h.logger, "CreateCampaign", err)
	}

	view := campaignView{
		ID:          c.ID,
		TemplateID:  c.TemplateID,
		Title:       c.Title,
		TargetUsers: c.TargetUsers,
		CreatedBy:   c.CreatedBy,
		CreatedAt:   c.CreatedAt,
	}
	if c.DueDate != nil {
		view.DueDate = c.DueDate.Format(time.DateOnly)
	}
	return v1.Encode(map[string]any{"campaign": view})
}

type answerDTO struct {
	ItemID  int     `json:"itemId"`
	Score   float64 `json:"score"`
	Grade   string  `json:"grade,omitempty"`
	Comment string  `json:"comment,omitempty"`
}

type submitAnswersRequest struct {
	CampaignID   string      `json:"campaignId"`
	EvaluateeUID string      `json:"evaluateeUid"`
	Answers      []answerDTO `json:"answers"`
}

func (h *ScoringHandlers) SubmitAnswers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in submitAnswersRequest
	if err := v1.Decode(req, &in); err != nil {
		return nil, handleError(ctx, h.logger, "SubmitAnswers", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	answers := make([]models.Answer, len(in.Answers))
	for i, a := range in.Answers {
		answers[i] = models.Answer{ItemID: a.ItemID, Score: a.Score, Grade: a.Grade, Comment: a.Comment}
	}
	err := h.evaluations.SubmitAnswers(ctx, callerFrom(ctx), service.SubmissionInput{
		CampaignID:   in.CampaignID,
		EvaluateeUID: in.EvaluateeUID,
		Answers:      answers,
	})
	if err != nil {
		return nil, handleError(ctx, h.logger, "SubmitAnswers", err)
	}

	invalidate(ctx, h.cache, h.logger, resultKey(in.CampaignID, in.EvaluateeUID))
	return ok(nil)
}

type resultRequest struct {
	CampaignID   string `json:"campaignId"`
	EvaluateeUID string `json:"evaluateeUid"`
}

func (h *ScoringHandlers) GetEvaluationResult(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in resultRequest
	if err := v1.Decode(req, &in); err != nil {
		return nil, handleError(ctx, h.logger, "GetEvaluationResult", err)
	}

	// Cached results skip the service, so the caller is checked here.
	caller := callerFrom(ctx)
	if caller == nil {
		return nil, handleError(ctx, h.logger, "GetEvaluationResult", approval.ErrUnauthenticated)
	}
	if !caller.Approved {
		return nil, handleError(ctx, h.logger, "GetEvaluationResult",
			&approval.DeniedError{Reason: approval.ReasonCallerNotApproved})
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	key := resultKey(in.CampaignID, in.EvaluateeUID)
	res, err := FindAndCache(ctx, h.cache, &h.sfGroup, key, h.cacheTTL, h.logger, func(fetchCtx context.Context) (service.EvaluationResult, error) {
		return h.evaluations.GetEvaluationResult(fetchCtx, caller, in.CampaignID, in.EvaluateeUID)
	})
	if err != nil {
		return nil, handleError(ctx, h.logger, "GetEvaluationResult", err)
	}
	return v1.Encode(res)
}
