package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/godilite/eval-server/internal/approval"
	"github.com/godilite/eval-server/internal/notify"
	"github.com/godilite/eval-server/internal/repository/models"
	"github.com/godilite/eval-server/internal/scoring"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	dbTimeout     = 1 * time.Second
	notifyTimeout = 5 * time.Second
)

var (
	ErrNoAnswers      = errors.New("no answers found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrStorageFailure = errors.New("storage failure")
)

// EvaluationService manages templates, campaigns and answer aggregation.
type EvaluationService struct {
	storage  EvaluationRepository
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
}

// NewEvaluationService creates a new EvaluationService. notifier may be nil,
// in which case campaign notifications are skipped.
func NewEvaluationService(storage EvaluationRepository, notifier Notifier, logger *zap.Logger) *EvaluationService {
	if storage == nil {
		panic("storage must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	return &EvaluationService{
		storage:  storage,
		notifier: notifier,
		logger:   logger.Named("evaluation"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func requireCaller(c *approval.Caller) error {
	if c == nil {
		return approval.ErrUnauthenticated
	}
	return nil
}

func requireApproved(c *approval.Caller) error {
	if err := requireCaller(c); err != nil {
		return err
	}
	if !c.Approved {
		return &approval.DeniedError{Reason: approval.ReasonCallerNotApproved}
	}
	return nil
}

func requireApprover(c *approval.Caller) error {
	if err := requireApproved(c); err != nil {
		return err
	}
	if !c.Role.CanApprove() {
		return &approval.DeniedError{Reason: approval.ReasonNotApprover}
	}
	return nil
}

func storageError(op string, err error) error {
	if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrAlreadyExists) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrStorageFailure, op, err)
}

// ComputeTotalScore aggregates ad-hoc answers for an authenticated caller.
func (s *EvaluationService) ComputeTotalScore(caller *approval.Caller, inputs []scoring.ScoreInput) (float64, error) {
	if err := requireCaller(caller); err != nil {
		return 0, err
	}
	return scoring.ComputeTotalScore(inputs), nil
}

// GeneratePreset returns the rubric for a scale and item type.
func (s *EvaluationService) GeneratePreset(caller *approval.Caller, scale, itemType string) ([]scoring.Scoring, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	id, err := scoring.ParseScaleID(scale)
	if err != nil {
		return nil, err
	}
	t, err := scoring.ParseItemType(itemType)
	if err != nil {
		return nil, err
	}
	return scoring.GeneratePreset(id, t)
}

// SaveTemplate validates and stores a template. Item types are normalized to
// their stored labels. Weights that do not sum to 100 only produce a warning.
func (s *EvaluationService) SaveTemplate(ctx context.Context, caller *approval.Caller, in TemplateInput) (SaveTemplateResult, error) {
	if err := requireApprover(caller); err != nil {
		return SaveTemplateResult{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return SaveTemplateResult{}, fmt.Errorf("%w: template name is required", ErrInvalidInput)
	}

	items := make([]scoring.Item, len(in.Items))
	for i, it := range in.Items {
		t, err := scoring.ParseItemType(string(it.Type))
		if err != nil {
			return SaveTemplateResult{}, fmt.Errorf("%w: item %d: %w", scoring.ErrInvalidItem, it.ID, err)
		}
		it.Type = t
		items[i] = it
	}
	if err := scoring.ValidateItems(items); err != nil {
		return SaveTemplateResult{}, err
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	now := s.now().UTC()
	t := models.Template{
		ID:        in.ID,
		Name:      name,
		Items:     items,
		CreatedBy: caller.UID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if t.ID == "" {
		t.ID = s.newID()
	} else {
		existing, err := s.storage.GetTemplate(dbCtx, t.ID)
		switch {
		case err == nil:
			t.CreatedBy = existing.CreatedBy
			t.CreatedAt = existing.CreatedAt
		case !errors.Is(err, models.ErrNotFound):
			return SaveTemplateResult{}, storageError("get template", err)
		}
	}

	if err := s.storage.SaveTemplate(dbCtx, t); err != nil {
		return SaveTemplateResult{}, storageError("save template", err)
	}

	warning := scoring.CheckWeights(items)
	if warning != "" {
		s.logger.Warn("template weights inconsistent",
			zap.String("template_id", t.ID),
			zap.Int("weight_sum", scoring.WeightSum(items)))
	}
	s.logger.Info("template saved",
		zap.String("template_id", t.ID),
		zap.Int("items", len(items)),
		zap.String("by", caller.UID))

	return SaveTemplateResult{Template: viewTemplate(t), WeightWarning: warning}, nil
}

func (s *EvaluationService) GetTemplate(ctx context.Context, caller *approval.Caller, id string) (TemplateView, error) {
	if err := requireApproved(caller); err != nil {
		return TemplateView{}, err
	}
	if id == "" {
		return TemplateView{}, fmt.Errorf("%w: template id is required", ErrInvalidInput)
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	t, err := s.storage.GetTemplate(dbCtx, id)
	if err != nil {
		return TemplateView{}, storageError("get template", err)
	}
	return viewTemplate(t), nil
}

// ReapplyTemplateScoring regenerates every item's rubric from one scale and
// persists the template.
func (s *EvaluationService) ReapplyTemplateScoring(ctx context.Context, caller *approval.Caller, templateID, scale string) (TemplateView, error) {
	if err := requireApprover(caller); err != nil {
		return TemplateView{}, err
	}
	id, err := scoring.ParseScaleID(scale)
	if err != nil {
		return TemplateView{}, err
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	t, err := s.storage.GetTemplate(dbCtx, templateID)
	if err != nil {
		return TemplateView{}, storageError("get template", err)
	}
	items, err := scoring.ReapplyPresets(t.Items, id)
	if err != nil {
		return TemplateView{}, err
	}
	t.Items = items
	t.UpdatedAt = s.now().UTC()

	if err := s.storage.SaveTemplate(dbCtx, t); err != nil {
		return TemplateView{}, storageError("save template", err)
	}

	s.logger.Info("template rubric reapplied",
		zap.String("template_id", t.ID),
		zap.String("scale", string(id)))
	return viewTemplate(t), nil
}

// CompleteItemScoring regenerates one item's rubric from the scale it
// appears to use. recognized is false when the default scale was applied.
func (s *EvaluationService) CompleteItemScoring(ctx context.Context, caller *approval.Caller, templateID string, itemID int) (item ItemView, recognized bool, err error) {
	if err := requireApprover(caller); err != nil {
		return ItemView{}, false, err
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	t, err := s.storage.GetTemplate(dbCtx, templateID)
	if err != nil {
		return ItemView{}, false, storageError("get template", err)
	}

	idx := -1
	for i, it := range t.Items {
		if it.ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ItemView{}, false, fmt.Errorf("item %d in template %q: %w", itemID, templateID, models.ErrNotFound)
	}

	completed, recognized, err := scoring.CompleteItem(t.Items[idx])
	if err != nil {
		return ItemView{}, false, err
	}
	t.Items[idx] = completed
	t.UpdatedAt = s.now().UTC()

	if err := s.storage.SaveTemplate(dbCtx, t); err != nil {
		return ItemView{}, false, storageError("save template", err)
	}

	id, _ := scoring.DetectScale(completed.Scoring)
	return ItemView{Item: completed, ScoringType: id, ScaleRecognized: true}, recognized, nil
}

// CreateCampaign opens an evaluation round for a template and notifies the
// targeted users. Notification failures are logged and do not fail the call.
func (s *EvaluationService) CreateCampaign(ctx context.Context, caller *approval.Caller, in CampaignInput) (models.Campaign, error) {
	if err := requireApprover(caller); err != nil {
		return models.Campaign{}, err
	}
	title := strings.TrimSpace(in.Title)
	if in.TemplateID == "" || title == "" {
		return models.Campaign{}, fmt.Errorf("%w: templateId and title are required", ErrInvalidInput)
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := s.storage.GetTemplate(dbCtx, in.TemplateID); err != nil {
		return models.Campaign{}, storageError("get template", err)
	}

	targets := in.TargetUsers
	if targets == nil {
		targets = []string{}
	}
	c := models.Campaign{
		ID:          s.newID(),
		TemplateID:  in.TemplateID,
		Title:       title,
		DueDate:     in.DueDate,
		TargetUsers: targets,
		CreatedBy:   caller.UID,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.storage.CreateCampaign(dbCtx, c); err != nil {
		return models.Campaign{}, storageError("create campaign", err)
	}

	s.logger.Info("campaign created",
		zap.String("campaign_id", c.ID),
		zap.String("template_id", c.TemplateID),
		zap.Int("targets", len(c.TargetUsers)))

	s.announce(ctx, c)
	return c, nil
}

func (s *EvaluationService) announce(ctx context.Context, c models.Campaign) {
	if s.notifier == nil {
		return
	}
	msg := notify.Message{
		Type:        "campaign",
		Title:       c.Title,
		Message:     fmt.Sprintf("새 평가가 시작되었습니다: %s", c.Title),
		TargetUsers: c.TargetUsers,
	}
	if c.DueDate != nil {
		msg.DueDate = c.DueDate.Format("2006-01-02")
	}

	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := s.notifier.Notify(nctx, msg); err != nil {
		s.logger.Warn("campaign notification failed",
			zap.String("campaign_id", c.ID),
			zap.Error(err))
	}
}

// SubmitAnswers stores one rater's answers for an evaluatee. When a grade is
// given it must exist in the item's rubric and its rubric score is used.
func (s *EvaluationService) SubmitAnswers(ctx context.Context, caller *approval.Caller, in SubmissionInput) error {
	if err := requireApproved(caller); err != nil {
		return err
	}
	if in.CampaignID == "" || in.EvaluateeUID == "" {
		return fmt.Errorf("%w: campaignId and evaluateeUid are required", ErrInvalidInput)
	}
	if len(in.Answers) == 0 {
		return fmt.Errorf("%w: at least one answer is required", ErrInvalidInput)
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	c, err := s.storage.GetCampaign(dbCtx, in.CampaignID)
	if err != nil {
		return storageError("get campaign", err)
	}
	t, err := s.storage.GetTemplate(dbCtx, c.TemplateID)
	if err != nil {
		return storageError("get template", err)
	}

	byID := make(map[int]scoring.Item, len(t.Items))
	for _, it := range t.Items {
		byID[it.ID] = it
	}

	answers := make([]models.Answer, len(in.Answers))
	seen := make(map[int]struct{}, len(in.Answers))
	for i, a := range in.Answers {
		it, ok := byID[a.ItemID]
		if !ok {
			return fmt.Errorf("%w: item %d is not part of template %q", ErrInvalidInput, a.ItemID, t.ID)
		}
		if _, dup := seen[a.ItemID]; dup {
			return fmt.Errorf("%w: item %d answered twice", ErrInvalidInput, a.ItemID)
		}
		seen[a.ItemID] = struct{}{}

		if a.Grade != "" {
			score, found := scoring.ScoreFor(it.Scoring, a.Grade)
			if !found && !hasGrade(it.Scoring, a.Grade) {
				return fmt.Errorf("%w: grade %q not in rubric of item %d", ErrInvalidInput, a.Grade, a.ItemID)
			}
			if found {
				a.Score = score
			}
		}
		if math.IsNaN(a.Score) || math.IsInf(a.Score, 0) {
			return fmt.Errorf("%w: item %d score is not a finite number", ErrInvalidInput, a.ItemID)
		}
		answers[i] = a
	}

	sub := models.Submission{
		CampaignID:   in.CampaignID,
		EvaluateeUID: in.EvaluateeUID,
		RaterUID:     caller.UID,
		Answers:      answers,
		SubmittedAt:  s.now().UTC(),
	}
	if err := s.storage.InsertSubmission(dbCtx, sub); err != nil {
		return storageError("insert submission", err)
	}

	s.logger.Info("answers submitted",
		zap.String("campaign_id", in.CampaignID),
		zap.String("evaluatee", in.EvaluateeUID),
		zap.String("rater", caller.UID),
		zap.Int("answers", len(answers)))
	return nil
}

func hasGrade(rubric []scoring.Scoring, grade string) bool {
	for _, s := range rubric {
		if s.Grade == grade {
			return true
		}
	}
	return false
}

// GetEvaluationResult totals each rater's answers with the template weights
// and averages the rater totals.
func (s *EvaluationService) GetEvaluationResult(ctx context.Context, caller *approval.Caller, campaignID, evaluateeUID string) (EvaluationResult, error) {
	if err := requireApproved(caller); err != nil {
		return EvaluationResult{}, err
	}
	if campaignID == "" || evaluateeUID == "" {
		return EvaluationResult{}, fmt.Errorf("%w: campaignId and evaluateeUid are required", ErrInvalidInput)
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	c, err := s.storage.GetCampaign(dbCtx, campaignID)
	if err != nil {
		return EvaluationResult{}, storageError("get campaign", err)
	}
	t, err := s.storage.GetTemplate(dbCtx, c.TemplateID)
	if err != nil {
		return EvaluationResult{}, storageError("get template", err)
	}
	rows, err := s.storage.GetAnswers(dbCtx, campaignID, evaluateeUID)
	if err != nil {
		return EvaluationResult{}, storageError("get answers", err)
	}
	if len(rows) == 0 {
		return EvaluationResult{}, ErrNoAnswers
	}

	weights := make(map[int]float64, len(t.Items))
	for _, it := range t.Items {
		weights[it.ID] = float64(it.Weight)
	}

	perRater := make(map[string][]scoring.ScoreInput)
	for _, r := range rows {
		perRater[r.RaterUID] = append(perRater[r.RaterUID], scoring.ScoreInput{
			Score:  r.Score,
			Weight: weights[r.ItemID],
		})
	}

	raters := make([]RaterTotal, 0, len(perRater))
	for uid, inputs := range perRater {
		raters = append(raters, RaterTotal{RaterUID: uid, TotalScore: scoring.ComputeTotalScore(inputs)})
	}
	sort.Slice(raters, func(i, j int) bool { return raters[i].RaterUID < raters[j].RaterUID })

	// Summed in rater order so rounding does not depend on map iteration.
	totals := make([]scoring.ScoreInput, 0, len(raters))
	for _, r := range raters {
		totals = append(totals, scoring.ScoreInput{Score: r.TotalScore})
	}

	return EvaluationResult{
		CampaignID:   campaignID,
		EvaluateeUID: evaluateeUID,
		TotalScore:   scoring.ComputeTotalScore(totals),
		Raters:       raters,
	}, nil
}
