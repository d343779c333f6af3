package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/godilite/eval-server/internal/approval"
	"github.com/godilite/eval-server/internal/repository"
	"github.com/godilite/eval-server/internal/repository/models"
	"github.com/godilite/eval-server/internal/scoring"
	dbbuilder "github.com/godilite/eval-server/pkg/database"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := dbbuilder.New(
		dbbuilder.WithDriver(dbbuilder.DriverSQLite),
		dbbuilder.WithDataSource(":memory:"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, dbbuilder.Migrate(context.Background(), db.DB, dbbuilder.DriverSQLite, zap.NewNop()))
	return db
}

func TestAccessRequestRepository_Integration(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewAccessRequestRepository(setupTestDB(t))
	created := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	t.Run("missing request", func(t *testing.T) {
		_, err := repo.GetAccessRequest(ctx, "nobody")
		assert.ErrorIs(t, err, approval.ErrNotFound)
	})

	t.Run("save and load", func(t *testing.T) {
		require.NoError(t, repo.SaveAccessRequest(ctx, approval.AccessRequest{
			UID: "u1", Email: "u1@example.com", Status: approval.StatusPending,
			Role: "TEAM_LEADER", TeamID: "t1", CreatedAt: created,
		}))
		require.NoError(t, repo.SaveAccessRequest(ctx, approval.AccessRequest{
			UID: "u2", Status: approval.StatusPending, TeamID: "t2", CreatedAt: created.Add(time.Minute),
		}))

		got, err := repo.GetAccessRequest(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, approval.StatusPending, got.Status)
		assert.Equal(t, "TEAM_LEADER", got.Role)
		assert.Equal(t, "t1", got.TeamID)
		assert.Nil(t, got.DecidedAt)
		assert.True(t, created.Equal(got.CreatedAt))
	})

	t.Run("approve writes resolved fields", func(t *testing.T) {
		decided := created.Add(time.Hour)
		require.NoError(t, repo.UpdateAccessRequest(ctx, "u1", approval.Decision{
			Status: approval.StatusApproved, Role: "USER", HQID: "hq", TeamID: "t1",
			DecidedByUID: "lead", DecidedByEmail: "lead@example.com", DecidedAt: decided,
		}))

		got, err := repo.GetAccessRequest(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, approval.StatusApproved, got.Status)
		assert.Equal(t, "USER", got.Role)
		assert.Equal(t, "hq", got.HQID)
		assert.Equal(t, "lead", got.DecidedByUID)
		require.NotNil(t, got.DecidedAt)
		assert.True(t, decided.Equal(*got.DecidedAt))
	})

	t.Run("reject keeps role and team", func(t *testing.T) {
		require.NoError(t, repo.UpdateAccessRequest(ctx, "u2", approval.Decision{
			Status: approval.StatusRejected, DecidedByUID: "admin", DecidedAt: created,
		}))

		got, err := repo.GetAccessRequest(ctx, "u2")
		require.NoError(t, err)
		assert.Equal(t, approval.StatusRejected, got.Status)
		assert.Equal(t, "t2", got.TeamID)
	})

	t.Run("update of missing request", func(t *testing.T) {
		err := repo.UpdateAccessRequest(ctx, "ghost", approval.Decision{Status: approval.StatusRejected})
		assert.ErrorIs(t, err, approval.ErrNotFound)
	})

	t.Run("list filters", func(t *testing.T) {
		all, err := repo.ListAccessRequests(ctx, "", "")
		require.NoError(t, err)
		assert.Len(t, all, 2)

		team, err := repo.ListAccessRequests(ctx, "", "t2")
		require.NoError(t, err)
		require.Len(t, team, 1)
		assert.Equal(t, "u2", team[0].UID)

		pending, err := repo.ListAccessRequests(ctx, approval.StatusPending, "")
		require.NoError(t, err)
		assert.Empty(t, pending)
	})
}

func TestClaimsRepository_Integration(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewClaimsRepository(setupTestDB(t))

	require.NoError(t, repo.SetClaims(ctx, "u1", approval.Claims{Approved: true, Role: "USER", TeamID: "t1", HQID: "hq"}))
	require.NoError(t, repo.SetClaims(ctx, "u1", approval.Claims{Approved: false}))

	got, err := repo.GetClaims(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"approved": false}, got)

	_, err = repo.GetClaims(ctx, "u2")
	assert.ErrorIs(t, err, approval.ErrNotFound)
}

func TestEvaluationRepository_Integration(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewEvaluationRepository(setupTestDB(t))
	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	rubric, err := scoring.GeneratePreset(scoring.Scale5Grade, scoring.Quantitative)
	require.NoError(t, err)
	tpl := models.Template{
		ID:   "tpl-1",
		Name: "2025 H1",
		Items: []scoring.Item{
			{ID: 1, Type: scoring.Quantitative, Weight: 60, Scoring: rubric},
			{ID: 2, Type: scoring.Qualitative, Weight: 40},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	t.Run("template round trip keeps rubric order", func(t *testing.T) {
		require.NoError(t, repo.SaveTemplate(ctx, tpl))

		got, err := repo.GetTemplate(ctx, "tpl-1")
		require.NoError(t, err)
		assert.Equal(t, tpl.Name, got.Name)
		require.Len(t, got.Items, 2)
		assert.Equal(t, rubric, got.Items[0].Scoring)
	})

	t.Run("missing template", func(t *testing.T) {
		_, err := repo.GetTemplate(ctx, "nope")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("campaign round trip", func(t *testing.T) {
		due := now.Add(14 * 24 * time.Hour)
		require.NoError(t, repo.CreateCampaign(ctx, models.Campaign{
			ID: "c1", TemplateID: "tpl-1", Title: "H1 review", DueDate: &due,
			TargetUsers: []string{"u1", "u2"}, CreatedBy: "admin", CreatedAt: now,
		}))

		got, err := repo.GetCampaign(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, []string{"u1", "u2"}, got.TargetUsers)
		require.NotNil(t, got.DueDate)
		assert.True(t, due.Equal(*got.DueDate))

		err = repo.CreateCampaign(ctx, models.Campaign{ID: "c1", TemplateID: "tpl-1", Title: "dup", CreatedAt: now})
		assert.ErrorIs(t, err, models.ErrAlreadyExists)
	})

	t.Run("answers are append-only", func(t *testing.T) {
		sub := models.Submission{
			CampaignID: "c1", EvaluateeUID: "u1", RaterUID: "lead",
			Answers: []models.Answer{
				{ItemID: 1, Score: 90, Grade: "A"},
				{ItemID: 2, Score: 80, Grade: "B", Comment: "steady"},
			},
			SubmittedAt: now,
		}
		require.NoError(t, repo.InsertSubmission(ctx, sub))

		err := repo.InsertSubmission(ctx, sub)
		assert.True(t, errors.Is(err, models.ErrAlreadyExists))

		answers, err := repo.GetAnswers(ctx, "c1", "u1")
		require.NoError(t, err)
		require.Len(t, answers, 2)
		assert.Equal(t, "lead", answers[0].RaterUID)
		assert.Equal(t, 90.0, answers[0].Score)
		assert.Equal(t, "steady", answers[1].Comment)
	})

	t.Run("no answers yet", func(t *testing.T) {
		answers, err := repo.GetAnswers(ctx, "c1", "u2")
		require.NoError(t, err)
		assert.Empty(t, answers)
	})
}
