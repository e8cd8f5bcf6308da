package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/evalhub/evalhub-api/internal/dto"
	"github.com/evalhub/evalhub-api/internal/models"
	"github.com/evalhub/evalhub-api/internal/repository"
)

func intPointer(v int) *int {
	return &v
}

func newEvaluationFixture(t *testing.T) (EvaluationService, SubmissionService, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	subRepo := repository.NewSubmissionRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)

	submissions := NewSubmissionService(subRepo, assessmentRepo, newTestValidator(), zerolog.Nop())
	evaluations := NewEvaluationService(subRepo, newTestValidator(), nil, nil, nil, zerolog.Nop())
	return evaluations, submissions, db
}

func createTestSubmission(t *testing.T, svc SubmissionService, db *gorm.DB) dto.SubmissionResponse {
	t.Helper()

	student := seedUser(t, db, models.RoleStudent)
	assessment := seedAssessment(t, db, true)
	created, err := svc.Create(context.Background(), Principal{ID: student.ID, Role: student.Role}, dto.SubmissionCreateRequest{
		AssessmentID: assessment.ID,
		Content:      "answer text",
	})
	require.NoError(t, err)
	return created
}

func TestEvaluateRecordsGradeAndTimestamp(t *testing.T) {
	evaluations, submissions, db := newEvaluationFixture(t)
	submission := createTestSubmission(t, submissions, db)
	admin := seedUser(t, db, models.RoleAdmin)

	evaluated, err := evaluations.Evaluate(context.Background(), Principal{ID: admin.ID, Role: admin.Role}, submission.ID, dto.EvaluateRequest{
		Grade:    intPointer(85),
		Feedback: "solid work",
		EvaluatorNotes: map[string]string{
			"0": "clean reasoning",
		},
	})
	require.NoError(t, err)
	require.Equal(t, models.EvaluationStatusEvaluated, evaluated.EvaluationStatus)
	require.NotNil(t, evaluated.Grade)
	require.Equal(t, 85, *evaluated.Grade)
	require.Equal(t, "solid work", evaluated.Feedback)
	require.NotNil(t, evaluated.EvaluatedAt)
	require.Equal(t, "clean reasoning", evaluated.EvaluatorNotes["0"])
}

func TestEvaluateOverwritesPreviousGrade(t *testing.T) {
	evaluations, submissions, db := newEvaluationFixture(t)
	submission := createTestSubmission(t, submissions, db)
	admin := seedUser(t, db, models.RoleAdmin)
	principal := Principal{ID: admin.ID, Role: admin.Role}

	_, err := evaluations.Evaluate(context.Background(), principal, submission.ID, dto.EvaluateRequest{
		Grade:    intPointer(60),
		Feedback: "first pass",
	})
	require.NoError(t, err)

	second, err := evaluations.Evaluate(context.Background(), principal, submission.ID, dto.EvaluateRequest{
		Grade:    intPointer(90),
		Feedback: "after review",
	})
	require.NoError(t, err)
	require.Equal(t, 90, *second.Grade)
	require.Equal(t, "after review", second.Feedback)
}

func TestEvaluateLeavesChallengeUntouched(t *testing.T) {
	evaluations, submissions, db := newEvaluationFixture(t)
	submission := createTestSubmission(t, submissions, db)
	admin := seedUser(t, db, models.RoleAdmin)
	principal := Principal{ID: admin.ID, Role: admin.Role}

	_, err := evaluations.Evaluate(context.Background(), principal, submission.ID, dto.EvaluateRequest{
		Grade:    intPointer(40),
		Feedback: "needs work",
	})
	require.NoError(t, err)

	challenges := NewChallengeService(repository.NewSubmissionRepository(db), newTestValidator(), nil, nil, zerolog.Nop())
	challenged, err := challenges.File(context.Background(), Principal{ID: submission.UserID, Role: models.RoleStudent}, submission.ID, dto.ChallengeFileRequest{
		Reason: "the rubric was misapplied",
	})
	require.NoError(t, err)
	require.NotNil(t, challenged.Challenge)

	reEvaluated, err := evaluations.Evaluate(context.Background(), principal, submission.ID, dto.EvaluateRequest{
		Grade:    intPointer(70),
		Feedback: "adjusted after challenge",
	})
	require.NoError(t, err)
	require.NotNil(t, reEvaluated.Challenge)
	require.Equal(t, models.ChallengeStatusPending, reEvaluated.Challenge.Status)
	require.Equal(t, "the rubric was misapplied", reEvaluated.Challenge.Reason)
}

func TestEvaluateValidation(t *testing.T) {
	evaluations, submissions, db := newEvaluationFixture(t)
	submission := createTestSubmission(t, submissions, db)
	admin := seedUser(t, db, models.RoleAdmin)
	principal := Principal{ID: admin.ID, Role: admin.Role}

	_, err := evaluations.Evaluate(context.Background(), principal, submission.ID, dto.EvaluateRequest{
		Grade:    intPointer(101),
		Feedback: "too generous",
	})
	require.Error(t, err)

	_, err = evaluations.Evaluate(context.Background(), principal, submission.ID, dto.EvaluateRequest{
		Grade:    intPointer(50),
		Feedback: "   ",
	})
	require.Error(t, err)

	_, err = evaluations.Evaluate(context.Background(), principal, 999, dto.EvaluateRequest{
		Grade:    intPointer(50),
		Feedback: "ghost",
	})
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}
