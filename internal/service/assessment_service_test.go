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

func newAssessmentFixture(t *testing.T) (AssessmentService, SubmissionService, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	subRepo := repository.NewSubmissionRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	validate := newTestValidator()

	assessments := NewAssessmentService(assessmentRepo, subRepo, nil, validate, zerolog.Nop())
	submissions := NewSubmissionService(subRepo, assessmentRepo, validate, zerolog.Nop())
	return assessments, submissions, db
}

func assessmentPayload() dto.AssessmentCreateRequest {
	return dto.AssessmentCreateRequest{
		Title:     "Final Exam",
		TimeLimit: 90,
		Questions: []dto.QuestionInput{
			{
				Text:         "Pick the prime numbers",
				Type:         models.QuestionTypeMCQ,
				CategoryName: "arithmetic",
				MaxPoints:    10,
				Options: []dto.QuestionOptionInput{
					{Text: "2", IsCorrect: true},
					{Text: "3", IsCorrect: true},
					{Text: "4"},
				},
			},
			{
				Text:      "Prove it",
				Type:      models.QuestionTypeDescriptive,
				MaxPoints: 20,
			},
		},
	}
}

func TestAssessmentCreateAssignsPositions(t *testing.T) {
	assessments, _, db := newAssessmentFixture(t)
	admin := seedUser(t, db, models.RoleAdmin)

	created, err := assessments.Create(context.Background(), Principal{ID: admin.ID, Role: admin.Role}, assessmentPayload())
	require.NoError(t, err)
	require.Len(t, created.Questions, 2)
	require.Equal(t, 0, created.Questions[0].Position)
	require.Equal(t, 1, created.Questions[1].Position)
	require.False(t, created.Locked)
	require.Equal(t, admin.ID, created.CreatedBy)
}

func TestAssessmentStudentViewHidesCorrectness(t *testing.T) {
	assessments, _, db := newAssessmentFixture(t)
	admin := seedUser(t, db, models.RoleAdmin)
	student := seedUser(t, db, models.RoleStudent)

	created, err := assessments.Create(context.Background(), Principal{ID: admin.ID, Role: admin.Role}, assessmentPayload())
	require.NoError(t, err)

	view, err := assessments.GetByID(context.Background(), Principal{ID: student.ID, Role: student.Role}, created.ID)
	require.NoError(t, err)
	require.Len(t, view.Questions, 2)
	require.True(t, view.Questions[0].MultiAnswer)

	// The student-facing option type carries no correctness flag at all; make
	// sure the JSON shape stays that way by inspecting the DTO fields.
	for _, option := range view.Questions[0].Options {
		require.NotEmpty(t, option.Text)
		require.NotZero(t, option.ID)
	}
}

func TestAssessmentStudentListOnlyActive(t *testing.T) {
	assessments, _, db := newAssessmentFixture(t)
	admin := seedUser(t, db, models.RoleAdmin)
	student := seedUser(t, db, models.RoleStudent)
	adminPrincipal := Principal{ID: admin.ID, Role: admin.Role}

	_, err := assessments.Create(context.Background(), adminPrincipal, assessmentPayload())
	require.NoError(t, err)

	inactive := assessmentPayload()
	inactive.Title = "Retired Exam"
	off := false
	inactive.IsActive = &off
	hidden, err := assessments.Create(context.Background(), adminPrincipal, inactive)
	require.NoError(t, err)

	visible, err := assessments.List(context.Background(), Principal{ID: student.ID, Role: student.Role})
	require.NoError(t, err)
	require.Len(t, visible, 1)
	require.Equal(t, "Final Exam", visible[0].Title)

	_, err = assessments.GetByID(context.Background(), Principal{ID: student.ID, Role: student.Role}, hidden.ID)
	require.ErrorIs(t, err, ErrAssessmentNotFound)

	all, err := assessments.ListAdmin(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestAssessmentQuestionEditsLockedAfterSubmission(t *testing.T) {
	assessments, submissions, db := newAssessmentFixture(t)
	admin := seedUser(t, db, models.RoleAdmin)
	student := seedUser(t, db, models.RoleStudent)
	adminPrincipal := Principal{ID: admin.ID, Role: admin.Role}

	created, err := assessments.Create(context.Background(), adminPrincipal, assessmentPayload())
	require.NoError(t, err)

	_, err = submissions.Create(context.Background(), Principal{ID: student.ID, Role: student.Role}, dto.SubmissionCreateRequest{
		AssessmentID: created.ID,
		Content:      "answers",
	})
	require.NoError(t, err)

	newQuestions := assessmentPayload().Questions
	_, err = assessments.Update(context.Background(), adminPrincipal, created.ID, dto.AssessmentUpdateRequest{
		Questions: &newQuestions,
	})
	require.ErrorIs(t, err, ErrAssessmentLocked)

	// Metadata edits still go through.
	newTitle := "Final Exam (extended)"
	updated, err := assessments.Update(context.Background(), adminPrincipal, created.ID, dto.AssessmentUpdateRequest{
		Title: &newTitle,
	})
	require.NoError(t, err)
	require.Equal(t, newTitle, updated.Title)
	require.True(t, updated.Locked)

	require.ErrorIs(t, assessments.Delete(context.Background(), adminPrincipal, created.ID), ErrAssessmentLocked)
}

func TestAssessmentQuestionReplacementBeforeSubmissions(t *testing.T) {
	assessments, _, db := newAssessmentFixture(t)
	admin := seedUser(t, db, models.RoleAdmin)
	adminPrincipal := Principal{ID: admin.ID, Role: admin.Role}

	created, err := assessments.Create(context.Background(), adminPrincipal, assessmentPayload())
	require.NoError(t, err)

	replacement := []dto.QuestionInput{
		{
			Text:      "Single question now",
			Type:      models.QuestionTypeDescriptive,
			MaxPoints: 50,
		},
	}
	updated, err := assessments.Update(context.Background(), adminPrincipal, created.ID, dto.AssessmentUpdateRequest{
		Questions: &replacement,
	})
	require.NoError(t, err)
	require.Len(t, updated.Questions, 1)
	require.Equal(t, "Single question now", updated.Questions[0].Text)
}
