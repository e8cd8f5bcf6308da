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

type challengeFixture struct {
	db          *gorm.DB
	challenges  ChallengeService
	evaluations EvaluationService
	submissions SubmissionService
	student     models.User
	admin       models.User
}

func newChallengeFixture(t *testing.T) *challengeFixture {
	t.Helper()

	db := newTestDB(t)
	subRepo := repository.NewSubmissionRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	validate := newTestValidator()

	fx := &challengeFixture{
		db:          db,
		challenges:  NewChallengeService(subRepo, validate, nil, nil, zerolog.Nop()),
		evaluations: NewEvaluationService(subRepo, validate, nil, nil, nil, zerolog.Nop()),
		submissions: NewSubmissionService(subRepo, assessmentRepo, validate, zerolog.Nop()),
		student:     seedUser(t, db, models.RoleStudent),
		admin:       seedUser(t, db, models.RoleAdmin),
	}
	return fx
}

func (fx *challengeFixture) studentPrincipal() Principal {
	return Principal{ID: fx.student.ID, Role: fx.student.Role}
}

func (fx *challengeFixture) adminPrincipal() Principal {
	return Principal{ID: fx.admin.ID, Role: fx.admin.Role}
}

func (fx *challengeFixture) evaluatedSubmission(t *testing.T) dto.SubmissionResponse {
	t.Helper()

	assessment := seedAssessment(t, fx.db, true)
	created, err := fx.submissions.Create(context.Background(), fx.studentPrincipal(), dto.SubmissionCreateRequest{
		AssessmentID: assessment.ID,
		Content:      "answer",
	})
	require.NoError(t, err)

	evaluated, err := fx.evaluations.Evaluate(context.Background(), fx.adminPrincipal(), created.ID, dto.EvaluateRequest{
		Grade:    intPointer(55),
		Feedback: "initial grade",
	})
	require.NoError(t, err)
	return evaluated
}

func TestChallengeFileRequiresEvaluation(t *testing.T) {
	fx := newChallengeFixture(t)
	assessment := seedAssessment(t, fx.db, true)

	created, err := fx.submissions.Create(context.Background(), fx.studentPrincipal(), dto.SubmissionCreateRequest{
		AssessmentID: assessment.ID,
		Content:      "answer",
	})
	require.NoError(t, err)

	_, err = fx.challenges.File(context.Background(), fx.studentPrincipal(), created.ID, dto.ChallengeFileRequest{Reason: "too low"})
	require.ErrorIs(t, err, ErrSubmissionNotEvaluated)
}

func TestChallengeFileRequiresOwnership(t *testing.T) {
	fx := newChallengeFixture(t)
	submission := fx.evaluatedSubmission(t)

	other := Principal{ID: fx.student.ID + 500, Role: models.RoleStudent}
	_, err := fx.challenges.File(context.Background(), other, submission.ID, dto.ChallengeFileRequest{Reason: "not mine but still"})
	require.ErrorIs(t, err, ErrNotResourceOwner)
}

func TestChallengeFileSetsPendingState(t *testing.T) {
	fx := newChallengeFixture(t)
	submission := fx.evaluatedSubmission(t)

	challenged, err := fx.challenges.File(context.Background(), fx.studentPrincipal(), submission.ID, dto.ChallengeFileRequest{
		Reason: "question 2 was graded as wrong but matches the rubric",
	})
	require.NoError(t, err)
	require.NotNil(t, challenged.Challenge)
	require.Equal(t, models.ChallengeStatusPending, challenged.Challenge.Status)
	require.NotNil(t, challenged.Challenge.ChallengeDate)
	require.Nil(t, challenged.Challenge.ResolvedDate)
}

func TestChallengeFileRejectsSecondChallenge(t *testing.T) {
	fx := newChallengeFixture(t)
	submission := fx.evaluatedSubmission(t)

	_, err := fx.challenges.File(context.Background(), fx.studentPrincipal(), submission.ID, dto.ChallengeFileRequest{Reason: "first"})
	require.NoError(t, err)

	_, err = fx.challenges.File(context.Background(), fx.studentPrincipal(), submission.ID, dto.ChallengeFileRequest{Reason: "second"})
	require.ErrorIs(t, err, ErrAlreadyChallenged)

	// A terminal decision does not reopen the door.
	_, err = fx.challenges.Respond(context.Background(), fx.adminPrincipal(), submission.ID, dto.ChallengeRespondRequest{
		Response: "final decision",
		Status:   models.ChallengeStatusRejected,
	})
	require.NoError(t, err)

	_, err = fx.challenges.File(context.Background(), fx.studentPrincipal(), submission.ID, dto.ChallengeFileRequest{Reason: "third"})
	require.ErrorIs(t, err, ErrAlreadyChallenged)
}

func TestChallengeRespondExplicitStatusWins(t *testing.T) {
	fx := newChallengeFixture(t)
	submission := fx.evaluatedSubmission(t)

	_, err := fx.challenges.File(context.Background(), fx.studentPrincipal(), submission.ID, dto.ChallengeFileRequest{Reason: "dispute"})
	require.NoError(t, err)

	// The embedded tag says rejected, the explicit field says accepted.
	responded, err := fx.challenges.Respond(context.Background(), fx.adminPrincipal(), submission.ID, dto.ChallengeRespondRequest{
		Response: "[REJECTED] wait, no: accepted on closer reading",
		Status:   models.ChallengeStatusAccepted,
	})
	require.NoError(t, err)
	require.Equal(t, models.ChallengeStatusAccepted, responded.Challenge.Status)
	require.NotNil(t, responded.Challenge.ResolvedDate)
	require.Equal(t, "[REJECTED] wait, no: accepted on closer reading", responded.Challenge.AdminResponse)
}

func TestChallengeRespondParsesLegacyTag(t *testing.T) {
	fx := newChallengeFixture(t)
	submission := fx.evaluatedSubmission(t)

	_, err := fx.challenges.File(context.Background(), fx.studentPrincipal(), submission.ID, dto.ChallengeFileRequest{Reason: "dispute"})
	require.NoError(t, err)

	responded, err := fx.challenges.Respond(context.Background(), fx.adminPrincipal(), submission.ID, dto.ChallengeRespondRequest{
		Response: "[ACCEPTED] you are right about question 2",
	})
	require.NoError(t, err)
	require.Equal(t, models.ChallengeStatusAccepted, responded.Challenge.Status)
	require.NotNil(t, responded.Challenge.ResolvedDate)
}

func TestChallengeRespondDefaultsToReviewing(t *testing.T) {
	fx := newChallengeFixture(t)
	submission := fx.evaluatedSubmission(t)

	_, err := fx.challenges.File(context.Background(), fx.studentPrincipal(), submission.ID, dto.ChallengeFileRequest{Reason: "dispute"})
	require.NoError(t, err)

	responded, err := fx.challenges.Respond(context.Background(), fx.adminPrincipal(), submission.ID, dto.ChallengeRespondRequest{
		Response: "we are taking another look",
	})
	require.NoError(t, err)
	require.Equal(t, models.ChallengeStatusReviewing, responded.Challenge.Status)
	require.Nil(t, responded.Challenge.ResolvedDate)

	// A reviewing challenge can still be answered again.
	final, err := fx.challenges.Respond(context.Background(), fx.adminPrincipal(), submission.ID, dto.ChallengeRespondRequest{
		Response: "done",
		Status:   models.ChallengeStatusRejected,
	})
	require.NoError(t, err)
	require.Equal(t, models.ChallengeStatusRejected, final.Challenge.Status)
	require.NotNil(t, final.Challenge.ResolvedDate)
}

func TestChallengeRespondRequiresOpenChallenge(t *testing.T) {
	fx := newChallengeFixture(t)
	submission := fx.evaluatedSubmission(t)

	_, err := fx.challenges.Respond(context.Background(), fx.adminPrincipal(), submission.ID, dto.ChallengeRespondRequest{
		Response: "nothing to answer",
	})
	require.ErrorIs(t, err, ErrNoPendingChallenge)
}

func TestChallengeAcceptanceNeverChangesGrade(t *testing.T) {
	fx := newChallengeFixture(t)
	submission := fx.evaluatedSubmission(t)

	_, err := fx.challenges.File(context.Background(), fx.studentPrincipal(), submission.ID, dto.ChallengeFileRequest{Reason: "dispute"})
	require.NoError(t, err)

	responded, err := fx.challenges.Respond(context.Background(), fx.adminPrincipal(), submission.ID, dto.ChallengeRespondRequest{
		Response: "agreed, an evaluator will regrade",
		Status:   models.ChallengeStatusAccepted,
	})
	require.NoError(t, err)
	require.NotNil(t, responded.Grade)
	require.Equal(t, 55, *responded.Grade)
	require.Equal(t, models.EvaluationStatusEvaluated, responded.EvaluationStatus)
}
