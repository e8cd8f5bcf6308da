package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/evalhub/evalhub-api/internal/dto"
	"github.com/evalhub/evalhub-api/internal/models"
	"github.com/evalhub/evalhub-api/internal/observability"
	"github.com/evalhub/evalhub-api/internal/repository"
	"github.com/evalhub/evalhub-api/pkg/ai"
)

// Notifier publishes user-facing events; satisfied by NotificationService.
type Notifier interface {
	Publish(ctx context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error)
}

// EvaluationService encapsulates grading workflows for administrators.
type EvaluationService interface {
	Evaluate(ctx context.Context, principal Principal, submissionID uint, payload dto.EvaluateRequest) (dto.SubmissionResponse, error)
	SuggestFeedback(ctx context.Context, principal Principal, submissionID uint) (string, error)
}

type evaluationService struct {
	submissions repository.SubmissionRepository
	validator   *validator.Validate
	activity    ActivityRecorder
	notifier    Notifier
	drafter     ai.FeedbackDrafter
	logger      zerolog.Logger
	now         func() time.Time
}

// NewEvaluationService constructs the grading service. Activity, notifier and
// drafter are optional.
func NewEvaluationService(subRepo repository.SubmissionRepository, validate *validator.Validate, activity ActivityRecorder, notifier Notifier, drafter ai.FeedbackDrafter, logger zerolog.Logger) EvaluationService {
	return &evaluationService{
		submissions: subRepo,
		validator:   validate,
		activity:    activity,
		notifier:    notifier,
		drafter:     drafter,
		logger:      logger.With().Str("component", "evaluation_service").Logger(),
		now:         time.Now,
	}
}

func (s *evaluationService) Evaluate(ctx context.Context, principal Principal, submissionID uint, payload dto.EvaluateRequest) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer("github.com/evalhub/evalhub-api/internal/service/evaluation")
	ctx, span := tracer.Start(ctx, "evaluation.evaluate")
	span.SetAttributes(
		attribute.Int64("evaluation.submission_id", int64(submissionID)),
		attribute.Int64("evaluation.actor_id", int64(principal.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	feedback := strings.TrimSpace(payload.Feedback)
	if feedback == "" {
		err := fmt.Errorf("feedback must not be empty")
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "submission_not_found")
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_lookup_failed")
		return dto.SubmissionResponse{}, err
	}

	// Re-evaluation overwrites grade, feedback and the timestamp. An existing
	// challenge sub-record is never touched here.
	grade := *payload.Grade
	submission.Grade = &grade
	submission.Feedback = feedback
	submission.EvaluationStatus = models.EvaluationStatusEvaluated
	evaluatedAt := s.now()
	submission.EvaluatedAt = &evaluatedAt

	if len(payload.EvaluatorNotes) > 0 {
		notes := datatypes.JSONMap{}
		for questionID, note := range payload.EvaluatorNotes {
			notes[questionID] = note
		}
		submission.EvaluatorNotes = notes
	}

	if err := s.submissions.Update(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_update_failed")
		return dto.SubmissionResponse{}, err
	}

	observability.EvaluationsTotal().Inc()

	if s.activity != nil {
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    principal.ID,
			ActorRole:  principal.Role,
			Action:     "submission.evaluated",
			EntityType: "submission",
			EntityID:   &submission.ID,
			Metadata: map[string]interface{}{
				"submission_id": submission.ID,
				"user_id":       submission.UserID,
				"grade":         grade,
			},
		})
	}

	if s.notifier != nil {
		_, err := s.notifier.Publish(ctx, dto.NotificationCreateRequest{
			UserID:  submission.UserID,
			Type:    "submission.evaluated",
			Message: fmt.Sprintf("Your submission for %q has been graded: %d/100", submission.Assessment.Title, grade),
		})
		if err != nil {
			s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to publish evaluation notification")
		}
	}

	span.SetAttributes(attribute.Int("evaluation.grade", grade))

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Int("grade", grade).
		Uint("evaluated_by", principal.ID).
		Msg("submission evaluated")

	return dto.NewSubmissionResponse(submission), nil
}

func (s *evaluationService) SuggestFeedback(ctx context.Context, principal Principal, submissionID uint) (string, error) {
	if s.drafter == nil {
		return "", fmt.Errorf("feedback drafting is not configured")
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrSubmissionNotFound
		}
		return "", err
	}

	draft, err := s.drafter.Draft(ctx, ai.DraftInput{
		AssessmentTitle: submission.Assessment.Title,
		Instructions:    submission.Assessment.Description,
		StudentAnswer:   submission.Content,
	})
	if err != nil {
		return "", fmt.Errorf("draft feedback: %w", err)
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("requested_by", principal.ID).
		Msg("feedback draft generated")

	return draft.Feedback, nil
}
