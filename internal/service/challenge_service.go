package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/evalhub/evalhub-api/internal/dto"
	"github.com/evalhub/evalhub-api/internal/models"
	"github.com/evalhub/evalhub-api/internal/observability"
	"github.com/evalhub/evalhub-api/internal/repository"
)

// Legacy outcome tags embedded in admin response text; recognised when the
// explicit status field is omitted.
const (
	challengeTagAccepted  = "[ACCEPTED]"
	challengeTagRejected  = "[REJECTED]"
	challengeTagReviewing = "[REVIEWING]"
)

// ChallengeService runs the grade dispute workflow on top of submissions.
type ChallengeService interface {
	File(ctx context.Context, principal Principal, submissionID uint, payload dto.ChallengeFileRequest) (dto.SubmissionResponse, error)
	Respond(ctx context.Context, principal Principal, submissionID uint, payload dto.ChallengeRespondRequest) (dto.SubmissionResponse, error)
}

type challengeService struct {
	submissions repository.SubmissionRepository
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	activity    ActivityRecorder
	notifier    Notifier
	logger      zerolog.Logger
	now         func() time.Time
}

// NewChallengeService constructs the challenge workflow service.
func NewChallengeService(subRepo repository.SubmissionRepository, validate *validator.Validate, activity ActivityRecorder, notifier Notifier, logger zerolog.Logger) ChallengeService {
	return &challengeService{
		submissions: subRepo,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		activity:    activity,
		notifier:    notifier,
		logger:      logger.With().Str("component", "challenge_service").Logger(),
		now:         time.Now,
	}
}

func (s *challengeService) File(ctx context.Context, principal Principal, submissionID uint, payload dto.ChallengeFileRequest) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer("github.com/evalhub/evalhub-api/internal/service/challenge")
	ctx, span := tracer.Start(ctx, "challenge.file")
	span.SetAttributes(attribute.Int64("challenge.submission_id", int64(submissionID)))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	reason := strings.TrimSpace(s.sanitizer.Sanitize(payload.Reason))
	if reason == "" {
		err := fmt.Errorf("challenge reason must not be empty")
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "submission_not_found")
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	if submission.UserID != principal.ID {
		span.SetStatus(codes.Error, "not_owner")
		return dto.SubmissionResponse{}, ErrNotResourceOwner
	}

	if !submission.IsEvaluated() {
		span.SetStatus(codes.Error, "not_evaluated")
		return dto.SubmissionResponse{}, ErrSubmissionNotEvaluated
	}

	// Any prior challenge blocks a new one, terminal ones included.
	if submission.HasChallenge() {
		span.SetStatus(codes.Error, "already_challenged")
		return dto.SubmissionResponse{}, ErrAlreadyChallenged
	}

	challengeDate := s.now()
	submission.ChallengeStatus = models.ChallengeStatusPending
	submission.ChallengeReason = reason
	submission.ChallengeDate = &challengeDate

	if err := s.submissions.Update(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_update_failed")
		return dto.SubmissionResponse{}, err
	}

	observability.ChallengesFiledTotal().Inc()

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("user_id", principal.ID).
		Msg("challenge filed")

	return dto.NewSubmissionResponse(submission), nil
}

func (s *challengeService) Respond(ctx context.Context, principal Principal, submissionID uint, payload dto.ChallengeRespondRequest) (dto.SubmissionResponse, error) {
	tracer := otel.Tracer("github.com/evalhub/evalhub-api/internal/service/challenge")
	ctx, span := tracer.Start(ctx, "challenge.respond")
	span.SetAttributes(
		attribute.Int64("challenge.submission_id", int64(submissionID)),
		attribute.Int64("challenge.actor_id", int64(principal.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "submission_not_found")
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	if !submission.ChallengeOpen() {
		span.SetStatus(codes.Error, "no_pending_challenge")
		return dto.SubmissionResponse{}, ErrNoPendingChallenge
	}

	outcome := challengeOutcome(payload.Status, payload.Response)

	// The response text is stored verbatim, legacy tag included.
	submission.AdminResponse = payload.Response
	submission.ChallengeStatus = outcome

	if outcome != models.ChallengeStatusReviewing {
		resolvedDate := s.now()
		submission.ResolvedDate = &resolvedDate
	}

	// Accepting a challenge deliberately leaves the grade untouched; a
	// follow-up evaluate call is the only way to change it.
	if err := s.submissions.Update(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_update_failed")
		return dto.SubmissionResponse{}, err
	}

	observability.ChallengeResponsesTotal().WithLabelValues(outcome).Inc()

	if s.activity != nil {
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    principal.ID,
			ActorRole:  principal.Role,
			Action:     "challenge.responded",
			EntityType: "submission",
			EntityID:   &submission.ID,
			Metadata: map[string]interface{}{
				"submission_id": submission.ID,
				"user_id":       submission.UserID,
				"outcome":       outcome,
			},
		})
	}

	if s.notifier != nil {
		_, err := s.notifier.Publish(ctx, dto.NotificationCreateRequest{
			UserID:  submission.UserID,
			Type:    "challenge.responded",
			Message: fmt.Sprintf("Your grade challenge for %q is now %s", submission.Assessment.Title, outcome),
		})
		if err != nil {
			s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to publish challenge notification")
		}
	}

	span.SetAttributes(attribute.String("challenge.outcome", outcome))

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Str("outcome", outcome).
		Msg("challenge responded")

	return dto.NewSubmissionResponse(submission), nil
}

// challengeOutcome resolves the new challenge status from the explicit field,
// falling back to the legacy embedded tag, defaulting to reviewing.
func challengeOutcome(status, response string) string {
	if status != "" {
		return status
	}

	upper := strings.ToUpper(response)
	switch {
	case strings.Contains(upper, challengeTagAccepted):
		return models.ChallengeStatusAccepted
	case strings.Contains(upper, challengeTagRejected):
		return models.ChallengeStatusRejected
	case strings.Contains(upper, challengeTagReviewing):
		return models.ChallengeStatusReviewing
	}

	return models.ChallengeStatusReviewing
}
