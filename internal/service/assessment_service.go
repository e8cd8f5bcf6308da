package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/evalhub/evalhub-api/internal/dto"
	"github.com/evalhub/evalhub-api/internal/models"
	"github.com/evalhub/evalhub-api/internal/repository"
)

// AssessmentService covers the authoring and catalogue surface.
type AssessmentService interface {
	List(ctx context.Context, principal Principal) ([]dto.AssessmentResponse, error)
	ListAdmin(ctx context.Context) ([]dto.AdminAssessmentResponse, error)
	GetByID(ctx context.Context, principal Principal, id uint) (dto.AssessmentResponse, error)
	GetAdminByID(ctx context.Context, id uint) (dto.AdminAssessmentResponse, error)
	Create(ctx context.Context, principal Principal, payload dto.AssessmentCreateRequest) (dto.AdminAssessmentResponse, error)
	Update(ctx context.Context, principal Principal, id uint, payload dto.AssessmentUpdateRequest) (dto.AdminAssessmentResponse, error)
	Delete(ctx context.Context, principal Principal, id uint) error
}

type assessmentService struct {
	assessments repository.AssessmentRepository
	submissions repository.SubmissionRepository
	activity    ActivityRecorder
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
}

// NewAssessmentService constructs an AssessmentService instance.
func NewAssessmentService(assessmentRepo repository.AssessmentRepository, subRepo repository.SubmissionRepository, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) AssessmentService {
	return &assessmentService{
		assessments: assessmentRepo,
		submissions: subRepo,
		activity:    activity,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "assessment_service").Logger(),
	}
}

func (s *assessmentService) List(ctx context.Context, principal Principal) ([]dto.AssessmentResponse, error) {
	filter := repository.AssessmentFilter{ActiveOnly: !principal.IsAdmin()}

	assessments, err := s.assessments.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewAssessmentResponseSlice(assessments), nil
}

func (s *assessmentService) ListAdmin(ctx context.Context) ([]dto.AdminAssessmentResponse, error) {
	assessments, err := s.assessments.List(ctx, repository.AssessmentFilter{})
	if err != nil {
		return nil, err
	}

	responses := make([]dto.AdminAssessmentResponse, 0, len(assessments))
	for _, assessment := range assessments {
		locked, err := s.isLocked(ctx, assessment.ID)
		if err != nil {
			return nil, err
		}
		responses = append(responses, dto.NewAdminAssessmentResponse(assessment, locked))
	}

	return responses, nil
}

func (s *assessmentService) GetByID(ctx context.Context, principal Principal, id uint) (dto.AssessmentResponse, error) {
	assessment, err := s.assessments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssessmentResponse{}, ErrAssessmentNotFound
		}
		return dto.AssessmentResponse{}, err
	}

	if !assessment.IsActive && !principal.IsAdmin() {
		return dto.AssessmentResponse{}, ErrAssessmentNotFound
	}

	return dto.NewAssessmentResponse(assessment), nil
}

func (s *assessmentService) GetAdminByID(ctx context.Context, id uint) (dto.AdminAssessmentResponse, error) {
	assessment, err := s.assessments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AdminAssessmentResponse{}, ErrAssessmentNotFound
		}
		return dto.AdminAssessmentResponse{}, err
	}

	locked, err := s.isLocked(ctx, id)
	if err != nil {
		return dto.AdminAssessmentResponse{}, err
	}

	return dto.NewAdminAssessmentResponse(assessment, locked), nil
}

func (s *assessmentService) Create(ctx context.Context, principal Principal, payload dto.AssessmentCreateRequest) (dto.AdminAssessmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AdminAssessmentResponse{}, err
	}

	isActive := true
	if payload.IsActive != nil {
		isActive = *payload.IsActive
	}

	assessment := models.Assessment{
		Title:       strings.TrimSpace(s.sanitizer.Sanitize(payload.Title)),
		Description: strings.TrimSpace(s.sanitizer.Sanitize(payload.Description)),
		IsActive:    isActive,
		TimeLimit:   payload.TimeLimit,
		CreatedBy:   principal.ID,
		Questions:   buildQuestions(payload.Questions),
	}

	if err := s.assessments.Create(ctx, &assessment); err != nil {
		return dto.AdminAssessmentResponse{}, err
	}

	created, err := s.assessments.GetByID(ctx, assessment.ID)
	if err != nil {
		return dto.AdminAssessmentResponse{}, err
	}

	if s.activity != nil {
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    principal.ID,
			ActorRole:  principal.Role,
			Action:     "assessment.created",
			EntityType: "assessment",
			EntityID:   &created.ID,
			Metadata:   map[string]interface{}{"title": created.Title},
		})
	}

	s.logger.Info().Uint("assessment_id", created.ID).Msg("assessment created")

	return dto.NewAdminAssessmentResponse(created, false), nil
}

func (s *assessmentService) Update(ctx context.Context, principal Principal, id uint, payload dto.AssessmentUpdateRequest) (dto.AdminAssessmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AdminAssessmentResponse{}, err
	}

	assessment, err := s.assessments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AdminAssessmentResponse{}, ErrAssessmentNotFound
		}
		return dto.AdminAssessmentResponse{}, err
	}

	locked, err := s.isLocked(ctx, id)
	if err != nil {
		return dto.AdminAssessmentResponse{}, err
	}

	// Metadata edits stay allowed after lock; the question set does not.
	if payload.Questions != nil && locked {
		return dto.AdminAssessmentResponse{}, ErrAssessmentLocked
	}

	if payload.Title != nil {
		assessment.Title = strings.TrimSpace(s.sanitizer.Sanitize(*payload.Title))
	}
	if payload.Description != nil {
		assessment.Description = strings.TrimSpace(s.sanitizer.Sanitize(*payload.Description))
	}
	if payload.TimeLimit != nil {
		assessment.TimeLimit = *payload.TimeLimit
	}
	if payload.IsActive != nil {
		assessment.IsActive = *payload.IsActive
	}

	assessment.Questions = nil
	if err := s.assessments.Update(ctx, &assessment); err != nil {
		return dto.AdminAssessmentResponse{}, err
	}

	if payload.Questions != nil {
		if err := s.assessments.ReplaceQuestions(ctx, id, buildQuestions(*payload.Questions)); err != nil {
			return dto.AdminAssessmentResponse{}, err
		}
	}

	updated, err := s.assessments.GetByID(ctx, id)
	if err != nil {
		return dto.AdminAssessmentResponse{}, err
	}

	if s.activity != nil {
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    principal.ID,
			ActorRole:  principal.Role,
			Action:     "assessment.updated",
			EntityType: "assessment",
			EntityID:   &updated.ID,
			Metadata:   map[string]interface{}{"title": updated.Title},
		})
	}

	return dto.NewAdminAssessmentResponse(updated, locked), nil
}

func (s *assessmentService) Delete(ctx context.Context, principal Principal, id uint) error {
	if _, err := s.assessments.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssessmentNotFound
		}
		return err
	}

	locked, err := s.isLocked(ctx, id)
	if err != nil {
		return err
	}
	if locked {
		return ErrAssessmentLocked
	}

	if err := s.assessments.Delete(ctx, id); err != nil {
		return err
	}

	if s.activity != nil {
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    principal.ID,
			ActorRole:  principal.Role,
			Action:     "assessment.deleted",
			EntityType: "assessment",
			EntityID:   &id,
		})
	}

	s.logger.Info().Uint("assessment_id", id).Msg("assessment deleted")
	return nil
}

func (s *assessmentService) isLocked(ctx context.Context, id uint) (bool, error) {
	count, err := s.submissions.CountByAssessment(ctx, id)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func buildQuestions(inputs []dto.QuestionInput) []models.Question {
	questions := make([]models.Question, 0, len(inputs))
	for position, input := range inputs {
		options := make([]models.QuestionOption, 0, len(input.Options))
		for _, option := range input.Options {
			options = append(options, models.QuestionOption{
				Text:      option.Text,
				IsCorrect: option.IsCorrect,
			})
		}

		questions = append(questions, models.Question{
			Position:     position,
			Text:         input.Text,
			Instructions: input.Instructions,
			MaxPoints:    input.MaxPoints,
			CategoryName: input.CategoryName,
			Type:         input.Type,
			Options:      options,
		})
	}

	return questions
}
