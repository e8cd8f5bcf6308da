package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/evalhub/evalhub-api/internal/dto"
	"github.com/evalhub/evalhub-api/internal/models"
	"github.com/evalhub/evalhub-api/internal/observability"
	"github.com/evalhub/evalhub-api/internal/repository"
)

// mcqResponsesSchema pins the wire shape: question-index string keys mapping
// to arrays of selected option texts.
var mcqResponsesSchema = jsonschema.MustCompileString("mcq_responses.json", `{
	"type": "object",
	"propertyNames": {"pattern": "^[0-9]+$"},
	"additionalProperties": {
		"type": "array",
		"items": {"type": "string"}
	}
}`)

// SubmissionService orchestrates the submission lifecycle.
type SubmissionService interface {
	Create(ctx context.Context, principal Principal, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error)
	List(ctx context.Context, principal Principal, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error)
	GetByID(ctx context.Context, principal Principal, id uint) (dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assessments repository.AssessmentRepository
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(subRepo repository.SubmissionRepository, assessmentRepo repository.AssessmentRepository, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: subRepo,
		assessments: assessmentRepo,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "submission_service").Logger(),
	}
}

func (s *submissionService) Create(ctx context.Context, principal Principal, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	content := strings.TrimSpace(s.sanitizer.Sanitize(payload.Content))
	if content == "" {
		return dto.SubmissionResponse{}, ErrEmptyContent
	}

	assessment, err := s.assessments.GetByID(ctx, payload.AssessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssessmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if !assessment.IsActive && !principal.IsAdmin() {
		return dto.SubmissionResponse{}, ErrAssessmentInactive
	}

	responses := payload.MCQResponses
	if responses == nil {
		responses = map[string][]string{}
	}

	if err := validateMCQResponses(assessment.Questions, responses); err != nil {
		return dto.SubmissionResponse{}, err
	}

	// Early friendly check; the composite unique index is the actual guarantee.
	if _, err := s.submissions.GetByAssessmentAndUser(ctx, assessment.ID, principal.ID); err == nil {
		return dto.SubmissionResponse{}, ErrDuplicateSubmission
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SubmissionResponse{}, err
	}

	encoded, err := json.Marshal(responses)
	if err != nil {
		return dto.SubmissionResponse{}, fmt.Errorf("encode mcq responses: %w", err)
	}

	categoryScores := datatypes.JSONMap{}
	for name, score := range CategoryScores(assessment.Questions, responses) {
		categoryScores[name] = score
	}

	submission := models.Submission{
		AssessmentID:     assessment.ID,
		UserID:           principal.ID,
		Content:          content,
		MCQResponses:     datatypes.JSON(encoded),
		TabSwitches:      payload.TabSwitches,
		EvaluationStatus: models.EvaluationStatusPending,
		CategoryScores:   categoryScores,
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.SubmissionResponse{}, ErrDuplicateSubmission
		}
		return dto.SubmissionResponse{}, err
	}

	created, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	observability.SubmissionsCreatedTotal().Inc()
	s.logger.Info().
		Uint("submission_id", created.ID).
		Uint("assessment_id", assessment.ID).
		Uint("user_id", principal.ID).
		Int("tab_switches", payload.TabSwitches).
		Msg("submission created")

	return dto.NewSubmissionResponse(created), nil
}

func (s *submissionService) List(ctx context.Context, principal Principal, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	repoFilter := repository.SubmissionFilter{
		AssessmentID:     filter.AssessmentID,
		EvaluationStatus: filter.EvaluationStatus,
		ChallengeStatus:  filter.ChallengeStatus,
	}

	if principal.IsAdmin() {
		repoFilter.UserID = filter.UserID
	} else {
		userID := principal.ID
		repoFilter.UserID = &userID
	}

	submissions, err := s.submissions.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) GetByID(ctx context.Context, principal Principal, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if submission.UserID != principal.ID && !principal.IsAdmin() {
		return dto.SubmissionResponse{}, ErrNotResourceOwner
	}

	return dto.NewSubmissionResponse(submission), nil
}

func validateMCQResponses(questions []models.Question, responses map[string][]string) error {
	encoded, err := json.Marshal(responses)
	if err != nil {
		return fmt.Errorf("encode mcq responses: %w", err)
	}

	var generic interface{}
	if err := json.Unmarshal(encoded, &generic); err != nil {
		return fmt.Errorf("decode mcq responses: %w", err)
	}

	if err := mcqResponsesSchema.Validate(generic); err != nil {
		return ErrInvalidMCQResponses
	}

	for key := range responses {
		index, err := strconv.Atoi(key)
		if err != nil || index < 0 || index >= len(questions) {
			return ErrInvalidMCQResponses
		}
		if !questions[index].IsMCQ() {
			return ErrInvalidMCQResponses
		}
	}

	return nil
}
