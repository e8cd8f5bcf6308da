package dto

import (
	"encoding/json"
	"time"

	"github.com/evalhub/evalhub-api/internal/models"
)

// SubmissionCreateRequest describes the payload to submit an assessment.
// MCQResponses maps a question index (string key) to the selected option texts.
type SubmissionCreateRequest struct {
	AssessmentID uint                `json:"assessment_id" validate:"required,gt=0"`
	Content      string              `json:"content" validate:"required"`
	TabSwitches  int                 `json:"tab_switches" validate:"gte=0"`
	MCQResponses map[string][]string `json:"mcq_responses"`
}

// SubmissionFilter describes query string filters for listing submissions.
type SubmissionFilter struct {
	AssessmentID     *uint   `query:"assessment_id"`
	UserID           *uint   `query:"user_id"`
	EvaluationStatus *string `query:"evaluation_status" validate:"omitempty,oneof=pending evaluated"`
	ChallengeStatus  *string `query:"challenge_status" validate:"omitempty,oneof=pending reviewing accepted rejected resolved"`
}

// EvaluateRequest is the admin grading payload.
type EvaluateRequest struct {
	Grade          *int              `json:"grade" validate:"required,gte=0,lte=100"`
	Feedback       string            `json:"feedback" validate:"required"`
	EvaluatorNotes map[string]string `json:"evaluator_notes"`
}

// ChallengeFileRequest is the student payload disputing a grade.
type ChallengeFileRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// ChallengeRespondRequest is the admin payload answering a challenge. Status is
// the explicit outcome; when omitted, a legacy tag embedded in the response
// text ([ACCEPTED], [REJECTED], [REVIEWING]) is honored for wire compatibility.
type ChallengeRespondRequest struct {
	Response string `json:"response" validate:"required"`
	Status   string `json:"status" validate:"omitempty,oneof=accepted rejected reviewing"`
}

// ChallengeView is the challenge sub-record of a submission.
type ChallengeView struct {
	Status        string     `json:"status"`
	Reason        string     `json:"reason"`
	AdminResponse string     `json:"admin_response"`
	ChallengeDate *time.Time `json:"challenge_date"`
	ResolvedDate  *time.Time `json:"resolved_date"`
}

// AssessmentLite summarizes an assessment in submission responses.
type AssessmentLite struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	TimeLimit int    `json:"time_limit"`
	IsActive  bool   `json:"is_active"`
}

// UserLite summarizes a user without exposing credentials.
type UserLite struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID               uint                `json:"id"`
	AssessmentID     uint                `json:"assessment_id"`
	UserID           uint                `json:"user_id"`
	Content          string              `json:"content"`
	MCQResponses     map[string][]string `json:"mcq_responses"`
	TabSwitches      int                 `json:"tab_switches"`
	EvaluationStatus string              `json:"evaluation_status"`
	Grade            *int                `json:"grade"`
	Feedback         string              `json:"feedback"`
	EvaluatedAt      *time.Time          `json:"evaluated_at"`
	CategoryScores   map[string]float64  `json:"category_scores"`
	EvaluatorNotes   map[string]string   `json:"evaluator_notes"`
	Challenge        *ChallengeView      `json:"challenge,omitempty"`
	SubmittedAt      time.Time           `json:"submitted_at"`
	Assessment       AssessmentLite      `json:"assessment"`
	User             UserLite            `json:"user"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:               model.ID,
		AssessmentID:     model.AssessmentID,
		UserID:           model.UserID,
		Content:          model.Content,
		MCQResponses:     decodeMCQResponses(model.MCQResponses),
		TabSwitches:      model.TabSwitches,
		EvaluationStatus: model.EvaluationStatus,
		Grade:            model.Grade,
		Feedback:         model.Feedback,
		EvaluatedAt:      model.EvaluatedAt,
		CategoryScores:   decodeCategoryScores(model.CategoryScores),
		EvaluatorNotes:   decodeEvaluatorNotes(model.EvaluatorNotes),
		SubmittedAt:      model.CreatedAt,
	}

	if model.HasChallenge() {
		response.Challenge = &ChallengeView{
			Status:        model.ChallengeStatus,
			Reason:        model.ChallengeReason,
			AdminResponse: model.AdminResponse,
			ChallengeDate: model.ChallengeDate,
			ResolvedDate:  model.ResolvedDate,
		}
	}

	if model.Assessment.ID != 0 {
		response.Assessment = AssessmentLite{
			ID:        model.Assessment.ID,
			Title:     model.Assessment.Title,
			TimeLimit: model.Assessment.TimeLimit,
			IsActive:  model.Assessment.IsActive,
		}
	}

	if model.User.ID != 0 {
		response.User = UserLite{
			ID:    model.User.ID,
			Name:  model.User.Name,
			Email: model.User.Email,
		}
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}

func decodeMCQResponses(raw []byte) map[string][]string {
	responses := map[string][]string{}
	if len(raw) == 0 {
		return responses
	}
	if err := json.Unmarshal(raw, &responses); err != nil {
		return map[string][]string{}
	}
	return responses
}

func decodeCategoryScores(raw map[string]interface{}) map[string]float64 {
	scores := make(map[string]float64, len(raw))
	for name, value := range raw {
		switch v := value.(type) {
		case float64:
			scores[name] = v
		case int:
			scores[name] = float64(v)
		case json.Number:
			if parsed, err := v.Float64(); err == nil {
				scores[name] = parsed
			}
		}
	}
	return scores
}

func decodeEvaluatorNotes(raw map[string]interface{}) map[string]string {
	notes := make(map[string]string, len(raw))
	for key, value := range raw {
		if text, ok := value.(string); ok {
			notes[key] = text
		}
	}
	return notes
}
