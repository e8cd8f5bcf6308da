package dto

import (
	"time"

	"github.com/evalhub/evalhub-api/internal/models"
)

// QuestionOptionInput describes one selectable option in an authoring payload.
type QuestionOptionInput struct {
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionInput describes a question in an authoring payload.
type QuestionInput struct {
	Text         string                `json:"text" validate:"required"`
	Instructions string                `json:"instructions"`
	MaxPoints    int                   `json:"max_points" validate:"gte=0"`
	CategoryName string                `json:"category_name"`
	Type         string                `json:"type" validate:"required,oneof=descriptive mcq"`
	Options      []QuestionOptionInput `json:"options" validate:"dive"`
}

// AssessmentCreateRequest describes the payload to author an assessment.
type AssessmentCreateRequest struct {
	Title       string          `json:"title" validate:"required,max=255"`
	Description string          `json:"description"`
	TimeLimit   int             `json:"time_limit" validate:"gte=1"`
	IsActive    *bool           `json:"is_active"`
	Questions   []QuestionInput `json:"questions" validate:"required,min=1,dive"`
}

// AssessmentUpdateRequest describes a partial update. Question edits are only
// accepted while no submission references the assessment.
type AssessmentUpdateRequest struct {
	Title       *string          `json:"title" validate:"omitempty,max=255"`
	Description *string          `json:"description"`
	TimeLimit   *int             `json:"time_limit" validate:"omitempty,gte=1"`
	IsActive    *bool            `json:"is_active"`
	Questions   *[]QuestionInput `json:"questions" validate:"omitempty,min=1,dive"`
}

// QuestionOptionView is the student-facing option shape; correctness is never included.
type QuestionOptionView struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

// AdminQuestionOptionView includes the correctness flag for authoring views.
type AdminQuestionOptionView struct {
	ID        uint   `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionView is a question as returned to students.
type QuestionView struct {
	ID           uint                 `json:"id"`
	Position     int                  `json:"position"`
	Text         string               `json:"text"`
	Instructions string               `json:"instructions"`
	MaxPoints    int                  `json:"max_points"`
	CategoryName string               `json:"category_name"`
	Type         string               `json:"type"`
	MultiAnswer  bool                 `json:"multi_answer"`
	Options      []QuestionOptionView `json:"options"`
}

// AdminQuestionView is a question as returned to administrators.
type AdminQuestionView struct {
	ID           uint                      `json:"id"`
	Position     int                       `json:"position"`
	Text         string                    `json:"text"`
	Instructions string                    `json:"instructions"`
	MaxPoints    int                       `json:"max_points"`
	CategoryName string                    `json:"category_name"`
	Type         string                    `json:"type"`
	Options      []AdminQuestionOptionView `json:"options"`
}

// AssessmentResponse is the student-facing assessment shape.
type AssessmentResponse struct {
	ID          uint           `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	IsActive    bool           `json:"is_active"`
	TimeLimit   int            `json:"time_limit"`
	Questions   []QuestionView `json:"questions"`
	CreatedAt   time.Time      `json:"created_at"`
}

// AdminAssessmentResponse is the authoring view, correctness flags included.
type AdminAssessmentResponse struct {
	ID          uint                `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	IsActive    bool                `json:"is_active"`
	TimeLimit   int                 `json:"time_limit"`
	Locked      bool                `json:"locked"`
	CreatedBy   uint                `json:"created_by"`
	Questions   []AdminQuestionView `json:"questions"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// NewAssessmentResponse converts an Assessment model into the student DTO.
func NewAssessmentResponse(model models.Assessment) AssessmentResponse {
	questions := make([]QuestionView, 0, len(model.Questions))
	for _, question := range model.Questions {
		options := make([]QuestionOptionView, 0, len(question.Options))
		for _, option := range question.Options {
			options = append(options, QuestionOptionView{ID: option.ID, Text: option.Text})
		}

		questions = append(questions, QuestionView{
			ID:           question.ID,
			Position:     question.Position,
			Text:         question.Text,
			Instructions: question.Instructions,
			MaxPoints:    question.MaxPoints,
			CategoryName: question.CategoryName,
			Type:         question.Type,
			MultiAnswer:  len(question.CorrectOptionTexts()) > 1,
			Options:      options,
		})
	}

	return AssessmentResponse{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		IsActive:    model.IsActive,
		TimeLimit:   model.TimeLimit,
		Questions:   questions,
		CreatedAt:   model.CreatedAt,
	}
}

// NewAssessmentResponseSlice converts assessment models into student DTOs.
func NewAssessmentResponseSlice(assessments []models.Assessment) []AssessmentResponse {
	responses := make([]AssessmentResponse, 0, len(assessments))
	for _, assessment := range assessments {
		responses = append(responses, NewAssessmentResponse(assessment))
	}

	return responses
}

// NewAdminAssessmentResponse converts an Assessment model into the admin DTO.
func NewAdminAssessmentResponse(model models.Assessment, locked bool) AdminAssessmentResponse {
	questions := make([]AdminQuestionView, 0, len(model.Questions))
	for _, question := range model.Questions {
		options := make([]AdminQuestionOptionView, 0, len(question.Options))
		for _, option := range question.Options {
			options = append(options, AdminQuestionOptionView{
				ID:        option.ID,
				Text:      option.Text,
				IsCorrect: option.IsCorrect,
			})
		}

		questions = append(questions, AdminQuestionView{
			ID:           question.ID,
			Position:     question.Position,
			Text:         question.Text,
			Instructions: question.Instructions,
			MaxPoints:    question.MaxPoints,
			CategoryName: question.CategoryName,
			Type:         question.Type,
			Options:      options,
		})
	}

	return AdminAssessmentResponse{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		IsActive:    model.IsActive,
		TimeLimit:   model.TimeLimit,
		Locked:      locked,
		CreatedBy:   model.CreatedBy,
		Questions:   questions,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// CategoryRequest describes the payload to create or update a category.
type CategoryRequest struct {
	Name        string `json:"name" validate:"required,max=128"`
	Description string `json:"description"`
}

// CategoryResponse serializes a category.
type CategoryResponse struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewCategoryResponse converts a Category model into a DTO.
func NewCategoryResponse(model models.Category) CategoryResponse {
	return CategoryResponse{
		ID:          model.ID,
		Name:        model.Name,
		Description: model.Description,
		CreatedAt:   model.CreatedAt,
	}
}
