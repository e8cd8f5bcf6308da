package ai

import "context"

// DraftInput contains the artefacts an evaluator reviews before grading.
type DraftInput struct {
	AssessmentTitle string
	Instructions    string
	StudentAnswer   string
}

// DraftResult is the structured feedback suggestion returned by the model.
type DraftResult struct {
	Feedback  string                 `json:"feedback"`
	Strengths []string               `json:"strengths,omitempty"`
	Gaps      []string               `json:"gaps,omitempty"`
	Raw       map[string]interface{} `json:"raw,omitempty"`
}

// FeedbackDrafter describes an AI model capable of drafting evaluator feedback.
type FeedbackDrafter interface {
	Draft(ctx context.Context, input DraftInput) (DraftResult, error)
}
