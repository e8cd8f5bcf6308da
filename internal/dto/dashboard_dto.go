package dto

import "time"

// ProgressSummary aggregates a student's standing across active assessments.
type ProgressSummary struct {
	TotalAssessments int     `json:"total_assessments"`
	Submitted        int     `json:"submitted"`
	Evaluated        int     `json:"evaluated"`
	PendingReview    int     `json:"pending_review"`
	OpenChallenges   int     `json:"open_challenges"`
	AverageGrade     float64 `json:"average_grade"`
}

// AssessmentProgress reports one assessment's state for the caller.
type AssessmentProgress struct {
	AssessmentID uint   `json:"assessment_id"`
	Title        string `json:"title"`
	TimeLimit    int    `json:"time_limit"`
	Status       string `json:"status"`
	SubmissionID *uint  `json:"submission_id"`
	Grade        *int   `json:"grade"`
}

// SubmissionActivity is a recent submission entry on the dashboard.
type SubmissionActivity struct {
	SubmissionID     uint      `json:"submission_id"`
	AssessmentID     uint      `json:"assessment_id"`
	AssessmentTitle  string    `json:"assessment_title"`
	EvaluationStatus string    `json:"evaluation_status"`
	Grade            *int      `json:"grade"`
	ChallengeStatus  string    `json:"challenge_status,omitempty"`
	SubmittedAt      time.Time `json:"submitted_at"`
}

// StudentDashboardResponse is the aggregated dashboard payload.
type StudentDashboardResponse struct {
	Summary           ProgressSummary      `json:"summary"`
	Pending           []AssessmentProgress `json:"pending"`
	RecentSubmissions []SubmissionActivity `json:"recent_submissions"`
}
