package models

import (
	"time"

	"gorm.io/datatypes"
)

// Evaluation states of a submission.
const (
	EvaluationStatusPending   = "pending"
	EvaluationStatusEvaluated = "evaluated"
)

// Challenge states. Resolved is a legacy terminal label kept readable for
// records written by earlier versions of the portal.
const (
	ChallengeStatusPending   = "pending"
	ChallengeStatusReviewing = "reviewing"
	ChallengeStatusAccepted  = "accepted"
	ChallengeStatusRejected  = "rejected"
	ChallengeStatusResolved  = "resolved"
)

// Submission is one student's answer set for one assessment, plus its
// evaluation and optional grade challenge. The composite unique index on
// (user_id, assessment_id) is the storage-level guarantee behind the
// one-submission-per-pair invariant; the application-level existence check is
// only the friendly error path.
type Submission struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	AssessmentID uint   `gorm:"not null;uniqueIndex:idx_submissions_user_assessment" json:"assessment_id"`
	UserID       uint   `gorm:"not null;uniqueIndex:idx_submissions_user_assessment" json:"user_id"`
	Content      string `gorm:"type:text;not null" json:"content"`
	MCQResponses datatypes.JSON `gorm:"type:json" json:"mcq_responses"`
	TabSwitches  int            `gorm:"not null;default:0" json:"tab_switches"`

	EvaluationStatus string            `gorm:"size:32;not null;default:pending" json:"evaluation_status"`
	Grade            *int              `json:"grade"`
	Feedback         string            `gorm:"type:text" json:"feedback"`
	EvaluatedAt      *time.Time        `json:"evaluated_at"`
	CategoryScores   datatypes.JSONMap `gorm:"type:json" json:"category_scores"`
	EvaluatorNotes   datatypes.JSONMap `gorm:"type:json" json:"evaluator_notes"`

	ChallengeStatus string     `gorm:"size:32" json:"challenge_status"`
	ChallengeReason string     `gorm:"type:text" json:"challenge_reason"`
	AdminResponse   string     `gorm:"type:text" json:"admin_response"`
	ChallengeDate   *time.Time `json:"challenge_date"`
	ResolvedDate    *time.Time `json:"resolved_date"`

	CreatedAt time.Time `json:"submitted_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Assessment Assessment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assessment"`
	User       User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user"`
}

// IsEvaluated reports whether the submission has been graded.
func (s Submission) IsEvaluated() bool {
	return s.EvaluationStatus == EvaluationStatusEvaluated
}

// HasChallenge reports whether a challenge was ever filed for this submission.
func (s Submission) HasChallenge() bool {
	return s.ChallengeStatus != ""
}

// ChallengeOpen reports whether the challenge still awaits a terminal decision.
func (s Submission) ChallengeOpen() bool {
	return s.ChallengeStatus == ChallengeStatusPending || s.ChallengeStatus == ChallengeStatusReviewing
}

// ChallengeTerminal reports whether the challenge reached a terminal status.
func (s Submission) ChallengeTerminal() bool {
	switch s.ChallengeStatus {
	case ChallengeStatusAccepted, ChallengeStatusRejected, ChallengeStatusResolved:
		return true
	}
	return false
}
