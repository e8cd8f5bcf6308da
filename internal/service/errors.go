package service

import "errors"

// Sentinel errors surfaced to handlers; each maps to a distinct client-visible
// failure so callers can branch on the kind.
var (
	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrAssessmentInactive = errors.New("assessment is not active")
	ErrAssessmentLocked   = errors.New("assessment has submissions and can no longer be edited")

	ErrSubmissionNotFound     = errors.New("submission not found")
	ErrDuplicateSubmission    = errors.New("a submission already exists for this assessment")
	ErrSubmissionNotEvaluated = errors.New("submission has not been evaluated yet")
	ErrInvalidMCQResponses    = errors.New("mcq responses do not match the assessment questions")
	ErrEmptyContent           = errors.New("submission content must not be empty")

	ErrAlreadyChallenged  = errors.New("a challenge has already been filed for this submission")
	ErrNoPendingChallenge = errors.New("no pending challenge exists for this submission")

	ErrNotResourceOwner = errors.New("caller does not own this resource")

	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")

	ErrCategoryNotFound = errors.New("category not found")
	ErrNoteNotFound     = errors.New("note not found")
)

// Principal is the authenticated identity making a request. Handlers build it
// from the verified token; services never consult ambient state.
type Principal struct {
	ID   uint
	Role string
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == "admin"
}
