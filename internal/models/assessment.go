package models

import "time"

// Question types supported by an assessment.
const (
	QuestionTypeDescriptive = "descriptive"
	QuestionTypeMCQ         = "mcq"
)

// Assessment is an authored question set students submit against. Once any
// submission references it the question list is locked against edits.
type Assessment struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	IsActive    bool       `gorm:"not null;default:true" json:"is_active"`
	TimeLimit   int        `gorm:"not null;default:60" json:"time_limit"`
	CreatedBy   uint       `json:"created_by"`
	Questions   []Question `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Question belongs to an assessment; Position preserves authoring order and is
// the index submissions use to address MCQ responses.
type Question struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	AssessmentID uint             `gorm:"not null;index" json:"assessment_id"`
	Position     int              `gorm:"not null" json:"position"`
	Text         string           `gorm:"type:text;not null" json:"text"`
	Instructions string           `gorm:"type:text" json:"instructions"`
	MaxPoints    int              `gorm:"not null;default:0" json:"max_points"`
	CategoryName string           `gorm:"size:128" json:"category_name"`
	Type         string           `gorm:"size:32;not null" json:"type"`
	Options      []QuestionOption `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"options"`
}

// QuestionOption is a selectable answer for an MCQ question. The correctness
// flag is never serialized; the student read path must not learn it.
type QuestionOption struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	QuestionID uint   `gorm:"not null;index" json:"question_id"`
	Text       string `gorm:"size:512;not null" json:"text"`
	IsCorrect  bool   `gorm:"not null;default:false" json:"-"`
}

// Category is an optional tag grouping questions for aggregate reporting.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:128;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CorrectOptionTexts returns the texts of the correct options for an MCQ question.
func (q Question) CorrectOptionTexts() []string {
	correct := make([]string, 0, len(q.Options))
	for _, option := range q.Options {
		if option.IsCorrect {
			correct = append(correct, option.Text)
		}
	}
	return correct
}

// IsMCQ reports whether the question is graded automatically.
func (q Question) IsMCQ() bool {
	return q.Type == QuestionTypeMCQ
}
