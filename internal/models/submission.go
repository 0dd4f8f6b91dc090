package models

import "time"

// SubmissionStatus enumerates the per-student submission lifecycle.
type SubmissionStatus string

// Submission lifecycle states. Status is monotonically non-decreasing
// along draft -> submitted -> graded -> finalised.
const (
	SubmissionStatusDraft     SubmissionStatus = "draft"
	SubmissionStatusSubmitted SubmissionStatus = "submitted"
	SubmissionStatusGraded    SubmissionStatus = "graded"
	SubmissionStatusFinalised SubmissionStatus = "finalised"
)

// CanTransitionTo reports whether moving to next is a legal forward step.
func (s SubmissionStatus) CanTransitionTo(next SubmissionStatus) bool {
	switch s {
	case SubmissionStatusDraft:
		return next == SubmissionStatusSubmitted
	case SubmissionStatusSubmitted:
		return next == SubmissionStatusGraded
	case SubmissionStatusGraded:
		return next == SubmissionStatusFinalised
	}
	return false
}

// AcceptsAnswers reports whether answer writes are still allowed.
func (s SubmissionStatus) AcceptsAnswers() bool {
	return s == SubmissionStatusDraft
}

// AcceptsGrades reports whether grade writes are allowed.
func (s SubmissionStatus) AcceptsGrades() bool {
	return s == SubmissionStatusSubmitted || s == SubmissionStatusGraded
}

// VisibleToInstructors reports whether instructors may see the submission.
// In-progress drafts stay private to the owning student.
func (s SubmissionStatus) VisibleToInstructors() bool {
	return s != SubmissionStatusDraft
}

// ExposesGrades reports whether grade and feedback fields are readable.
func (s SubmissionStatus) ExposesGrades() bool {
	return s != SubmissionStatusDraft
}

// Submission is one student's attempt at a module. Exactly one row exists
// per (module, student) pair, enforced by the composite unique index.
type Submission struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	ModuleID    uint             `gorm:"not null;uniqueIndex:idx_submission_module_student" json:"module_id"`
	StudentID   uint             `gorm:"not null;uniqueIndex:idx_submission_module_student" json:"student_id"`
	Status      SubmissionStatus `gorm:"size:32;not null;default:draft" json:"status"`
	SubmittedAt *time.Time       `json:"submitted_at"`
	GradedAt    *time.Time       `json:"graded_at"`
	FinalisedAt *time.Time       `json:"finalised_at"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	Answers     []Answer         `json:"answers,omitempty"`
	Student     *User            `gorm:"foreignKey:StudentID" json:"student,omitempty"`
}

// Answer stores a student's response for one sub-question.
// Unique per (submission, sub-question); latest write wins while drafting.
type Answer struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SubmissionID  uint      `gorm:"not null;uniqueIndex:idx_answer_submission_subq" json:"submission_id"`
	SubQuestionID uint      `gorm:"not null;uniqueIndex:idx_answer_submission_subq" json:"sub_question_id"`
	AnswerText    string    `gorm:"type:text" json:"answer_text"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Grade         *Grade    `json:"grade,omitempty"`
}

// Grade records an instructor's score and feedback for one answer.
// Unique per answer; immutable once the submission is finalised.
type Grade struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AnswerID     uint      `gorm:"not null;uniqueIndex" json:"answer_id"`
	InstructorID uint      `gorm:"not null" json:"instructor_id"`
	MarksAwarded float64   `gorm:"not null" json:"marks_awarded"`
	Feedback     string    `gorm:"type:text" json:"feedback"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
