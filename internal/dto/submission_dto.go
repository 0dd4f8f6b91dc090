package dto

import (
	"time"

	"github.com/assessly/assessly-api/internal/models"
)

// SubmissionActionRequest targets the caller's submission for a module.
type SubmissionActionRequest struct {
	ModuleID uint `json:"module_id" validate:"required,gt=0"`
}

// AnswerUpsertRequest saves one answer into the caller's draft submission.
type AnswerUpsertRequest struct {
	ModuleID      uint   `json:"module_id" validate:"required,gt=0"`
	SubQuestionID uint   `json:"sub_question_id" validate:"required,gt=0"`
	AnswerText    string `json:"answer_text"`
}

// GradeRequest records a score for one (submission, sub-question) pair.
type GradeRequest struct {
	SubmissionID  uint    `json:"submission_id" validate:"required,gt=0"`
	SubQuestionID uint    `json:"sub_question_id" validate:"required,gt=0"`
	MarksAwarded  float64 `json:"marks_awarded" validate:"gte=0"`
	Feedback      string  `json:"feedback"`
}

// FinaliseRequest locks a fully graded submission.
type FinaliseRequest struct {
	SubmissionID uint `json:"submission_id" validate:"required,gt=0"`
}

// AnswerResponse serializes one answer. Grade fields stay nil until the
// submission status exposes them and the sub-question has been graded.
type AnswerResponse struct {
	ID            uint     `json:"id"`
	SubQuestionID uint     `json:"sub_question_id"`
	AnswerText    string   `json:"answer_text"`
	MarksAwarded  *float64 `json:"marks_awarded,omitempty"`
	Feedback      *string  `json:"feedback,omitempty"`
}

// SubmissionResponse serializes a submission and its lifecycle timestamps.
type SubmissionResponse struct {
	ID          uint                    `json:"id"`
	ModuleID    uint                    `json:"module_id"`
	StudentID   uint                    `json:"student_id"`
	Status      models.SubmissionStatus `json:"status"`
	SubmittedAt *time.Time              `json:"submitted_at"`
	GradedAt    *time.Time              `json:"graded_at"`
	FinalisedAt *time.Time              `json:"finalised_at"`
	CreatedAt   time.Time               `json:"created_at"`
	Student     *UserResponse           `json:"student,omitempty"`
}

// AnswersResponse is the GET /answers payload.
type AnswersResponse struct {
	SubmissionID uint                    `json:"submission_id"`
	Status       models.SubmissionStatus `json:"status"`
	Answers      []AnswerResponse        `json:"answers"`
}

// NewAnswerResponse converts an Answer, exposing grade fields only when the
// submission status allows it.
func NewAnswerResponse(answer models.Answer, exposeGrades bool) AnswerResponse {
	response := AnswerResponse{
		ID:            answer.ID,
		SubQuestionID: answer.SubQuestionID,
		AnswerText:    answer.AnswerText,
	}

	if exposeGrades && answer.Grade != nil {
		marks := answer.Grade.MarksAwarded
		feedback := answer.Grade.Feedback
		response.MarksAwarded = &marks
		response.Feedback = &feedback
	}

	return response
}

// NewAnswersResponse converts a submission's answers.
func NewAnswersResponse(submission models.Submission, answers []models.Answer) AnswersResponse {
	exposeGrades := submission.Status.ExposesGrades()
	items := make([]AnswerResponse, 0, len(answers))
	for _, answer := range answers {
		items = append(items, NewAnswerResponse(answer, exposeGrades))
	}

	return AnswersResponse{
		SubmissionID: submission.ID,
		Status:       submission.Status,
		Answers:      items,
	}
}

// NewSubmissionResponse converts a Submission model.
func NewSubmissionResponse(submission models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:          submission.ID,
		ModuleID:    submission.ModuleID,
		StudentID:   submission.StudentID,
		Status:      submission.Status,
		SubmittedAt: submission.SubmittedAt,
		GradedAt:    submission.GradedAt,
		FinalisedAt: submission.FinalisedAt,
		CreatedAt:   submission.CreatedAt,
	}

	if submission.Student != nil {
		student := NewUserResponse(*submission.Student)
		response.Student = &student
	}

	return response
}

// NewSubmissionResponses maps a slice of submissions.
func NewSubmissionResponses(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}
	return responses
}
