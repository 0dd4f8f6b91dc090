package dto

import (
	"time"

	"github.com/assessly/assessly-api/internal/models"
)

// ModuleCreateRequest describes the payload for creating a draft module.
type ModuleCreateRequest struct {
	Title           string     `json:"title" validate:"required,min=3,max=255"`
	Description     string     `json:"description"`
	SubmissionStart *time.Time `json:"submission_start"`
	SubmissionEnd   *time.Time `json:"submission_end"`
}

// MembershipRequest adds an instructor assignment or student enrollment.
type MembershipRequest struct {
	UserID uint `json:"user_id" validate:"required,gt=0"`
}

// ModuleResponse is the staff-facing module shape.
type ModuleResponse struct {
	ID              uint                `json:"id"`
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	Status          models.ModuleStatus `json:"status"`
	ReadyForPublish bool                `json:"ready_for_publish"`
	SubmissionStart *time.Time          `json:"submission_start"`
	SubmissionEnd   *time.Time          `json:"submission_end"`
	PublishedAt     *time.Time          `json:"published_at"`
	CreatedAt       time.Time           `json:"created_at"`
}

// StudentModuleResponse is the student-facing module shape. Publishing
// internals such as the readiness flag are not exposed.
type StudentModuleResponse struct {
	ID              uint       `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	SubmissionStart *time.Time `json:"submission_start"`
	SubmissionEnd   *time.Time `json:"submission_end"`
	PublishedAt     *time.Time `json:"published_at"`
}

// NewModuleResponse converts a Module model into the staff shape.
func NewModuleResponse(module models.Module) ModuleResponse {
	return ModuleResponse{
		ID:              module.ID,
		Title:           module.Title,
		Description:     module.Description,
		Status:          module.Status,
		ReadyForPublish: module.ReadyForPublish,
		SubmissionStart: module.SubmissionStart,
		SubmissionEnd:   module.SubmissionEnd,
		PublishedAt:     module.PublishedAt,
		CreatedAt:       module.CreatedAt,
	}
}

// NewStudentModuleResponse converts a Module model into the student shape.
func NewStudentModuleResponse(module models.Module) StudentModuleResponse {
	return StudentModuleResponse{
		ID:              module.ID,
		Title:           module.Title,
		Description:     module.Description,
		SubmissionStart: module.SubmissionStart,
		SubmissionEnd:   module.SubmissionEnd,
		PublishedAt:     module.PublishedAt,
	}
}

// NewModuleResponses maps a slice of modules into the staff shape.
func NewModuleResponses(modules []models.Module) []ModuleResponse {
	responses := make([]ModuleResponse, 0, len(modules))
	for _, module := range modules {
		responses = append(responses, NewModuleResponse(module))
	}
	return responses
}

// NewStudentModuleResponses maps a slice of modules into the student shape.
func NewStudentModuleResponses(modules []models.Module) []StudentModuleResponse {
	responses := make([]StudentModuleResponse, 0, len(modules))
	for _, module := range modules {
		responses = append(responses, NewStudentModuleResponse(module))
	}
	return responses
}
