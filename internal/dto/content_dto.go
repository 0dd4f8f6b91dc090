package dto

import (
	"time"

	"github.com/assessly/assessly-api/internal/models"
)

// QuestionCreateRequest describes the payload for adding a question.
// OrderIndex may be omitted; the next free index is assigned.
type QuestionCreateRequest struct {
	ModuleID     uint   `json:"module_id" validate:"required,gt=0"`
	Title        string `json:"title" validate:"required,min=3,max=255"`
	ScenarioText string `json:"scenario_text"`
	OrderIndex   int    `json:"order_index" validate:"omitempty,gt=0"`
}

// QuestionUpdateRequest carries partial updates for a question.
type QuestionUpdateRequest struct {
	Title        *string `json:"title" validate:"omitempty,min=3,max=255"`
	ScenarioText *string `json:"scenario_text"`
}

// PartCreateRequest describes the payload for adding a part.
type PartCreateRequest struct {
	QuestionID uint   `json:"question_id" validate:"required,gt=0"`
	Label      string `json:"label" validate:"required,oneof=A B"`
}

// SubQuestionCreateRequest describes the payload for adding a sub-question.
type SubQuestionCreateRequest struct {
	PartID     uint   `json:"part_id" validate:"required,gt=0"`
	Prompt     string `json:"prompt" validate:"required"`
	MaxMarks   int    `json:"max_marks" validate:"required,gt=0"`
	OrderIndex int    `json:"order_index" validate:"omitempty,gt=0"`
}

// ArtefactCreateRequest registers an externally stored file for a question.
type ArtefactCreateRequest struct {
	QuestionID uint   `json:"question_id" validate:"required,gt=0"`
	Filename   string `json:"filename" validate:"required,max=255"`
	FileType   string `json:"file_type" validate:"omitempty,max=128"`
	StorageKey string `json:"storage_key" validate:"required,max=512"`
}

// SubQuestionResponse serializes a sub-question.
type SubQuestionResponse struct {
	ID         uint   `json:"id"`
	PartID     uint   `json:"part_id"`
	Prompt     string `json:"prompt"`
	MaxMarks   int    `json:"max_marks"`
	OrderIndex int    `json:"order_index"`
}

// PartResponse serializes a part with its sub-questions.
type PartResponse struct {
	ID           uint                  `json:"id"`
	QuestionID   uint                  `json:"question_id"`
	Label        string                `json:"label"`
	SubQuestions []SubQuestionResponse `json:"sub_questions"`
}

// ArtefactResponse serializes an artefact descriptor.
type ArtefactResponse struct {
	ID         uint      `json:"id"`
	QuestionID uint      `json:"question_id"`
	Filename   string    `json:"filename"`
	FileType   string    `json:"file_type"`
	UploadedBy uint      `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// QuestionResponse serializes a question with its hierarchy.
type QuestionResponse struct {
	ID           uint               `json:"id"`
	ModuleID     uint               `json:"module_id"`
	Title        string             `json:"title"`
	ScenarioText string             `json:"scenario_text"`
	OrderIndex   int                `json:"order_index"`
	Parts        []PartResponse     `json:"parts"`
	Artefacts    []ArtefactResponse `json:"artefacts"`
}

// NewSubQuestionResponse converts a SubQuestion model.
func NewSubQuestionResponse(subQuestion models.SubQuestion) SubQuestionResponse {
	return SubQuestionResponse{
		ID:         subQuestion.ID,
		PartID:     subQuestion.PartID,
		Prompt:     subQuestion.Prompt,
		MaxMarks:   subQuestion.MaxMarks,
		OrderIndex: subQuestion.OrderIndex,
	}
}

// NewPartResponse converts a Part model and its children.
func NewPartResponse(part models.Part) PartResponse {
	subQuestions := make([]SubQuestionResponse, 0, len(part.SubQuestions))
	for _, subQuestion := range part.SubQuestions {
		subQuestions = append(subQuestions, NewSubQuestionResponse(subQuestion))
	}

	return PartResponse{
		ID:           part.ID,
		QuestionID:   part.QuestionID,
		Label:        part.Label,
		SubQuestions: subQuestions,
	}
}

// NewArtefactResponse converts an Artefact model.
func NewArtefactResponse(artefact models.Artefact) ArtefactResponse {
	return ArtefactResponse{
		ID:         artefact.ID,
		QuestionID: artefact.QuestionID,
		Filename:   artefact.Filename,
		FileType:   artefact.FileType,
		UploadedBy: artefact.UploadedBy,
		CreatedAt:  artefact.CreatedAt,
	}
}

// NewQuestionResponse converts a Question model and its hierarchy.
func NewQuestionResponse(question models.Question) QuestionResponse {
	parts := make([]PartResponse, 0, len(question.Parts))
	for _, part := range question.Parts {
		parts = append(parts, NewPartResponse(part))
	}

	artefacts := make([]ArtefactResponse, 0, len(question.Artefacts))
	for _, artefact := range question.Artefacts {
		artefacts = append(artefacts, NewArtefactResponse(artefact))
	}

	return QuestionResponse{
		ID:           question.ID,
		ModuleID:     question.ModuleID,
		Title:        question.Title,
		ScenarioText: question.ScenarioText,
		OrderIndex:   question.OrderIndex,
		Parts:        parts,
		Artefacts:    artefacts,
	}
}

// NewQuestionResponses maps a slice of questions.
func NewQuestionResponses(questions []models.Question) []QuestionResponse {
	responses := make([]QuestionResponse, 0, len(questions))
	for _, question := range questions {
		responses = append(responses, NewQuestionResponse(question))
	}
	return responses
}
