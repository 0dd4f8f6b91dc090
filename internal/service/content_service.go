package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/assessly/assessly-api/internal/apperr"
	"github.com/assessly/assessly-api/internal/dto"
	"github.com/assessly/assessly-api/internal/models"
	"github.com/assessly/assessly-api/internal/repository"
)

// ContentService manages the question hierarchy beneath a module. Every
// mutation requires an assigned instructor and a module still in draft.
type ContentService interface {
	CreateQuestion(ctx context.Context, payload dto.QuestionCreateRequest, actor Actor) (models.Question, error)
	UpdateQuestion(ctx context.Context, id uint, payload dto.QuestionUpdateRequest, actor Actor) (models.Question, error)
	DeleteQuestion(ctx context.Context, id uint, actor Actor) error
	ListQuestions(ctx context.Context, moduleID uint, actor Actor) ([]models.Question, error)
	CreatePart(ctx context.Context, payload dto.PartCreateRequest, actor Actor) (models.Part, error)
	CreateSubQuestion(ctx context.Context, payload dto.SubQuestionCreateRequest, actor Actor) (models.SubQuestion, error)
	CreateArtefact(ctx context.Context, payload dto.ArtefactCreateRequest, actor Actor) (models.Artefact, error)
	DeleteArtefact(ctx context.Context, id uint, actor Actor) error
}

type contentService struct {
	content   repository.ContentRepository
	guard     Guard
	validator *validator.Validate
	policy    *bluemonday.Policy
	logger    zerolog.Logger
}

// NewContentService constructs the content hierarchy service.
func NewContentService(content repository.ContentRepository, modules repository.ModuleRepository, validator *validator.Validate, logger zerolog.Logger) ContentService {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("p", "strong", "em", "ul", "ol", "li", "br", "code", "pre")

	return &contentService{
		content:   content,
		guard:     NewGuard(modules),
		validator: validator,
		policy:    policy,
		logger:    logger.With().Str("component", "content_service").Logger(),
	}
}

// requireDraftInstructor bundles the two preconditions shared by every
// content mutation: assigned instructor and module still in draft.
func (s *contentService) requireDraftInstructor(ctx context.Context, actor Actor, moduleID uint) error {
	module, err := s.guard.Module(ctx, moduleID)
	if err != nil {
		return err
	}

	if err := s.guard.RequireInstructor(ctx, actor, moduleID); err != nil {
		return err
	}

	if module.Status != models.ModuleStatusDraft {
		return apperr.Forbidden("content is frozen once the module leaves draft")
	}

	return nil
}

func (s *contentService) CreateQuestion(ctx context.Context, payload dto.QuestionCreateRequest, actor Actor) (models.Question, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.Question{}, err
	}

	if err := s.requireDraftInstructor(ctx, actor, payload.ModuleID); err != nil {
		return models.Question{}, err
	}

	question := models.Question{
		ModuleID:     payload.ModuleID,
		Title:        payload.Title,
		ScenarioText: s.policy.Sanitize(payload.ScenarioText),
		OrderIndex:   payload.OrderIndex,
	}

	if err := s.content.CreateQuestion(ctx, &question); err != nil {
		return models.Question{}, apperr.Internal(fmt.Errorf("failed to create question: %w", err))
	}

	return question, nil
}

func (s *contentService) UpdateQuestion(ctx context.Context, id uint, payload dto.QuestionUpdateRequest, actor Actor) (models.Question, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.Question{}, err
	}

	question, err := s.loadQuestion(ctx, id)
	if err != nil {
		return models.Question{}, err
	}

	if err := s.requireDraftInstructor(ctx, actor, question.ModuleID); err != nil {
		return models.Question{}, err
	}

	if payload.Title != nil {
		question.Title = *payload.Title
	}
	if payload.ScenarioText != nil {
		question.ScenarioText = s.policy.Sanitize(*payload.ScenarioText)
	}

	if err := s.content.UpdateQuestion(ctx, &question); err != nil {
		return models.Question{}, apperr.Internal(fmt.Errorf("failed to update question: %w", err))
	}

	return question, nil
}

func (s *contentService) DeleteQuestion(ctx context.Context, id uint, actor Actor) error {
	question, err := s.loadQuestion(ctx, id)
	if err != nil {
		return err
	}

	if err := s.requireDraftInstructor(ctx, actor, question.ModuleID); err != nil {
		return err
	}

	if err := s.content.DeleteQuestion(ctx, id); err != nil {
		return apperr.Internal(fmt.Errorf("failed to delete question: %w", err))
	}

	s.logger.Info().Uint("question_id", id).Msg("question deleted with cascade")

	return nil
}

// ListQuestions returns the hierarchy for any caller the module guard admits.
func (s *contentService) ListQuestions(ctx context.Context, moduleID uint, actor Actor) ([]models.Question, error) {
	module, err := s.guard.Module(ctx, moduleID)
	if err != nil {
		return nil, err
	}

	switch {
	case actor.IsAdmin():
	case actor.IsInstructor():
		if err := s.guard.RequireInstructor(ctx, actor, moduleID); err != nil {
			return nil, apperr.NotFound("module not found")
		}
	case actor.IsStudent():
		if err := s.guard.RequireStudentContentAccess(ctx, actor, module); err != nil {
			return nil, err
		}
	default:
		return nil, apperr.Forbidden("insufficient permissions")
	}

	questions, err := s.content.ListQuestions(ctx, moduleID)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to list questions: %w", err))
	}

	return questions, nil
}

// CreatePart upserts on the (question, label) pair: re-creating an existing
// label returns the current row instead of erroring.
func (s *contentService) CreatePart(ctx context.Context, payload dto.PartCreateRequest, actor Actor) (models.Part, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.Part{}, err
	}

	if !models.ValidPartLabel(payload.Label) {
		return models.Part{}, apperr.Validation("part label must be A or B")
	}

	question, err := s.loadQuestion(ctx, payload.QuestionID)
	if err != nil {
		return models.Part{}, err
	}

	if err := s.requireDraftInstructor(ctx, actor, question.ModuleID); err != nil {
		return models.Part{}, err
	}

	part := models.Part{QuestionID: payload.QuestionID, Label: payload.Label}
	if err := s.content.UpsertPart(ctx, &part); err != nil {
		return models.Part{}, apperr.Internal(fmt.Errorf("failed to upsert part: %w", err))
	}

	return part, nil
}

func (s *contentService) CreateSubQuestion(ctx context.Context, payload dto.SubQuestionCreateRequest, actor Actor) (models.SubQuestion, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.SubQuestion{}, err
	}

	part, err := s.content.GetPart(ctx, payload.PartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.SubQuestion{}, apperr.NotFound("part not found")
		}
		return models.SubQuestion{}, apperr.Internal(fmt.Errorf("failed to load part: %w", err))
	}

	question, err := s.loadQuestion(ctx, part.QuestionID)
	if err != nil {
		return models.SubQuestion{}, err
	}

	if err := s.requireDraftInstructor(ctx, actor, question.ModuleID); err != nil {
		return models.SubQuestion{}, err
	}

	subQuestion := models.SubQuestion{
		PartID:     payload.PartID,
		Prompt:     s.policy.Sanitize(payload.Prompt),
		MaxMarks:   payload.MaxMarks,
		OrderIndex: payload.OrderIndex,
	}

	if err := s.content.CreateSubQuestion(ctx, &subQuestion); err != nil {
		return models.SubQuestion{}, apperr.Internal(fmt.Errorf("failed to create sub-question: %w", err))
	}

	return subQuestion, nil
}

func (s *contentService) CreateArtefact(ctx context.Context, payload dto.ArtefactCreateRequest, actor Actor) (models.Artefact, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.Artefact{}, err
	}

	question, err := s.loadQuestion(ctx, payload.QuestionID)
	if err != nil {
		return models.Artefact{}, err
	}

	if err := s.requireDraftInstructor(ctx, actor, question.ModuleID); err != nil {
		return models.Artefact{}, err
	}

	artefact := models.Artefact{
		QuestionID: payload.QuestionID,
		Filename:   payload.Filename,
		FileType:   payload.FileType,
		StorageKey: payload.StorageKey,
		UploadedBy: actor.ID,
	}

	if err := s.content.CreateArtefact(ctx, &artefact); err != nil {
		return models.Artefact{}, apperr.Internal(fmt.Errorf("failed to create artefact: %w", err))
	}

	return artefact, nil
}

func (s *contentService) DeleteArtefact(ctx context.Context, id uint, actor Actor) error {
	artefact, err := s.content.GetArtefact(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("artefact not found")
		}
		return apperr.Internal(fmt.Errorf("failed to load artefact: %w", err))
	}

	question, err := s.loadQuestion(ctx, artefact.QuestionID)
	if err != nil {
		return err
	}

	if err := s.requireDraftInstructor(ctx, actor, question.ModuleID); err != nil {
		return err
	}

	if err := s.content.DeleteArtefact(ctx, id); err != nil {
		return apperr.Internal(fmt.Errorf("failed to delete artefact: %w", err))
	}

	return nil
}

func (s *contentService) loadQuestion(ctx context.Context, id uint) (models.Question, error) {
	question, err := s.content.GetQuestion(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Question{}, apperr.NotFound("question not found")
		}
		return models.Question{}, apperr.Internal(fmt.Errorf("failed to load question: %w", err))
	}

	return question, nil
}
