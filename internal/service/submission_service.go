package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/assessly/assessly-api/internal/apperr"
	"github.com/assessly/assessly-api/internal/dto"
	"github.com/assessly/assessly-api/internal/models"
	"github.com/assessly/assessly-api/internal/repository"
)

// SubmissionService governs the per-student submission lifecycle and the
// answer writes tied to it.
type SubmissionService interface {
	Start(ctx context.Context, moduleID uint, actor Actor) (models.Submission, error)
	Submit(ctx context.Context, moduleID uint, actor Actor) (models.Submission, error)
	SaveAnswer(ctx context.Context, payload dto.AnswerUpsertRequest, actor Actor) (models.Answer, error)
	GetOwnAnswers(ctx context.Context, moduleID uint, actor Actor) (models.Submission, []models.Answer, error)
	GetForGrading(ctx context.Context, submissionID uint, actor Actor) (models.Submission, []models.Answer, error)
	ListForModule(ctx context.Context, moduleID uint, actor Actor) ([]models.Submission, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	content     repository.ContentRepository
	guard       Guard
	validator   *validator.Validate
	activity    ActivityRecorder
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs the submission lifecycle service.
func NewSubmissionService(submissions repository.SubmissionRepository, content repository.ContentRepository, modules repository.ModuleRepository, validator *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: submissions,
		content:     content,
		guard:       NewGuard(modules),
		validator:   validator,
		activity:    activity,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

// Start lazily creates the caller's draft submission. Concurrent first-touch
// is resolved by the repository's conflict-tolerant insert, so exactly one
// row per (module, student) pair exists afterwards.
func (s *submissionService) Start(ctx context.Context, moduleID uint, actor Actor) (models.Submission, error) {
	module, err := s.guard.Module(ctx, moduleID)
	if err != nil {
		return models.Submission{}, err
	}

	if err := s.guard.RequireStudentContentAccess(ctx, actor, module); err != nil {
		return models.Submission{}, err
	}

	submission, err := s.submissions.EnsureDraft(ctx, moduleID, actor.ID)
	if err != nil {
		return models.Submission{}, apperr.Internal(fmt.Errorf("failed to ensure draft submission: %w", err))
	}

	return submission, nil
}

// Submit moves the caller's submission from draft to submitted. The
// compare-and-set update rejects anything but the draft state, so a
// double-submit or a raced submit fails cleanly.
func (s *submissionService) Submit(ctx context.Context, moduleID uint, actor Actor) (models.Submission, error) {
	tracer := otel.Tracer("github.com/assessly/assessly-api/internal/service/submission")
	ctx, span := tracer.Start(ctx, "submission.submit")
	span.SetAttributes(attribute.Int64("module.id", int64(moduleID)))
	defer span.End()

	module, err := s.guard.Module(ctx, moduleID)
	if err != nil {
		return models.Submission{}, err
	}

	if err := s.guard.RequireStudentContentAccess(ctx, actor, module); err != nil {
		return models.Submission{}, err
	}

	submission, err := s.submissions.GetByModuleAndStudent(ctx, moduleID, actor.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, apperr.NotFound("submission not found")
		}
		return models.Submission{}, apperr.Internal(fmt.Errorf("failed to load submission: %w", err))
	}

	moved, err := s.submissions.TransitionStatus(ctx, submission.ID, models.SubmissionStatusDraft, models.SubmissionStatusSubmitted, s.now())
	if err != nil {
		return models.Submission{}, apperr.Internal(fmt.Errorf("failed to submit: %w", err))
	}
	if !moved {
		return models.Submission{}, apperr.Forbidden("submission is no longer a draft")
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "submission.submitted",
		EntityType: "submission",
		EntityID:   &submission.ID,
		Metadata:   map[string]interface{}{"module_id": moduleID},
	})

	return s.reload(ctx, submission.ID)
}

// SaveAnswer upserts one answer into the caller's draft submission. Answer
// writes are rejected the moment the submission leaves draft.
func (s *submissionService) SaveAnswer(ctx context.Context, payload dto.AnswerUpsertRequest, actor Actor) (models.Answer, error) {
	if err := s.validator.Struct(payload); err != nil {
		return models.Answer{}, err
	}

	module, err := s.guard.Module(ctx, payload.ModuleID)
	if err != nil {
		return models.Answer{}, err
	}

	if err := s.guard.RequireStudentContentAccess(ctx, actor, module); err != nil {
		return models.Answer{}, err
	}

	ownerModuleID, err := s.content.ModuleIDForSubQuestion(ctx, payload.SubQuestionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Answer{}, apperr.NotFound("sub-question not found")
		}
		return models.Answer{}, apperr.Internal(fmt.Errorf("failed to resolve sub-question: %w", err))
	}
	if ownerModuleID != payload.ModuleID {
		return models.Answer{}, apperr.NotFound("sub-question not found")
	}

	submission, err := s.submissions.EnsureDraft(ctx, payload.ModuleID, actor.ID)
	if err != nil {
		return models.Answer{}, apperr.Internal(fmt.Errorf("failed to ensure draft submission: %w", err))
	}

	if !submission.Status.AcceptsAnswers() {
		return models.Answer{}, apperr.Forbidden("answers can no longer be changed after submitting")
	}

	answer := models.Answer{
		SubmissionID:  submission.ID,
		SubQuestionID: payload.SubQuestionID,
		AnswerText:    payload.AnswerText,
	}

	if err := s.submissions.UpsertAnswer(ctx, &answer); err != nil {
		return models.Answer{}, apperr.Internal(fmt.Errorf("failed to save answer: %w", err))
	}

	return answer, nil
}

// GetOwnAnswers returns the caller's submission with its answers. Grade and
// feedback fields become visible downstream only once the status exposes
// them; the DTO layer enforces that using the returned status.
func (s *submissionService) GetOwnAnswers(ctx context.Context, moduleID uint, actor Actor) (models.Submission, []models.Answer, error) {
	module, err := s.guard.Module(ctx, moduleID)
	if err != nil {
		return models.Submission{}, nil, err
	}

	if err := s.guard.RequireStudentContentAccess(ctx, actor, module); err != nil {
		return models.Submission{}, nil, err
	}

	submission, err := s.submissions.EnsureDraft(ctx, moduleID, actor.ID)
	if err != nil {
		return models.Submission{}, nil, apperr.Internal(fmt.Errorf("failed to load submission: %w", err))
	}

	answers, err := s.submissions.ListAnswers(ctx, submission.ID)
	if err != nil {
		return models.Submission{}, nil, apperr.Internal(fmt.Errorf("failed to list answers: %w", err))
	}

	return submission, answers, nil
}

// GetForGrading returns a student's submission for an instructor or admin.
// Draft submissions stay invisible; the caller sees NotFound.
func (s *submissionService) GetForGrading(ctx context.Context, submissionID uint, actor Actor) (models.Submission, []models.Answer, error) {
	submission, err := s.loadSubmission(ctx, submissionID)
	if err != nil {
		return models.Submission{}, nil, err
	}

	if err := s.guard.RequireGrader(ctx, actor, submission.ModuleID); err != nil {
		return models.Submission{}, nil, err
	}

	if !submission.Status.VisibleToInstructors() {
		return models.Submission{}, nil, apperr.NotFound("submission not found")
	}

	answers, err := s.submissions.ListAnswers(ctx, submission.ID)
	if err != nil {
		return models.Submission{}, nil, apperr.Internal(fmt.Errorf("failed to list answers: %w", err))
	}

	return submission, answers, nil
}

// ListForModule lists a module's submissions for staff. Drafts are filtered
// out so in-progress work stays private to its student.
func (s *submissionService) ListForModule(ctx context.Context, moduleID uint, actor Actor) ([]models.Submission, error) {
	if _, err := s.guard.Module(ctx, moduleID); err != nil {
		return nil, err
	}

	if err := s.guard.RequireGrader(ctx, actor, moduleID); err != nil {
		return nil, err
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{
		ModuleID: &moduleID,
		Statuses: []models.SubmissionStatus{
			models.SubmissionStatusSubmitted,
			models.SubmissionStatusGraded,
			models.SubmissionStatusFinalised,
		},
	})
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to list submissions: %w", err))
	}

	return submissions, nil
}

func (s *submissionService) loadSubmission(ctx context.Context, id uint) (models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, apperr.NotFound("submission not found")
		}
		return models.Submission{}, apperr.Internal(fmt.Errorf("failed to load submission: %w", err))
	}

	return submission, nil
}

func (s *submissionService) reload(ctx context.Context, id uint) (models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return models.Submission{}, apperr.Internal(fmt.Errorf("failed to reload submission: %w", err))
	}

	return submission, nil
}
