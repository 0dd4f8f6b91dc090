package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/assessly/assessly-api/internal/apperr"
	"github.com/assessly/assessly-api/internal/dto"
	"github.com/assessly/assessly-api/internal/models"
	"github.com/assessly/assessly-api/internal/repository"
)

// GradingService records per-sub-question scores and drives the
// submitted -> graded -> finalised tail of the submission lifecycle.
type GradingService interface {
	RecordGrade(ctx context.Context, payload dto.GradeRequest, actor Actor) (models.Grade, models.Submission, error)
	Finalise(ctx context.Context, submissionID uint, actor Actor) (models.Submission, error)
}

type gradingService struct {
	submissions repository.SubmissionRepository
	content     repository.ContentRepository
	guard       Guard
	validator   *validator.Validate
	policy      *bluemonday.Policy
	activity    ActivityRecorder
	logger      zerolog.Logger
	now         func() time.Time
}

// NewGradingService constructs the grading service.
func NewGradingService(submissions repository.SubmissionRepository, content repository.ContentRepository, modules repository.ModuleRepository, validator *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) GradingService {
	return &gradingService{
		submissions: submissions,
		content:     content,
		guard:       NewGuard(modules),
		validator:   validator,
		policy:      bluemonday.StrictPolicy(),
		activity:    activity,
		logger:      logger.With().Str("component", "grading_service").Logger(),
		now:         time.Now,
	}
}

// RecordGrade upserts the score for one (submission, sub-question) pair.
// The first grade written while the submission is submitted also moves it
// to graded via markGraded.
func (s *gradingService) RecordGrade(ctx context.Context, payload dto.GradeRequest, actor Actor) (models.Grade, models.Submission, error) {
	tracer := otel.Tracer("github.com/assessly/assessly-api/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.record")
	span.SetAttributes(
		attribute.Int64("grading.submission_id", int64(payload.SubmissionID)),
		attribute.Int64("grading.actor_id", int64(actor.ID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return models.Grade{}, models.Submission{}, err
	}

	submission, err := s.loadSubmission(ctx, payload.SubmissionID)
	if err != nil {
		span.RecordError(err)
		return models.Grade{}, models.Submission{}, err
	}

	if err := s.guard.RequireGrader(ctx, actor, submission.ModuleID); err != nil {
		span.RecordError(err)
		return models.Grade{}, models.Submission{}, err
	}

	if !submission.Status.VisibleToInstructors() {
		return models.Grade{}, models.Submission{}, apperr.NotFound("submission not found")
	}

	if !submission.Status.AcceptsGrades() {
		span.SetStatus(codes.Error, "submission_not_gradable")
		return models.Grade{}, models.Submission{}, apperr.Forbidden("submission can no longer be graded")
	}

	answer, err := s.submissions.GetAnswer(ctx, submission.ID, payload.SubQuestionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Grade{}, models.Submission{}, apperr.Forbidden("sub-question has no answer to grade")
		}
		return models.Grade{}, models.Submission{}, apperr.Internal(fmt.Errorf("failed to load answer: %w", err))
	}

	// Max marks stay advisory; a breach is logged rather than rejected.
	if subQuestion, err := s.content.GetSubQuestion(ctx, payload.SubQuestionID); err == nil {
		if payload.MarksAwarded > float64(subQuestion.MaxMarks) {
			s.logger.Warn().
				Uint("sub_question_id", subQuestion.ID).
				Float64("marks_awarded", payload.MarksAwarded).
				Int("max_marks", subQuestion.MaxMarks).
				Msg("score exceeds max marks")
		}
	}

	grade := models.Grade{
		AnswerID:     answer.ID,
		InstructorID: actor.ID,
		MarksAwarded: payload.MarksAwarded,
		Feedback:     s.policy.Sanitize(strings.TrimSpace(payload.Feedback)),
	}

	if err := s.submissions.UpsertGrade(ctx, &grade); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "grade_upsert_failed")
		return models.Grade{}, models.Submission{}, apperr.Internal(fmt.Errorf("failed to record grade: %w", err))
	}

	submission, err = s.markGraded(ctx, submission, actor)
	if err != nil {
		return models.Grade{}, models.Submission{}, err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "submission.grade_recorded",
		EntityType: "submission",
		EntityID:   &submission.ID,
		Metadata: map[string]interface{}{
			"sub_question_id": payload.SubQuestionID,
			"marks_awarded":   payload.MarksAwarded,
		},
	})

	span.SetAttributes(
		attribute.Float64("grading.marks_awarded", payload.MarksAwarded),
		attribute.String("grading.status", string(submission.Status)),
	)

	return grade, submission, nil
}

// markGraded is the derived transition: the first grade written while the
// submission sits in submitted flips it to graded. The compare-and-set
// ensures exactly one request performs the flip under concurrency; losing
// the race is fine because the winner made the same move.
func (s *gradingService) markGraded(ctx context.Context, submission models.Submission, actor Actor) (models.Submission, error) {
	if submission.Status != models.SubmissionStatusSubmitted {
		return submission, nil
	}

	moved, err := s.submissions.TransitionStatus(ctx, submission.ID, models.SubmissionStatusSubmitted, models.SubmissionStatusGraded, s.now())
	if err != nil {
		return models.Submission{}, apperr.Internal(fmt.Errorf("failed to mark submission graded: %w", err))
	}

	if moved {
		recordActivity(ctx, s.activity, s.logger, ActivityEntry{
			Actor:      actor,
			Action:     "submission.graded",
			EntityType: "submission",
			EntityID:   &submission.ID,
		})
	}

	return s.reload(ctx, submission.ID)
}

// Finalise irreversibly locks a graded submission. Only the exact graded
// state is accepted; submitted work fails because grading is presumed
// complete before finalising.
func (s *gradingService) Finalise(ctx context.Context, submissionID uint, actor Actor) (models.Submission, error) {
	submission, err := s.loadSubmission(ctx, submissionID)
	if err != nil {
		return models.Submission{}, err
	}

	if err := s.guard.RequireGrader(ctx, actor, submission.ModuleID); err != nil {
		return models.Submission{}, err
	}

	if !submission.Status.VisibleToInstructors() {
		return models.Submission{}, apperr.NotFound("submission not found")
	}

	moved, err := s.submissions.TransitionStatus(ctx, submissionID, models.SubmissionStatusGraded, models.SubmissionStatusFinalised, s.now())
	if err != nil {
		return models.Submission{}, apperr.Internal(fmt.Errorf("failed to finalise submission: %w", err))
	}
	if !moved {
		return models.Submission{}, apperr.Forbidden("only graded submissions can be finalised")
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "submission.finalised",
		EntityType: "submission",
		EntityID:   &submissionID,
	})

	return s.reload(ctx, submissionID)
}

func (s *gradingService) loadSubmission(ctx context.Context, id uint) (models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, apperr.NotFound("submission not found")
		}
		return models.Submission{}, apperr.Internal(fmt.Errorf("failed to load submission: %w", err))
	}

	return submission, nil
}

func (s *gradingService) reload(ctx context.Context, id uint) (models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		return models.Submission{}, apperr.Internal(fmt.Errorf("failed to reload submission: %w", err))
	}

	return submission, nil
}
