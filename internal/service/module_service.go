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

// ModuleService governs the module publish lifecycle and its memberships.
type ModuleService interface {
	Create(ctx context.Context, payload dto.ModuleCreateRequest, actor Actor) (models.Module, error)
	List(ctx context.Context, actor Actor) ([]models.Module, error)
	Get(ctx context.Context, id uint, actor Actor) (models.Module, error)
	MarkReady(ctx context.Context, id uint, actor Actor) (models.Module, error)
	Publish(ctx context.Context, id uint, actor Actor) (models.Module, error)
	Archive(ctx context.Context, id uint, actor Actor) (models.Module, error)
	Delete(ctx context.Context, id uint, actor Actor) error
	AssignInstructor(ctx context.Context, moduleID, userID uint, actor Actor) error
	EnrollStudent(ctx context.Context, moduleID, userID uint, actor Actor) error
}

type moduleService struct {
	modules   repository.ModuleRepository
	content   repository.ContentRepository
	users     repository.UserRepository
	guard     Guard
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
	now       func() time.Time
}

// NewModuleService constructs the module lifecycle service.
func NewModuleService(modules repository.ModuleRepository, content repository.ContentRepository, users repository.UserRepository, validator *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) ModuleService {
	return &moduleService{
		modules:   modules,
		content:   content,
		users:     users,
		guard:     NewGuard(modules),
		validator: validator,
		activity:  activity,
		logger:    logger.With().Str("component", "module_service").Logger(),
		now:       time.Now,
	}
}

func (s *moduleService) Create(ctx context.Context, payload dto.ModuleCreateRequest, actor Actor) (models.Module, error) {
	if !actor.IsAdmin() {
		return models.Module{}, apperr.Forbidden("admin role required")
	}

	if err := s.validator.Struct(payload); err != nil {
		return models.Module{}, err
	}

	module := models.Module{
		Title:           payload.Title,
		Description:     payload.Description,
		Status:          models.ModuleStatusDraft,
		SubmissionStart: payload.SubmissionStart,
		SubmissionEnd:   payload.SubmissionEnd,
	}

	if err := s.modules.Create(ctx, &module); err != nil {
		return models.Module{}, apperr.Internal(fmt.Errorf("failed to create module: %w", err))
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "module.created",
		EntityType: "module",
		EntityID:   &module.ID,
		Metadata:   map[string]interface{}{"title": module.Title},
	})

	return module, nil
}

// List returns the modules visible to the actor: admins see everything,
// instructors their assignments, students their published enrollments.
func (s *moduleService) List(ctx context.Context, actor Actor) ([]models.Module, error) {
	filter := repository.ModuleFilter{}

	switch {
	case actor.IsAdmin():
	case actor.IsInstructor():
		filter.InstructorID = &actor.ID
	case actor.IsStudent():
		published := models.ModuleStatusPublished
		filter.StudentID = &actor.ID
		filter.Status = &published
	default:
		return nil, apperr.Forbidden("insufficient permissions")
	}

	modules, err := s.modules.List(ctx, filter)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to list modules: %w", err))
	}

	return modules, nil
}

func (s *moduleService) Get(ctx context.Context, id uint, actor Actor) (models.Module, error) {
	module, err := s.guard.Module(ctx, id)
	if err != nil {
		return models.Module{}, err
	}

	switch {
	case actor.IsAdmin():
	case actor.IsInstructor():
		if err := s.guard.RequireInstructor(ctx, actor, id); err != nil {
			return models.Module{}, apperr.NotFound("module not found")
		}
	case actor.IsStudent():
		if err := s.guard.RequireStudentContentAccess(ctx, actor, module); err != nil {
			return models.Module{}, err
		}
	default:
		return models.Module{}, apperr.Forbidden("insufficient permissions")
	}

	return module, nil
}

// MarkReady asserts the module has a complete question hierarchy and flips
// the readiness flag that gates the admin publish action.
func (s *moduleService) MarkReady(ctx context.Context, id uint, actor Actor) (models.Module, error) {
	module, err := s.guard.Module(ctx, id)
	if err != nil {
		return models.Module{}, err
	}

	if err := s.guard.RequireInstructor(ctx, actor, id); err != nil {
		return models.Module{}, err
	}

	if module.Status != models.ModuleStatusDraft {
		return models.Module{}, apperr.Forbidden("module is no longer a draft")
	}

	questions, err := s.content.ReadinessSnapshot(ctx, id)
	if err != nil {
		return models.Module{}, apperr.Internal(fmt.Errorf("failed to load module content: %w", err))
	}

	if err := checkReadiness(questions); err != nil {
		return models.Module{}, err
	}

	module.ReadyForPublish = true
	if err := s.modules.Update(ctx, &module); err != nil {
		return models.Module{}, apperr.Internal(fmt.Errorf("failed to update module: %w", err))
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "module.ready",
		EntityType: "module",
		EntityID:   &module.ID,
	})

	return module, nil
}

// checkReadiness enforces the structural completeness rules before a module
// can be marked ready: at least one question, every question has a part,
// every part has a sub-question.
func checkReadiness(questions []models.Question) error {
	if len(questions) == 0 {
		return apperr.Forbidden("module must have at least one question")
	}

	subQuestionCount := 0
	for _, question := range questions {
		if len(question.Parts) == 0 {
			return apperr.Forbidden(fmt.Sprintf("question %q must have at least one part", question.Title))
		}
		for _, part := range question.Parts {
			if len(part.SubQuestions) == 0 {
				return apperr.Forbidden(fmt.Sprintf("part %s of question %q must have at least one sub-question", part.Label, question.Title))
			}
			subQuestionCount += len(part.SubQuestions)
		}
	}

	if subQuestionCount == 0 {
		return apperr.Forbidden("module must have at least one sub-question")
	}

	return nil
}

func (s *moduleService) Publish(ctx context.Context, id uint, actor Actor) (models.Module, error) {
	tracer := otel.Tracer("github.com/assessly/assessly-api/internal/service/module")
	ctx, span := tracer.Start(ctx, "module.publish")
	span.SetAttributes(attribute.Int64("module.id", int64(id)))
	defer span.End()

	if !actor.IsAdmin() {
		return models.Module{}, apperr.Forbidden("admin role required")
	}

	module, err := s.guard.Module(ctx, id)
	if err != nil {
		return models.Module{}, err
	}

	if !module.Status.CanTransitionTo(models.ModuleStatusPublished) {
		return models.Module{}, apperr.Forbidden("only draft modules can be published")
	}

	if !module.ReadyForPublish {
		return models.Module{}, apperr.Forbidden("module has not been marked ready for publish")
	}

	instructors, err := s.modules.CountInstructors(ctx, id)
	if err != nil {
		return models.Module{}, apperr.Internal(fmt.Errorf("failed to count instructors: %w", err))
	}
	if instructors == 0 {
		return models.Module{}, apperr.Forbidden("module must have at least one assigned instructor")
	}

	publishedAt := s.now()
	module.Status = models.ModuleStatusPublished
	module.PublishedAt = &publishedAt

	if err := s.modules.Update(ctx, &module); err != nil {
		return models.Module{}, apperr.Internal(fmt.Errorf("failed to publish module: %w", err))
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "module.published",
		EntityType: "module",
		EntityID:   &module.ID,
	})

	return module, nil
}

// Archive retires a published module. Content and submissions are kept; the
// module merely disappears from new-enrollment visibility.
func (s *moduleService) Archive(ctx context.Context, id uint, actor Actor) (models.Module, error) {
	if !actor.IsAdmin() {
		return models.Module{}, apperr.Forbidden("admin role required")
	}

	module, err := s.guard.Module(ctx, id)
	if err != nil {
		return models.Module{}, err
	}

	if !module.Status.CanTransitionTo(models.ModuleStatusArchived) {
		return models.Module{}, apperr.Forbidden("only published modules can be archived")
	}

	module.Status = models.ModuleStatusArchived
	if err := s.modules.Update(ctx, &module); err != nil {
		return models.Module{}, apperr.Internal(fmt.Errorf("failed to archive module: %w", err))
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "module.archived",
		EntityType: "module",
		EntityID:   &module.ID,
	})

	return module, nil
}

// Delete hard-deletes a draft module. Published and archived modules are
// never deletable, and even a draft is kept if anyone is enrolled.
func (s *moduleService) Delete(ctx context.Context, id uint, actor Actor) error {
	if !actor.IsAdmin() {
		return apperr.Forbidden("admin role required")
	}

	module, err := s.guard.Module(ctx, id)
	if err != nil {
		return err
	}

	if module.Status != models.ModuleStatusDraft {
		return apperr.Forbidden("only draft modules can be deleted")
	}

	enrolled, err := s.modules.CountEnrolledStudents(ctx, id)
	if err != nil {
		return apperr.Internal(fmt.Errorf("failed to count enrollments: %w", err))
	}
	if enrolled > 0 {
		return apperr.Forbidden("module with enrolled students cannot be deleted")
	}

	if err := s.modules.Delete(ctx, id); err != nil {
		return apperr.Internal(fmt.Errorf("failed to delete module: %w", err))
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "module.deleted",
		EntityType: "module",
		EntityID:   &id,
	})

	return nil
}

func (s *moduleService) AssignInstructor(ctx context.Context, moduleID, userID uint, actor Actor) error {
	if !actor.IsAdmin() {
		return apperr.Forbidden("admin role required")
	}

	if _, err := s.guard.Module(ctx, moduleID); err != nil {
		return err
	}

	if err := s.requireRole(ctx, userID, models.RoleInstructor); err != nil {
		return err
	}

	created, err := s.modules.AssignInstructor(ctx, moduleID, userID)
	if err != nil {
		return apperr.Internal(fmt.Errorf("failed to assign instructor: %w", err))
	}
	if !created {
		return apperr.Validation("instructor is already assigned to this module")
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "module.instructor_assigned",
		EntityType: "module",
		EntityID:   &moduleID,
		Metadata:   map[string]interface{}{"instructor_id": userID},
	})

	return nil
}

func (s *moduleService) EnrollStudent(ctx context.Context, moduleID, userID uint, actor Actor) error {
	if !actor.IsAdmin() {
		return apperr.Forbidden("admin role required")
	}

	module, err := s.guard.Module(ctx, moduleID)
	if err != nil {
		return err
	}

	if module.Status == models.ModuleStatusArchived {
		return apperr.Forbidden("archived modules do not accept new enrollments")
	}

	if err := s.requireRole(ctx, userID, models.RoleStudent); err != nil {
		return err
	}

	created, err := s.modules.EnrollStudent(ctx, moduleID, userID)
	if err != nil {
		return apperr.Internal(fmt.Errorf("failed to enroll student: %w", err))
	}
	if !created {
		return apperr.Validation("student is already enrolled in this module")
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "module.student_enrolled",
		EntityType: "module",
		EntityID:   &moduleID,
		Metadata:   map[string]interface{}{"student_id": userID},
	})

	return nil
}

func (s *moduleService) requireRole(ctx context.Context, userID uint, role models.Role) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("user not found")
		}
		return apperr.Internal(fmt.Errorf("failed to load user: %w", err))
	}

	if user.Role != role {
		return apperr.Validation(fmt.Sprintf("user must have the %s role", role))
	}

	return nil
}
