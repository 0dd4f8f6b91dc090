package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/assessly/assessly-api/internal/apperr"
	"github.com/assessly/assessly-api/internal/models"
	"github.com/assessly/assessly-api/internal/repository"
)

// Guard evaluates the caller's relationship to a module before an operation
// touches business data. Role checks happen at the middleware layer; the
// guard adds the ownership/assignment dimension. Checks are read-only and
// short-circuit before any mutation.
type Guard struct {
	modules repository.ModuleRepository
}

// NewGuard constructs the authorization guard.
func NewGuard(modules repository.ModuleRepository) Guard {
	return Guard{modules: modules}
}

// Module loads the module or reports NotFound. Existence is hidden behind
// the same generic message regardless of why the lookup failed.
func (g Guard) Module(ctx context.Context, moduleID uint) (models.Module, error) {
	module, err := g.modules.GetByID(ctx, moduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Module{}, apperr.NotFound("module not found")
		}
		return models.Module{}, apperr.Internal(fmt.Errorf("failed to load module: %w", err))
	}

	return module, nil
}

// RequireInstructor verifies the actor is an instructor assigned to the
// module. Admins do not satisfy this check; instructor-only operations stay
// instructor-only.
func (g Guard) RequireInstructor(ctx context.Context, actor Actor, moduleID uint) error {
	if !actor.IsInstructor() {
		return apperr.Forbidden("instructor role required")
	}

	assigned, err := g.modules.IsInstructorAssigned(ctx, moduleID, actor.ID)
	if err != nil {
		return apperr.Internal(fmt.Errorf("failed to check instructor assignment: %w", err))
	}
	if !assigned {
		return apperr.Forbidden("not assigned to this module")
	}

	return nil
}

// RequireGrader verifies the actor may grade submissions for the module:
// either an assigned instructor or an admin.
func (g Guard) RequireGrader(ctx context.Context, actor Actor, moduleID uint) error {
	if actor.IsAdmin() {
		return nil
	}

	return g.RequireInstructor(ctx, actor, moduleID)
}

// RequireEnrolledStudent verifies the actor is a student enrolled in the
// module. A non-enrolled student receives NotFound rather than Forbidden so
// the module's existence is not leaked.
func (g Guard) RequireEnrolledStudent(ctx context.Context, actor Actor, module models.Module) error {
	if !actor.IsStudent() {
		return apperr.Forbidden("student role required")
	}

	enrolled, err := g.modules.IsStudentEnrolled(ctx, module.ID, actor.ID)
	if err != nil {
		return apperr.Internal(fmt.Errorf("failed to check enrollment: %w", err))
	}
	if !enrolled {
		return apperr.NotFound("module not found")
	}

	return nil
}

// RequireStudentContentAccess adds the published-status gate on top of
// enrollment for any student content read.
func (g Guard) RequireStudentContentAccess(ctx context.Context, actor Actor, module models.Module) error {
	if err := g.RequireEnrolledStudent(ctx, actor, module); err != nil {
		return err
	}

	if module.Status != models.ModuleStatusPublished {
		return apperr.NotFound("module not found")
	}

	return nil
}
