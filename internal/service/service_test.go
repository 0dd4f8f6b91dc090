package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/assessly/assessly-api/internal/models"
	"github.com/assessly/assessly-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// testEnv wires the services against a real in-memory store so lifecycle
// rules are exercised end to end, including the conflict-tolerant writes.
type testEnv struct {
	db          *gorm.DB
	users       repository.UserRepository
	modules     repository.ModuleRepository
	content     repository.ContentRepository
	submissions repository.SubmissionRepository
	activity    ActivityService

	moduleService     ModuleService
	contentService    ContentService
	submissionService SubmissionService
	gradingService    GradingService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Module{},
		&models.ModuleInstructor{},
		&models.ModuleStudent{},
		&models.Question{},
		&models.Part{},
		&models.SubQuestion{},
		&models.Artefact{},
		&models.Submission{},
		&models.Answer{},
		&models.Grade{},
		&models.ActivityLog{},
	))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := testLogger()

	users := repository.NewUserRepository(db)
	modules := repository.NewModuleRepository(db)
	content := repository.NewContentRepository(db)
	submissions := repository.NewSubmissionRepository(db)
	activity := NewActivityService(repository.NewActivityLogRepository(db), logger)

	return &testEnv{
		db:          db,
		users:       users,
		modules:     modules,
		content:     content,
		submissions: submissions,
		activity:    activity,

		moduleService:     NewModuleService(modules, content, users, validate, activity, logger),
		contentService:    NewContentService(content, modules, validate, logger),
		submissionService: NewSubmissionService(submissions, content, modules, validate, activity, logger),
		gradingService:    NewGradingService(submissions, content, modules, validate, activity, logger),
	}
}

func (e *testEnv) createUser(t *testing.T, email string, role models.Role) models.User {
	t.Helper()
	user := models.User{Email: email, FullName: email, PasswordHash: "x", Role: role}
	require.NoError(t, e.users.Create(context.Background(), &user))
	return user
}

// seedPublishedModule builds a minimal complete module (one question, one
// part, one sub-question), assigns the instructor, enrolls the student and
// publishes it. Returns the module and the sub-question students answer.
func (e *testEnv) seedPublishedModule(t *testing.T, admin, instructor, student models.User) (models.Module, models.SubQuestion) {
	t.Helper()
	ctx := context.Background()

	module := models.Module{Title: "Case Study", Status: models.ModuleStatusDraft}
	require.NoError(t, e.modules.Create(ctx, &module))

	question := models.Question{ModuleID: module.ID, Title: "Scenario"}
	require.NoError(t, e.content.CreateQuestion(ctx, &question))

	part := models.Part{QuestionID: question.ID, Label: models.PartLabelA}
	require.NoError(t, e.content.UpsertPart(ctx, &part))

	subQuestion := models.SubQuestion{PartID: part.ID, Prompt: "Explain the tradeoff.", MaxMarks: 10}
	require.NoError(t, e.content.CreateSubQuestion(ctx, &subQuestion))

	adminActor := Actor{ID: admin.ID, Role: admin.Role}
	require.NoError(t, e.moduleService.AssignInstructor(ctx, module.ID, instructor.ID, adminActor))
	require.NoError(t, e.moduleService.EnrollStudent(ctx, module.ID, student.ID, adminActor))

	_, err := e.moduleService.MarkReady(ctx, module.ID, Actor{ID: instructor.ID, Role: instructor.Role})
	require.NoError(t, err)

	published, err := e.moduleService.Publish(ctx, module.ID, adminActor)
	require.NoError(t, err)
	require.Equal(t, models.ModuleStatusPublished, published.Status)

	return published, subQuestion
}
