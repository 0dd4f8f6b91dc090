package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/assessly/assessly-api/internal/apperr"
	"github.com/assessly/assessly-api/internal/dto"
	"github.com/assessly/assessly-api/internal/models"
)

func (e *testEnv) seedDraftModule(t *testing.T, instructorID uint) models.Module {
	t.Helper()
	module := models.Module{Title: "Draft", Status: models.ModuleStatusDraft}
	require.NoError(t, e.modules.Create(context.Background(), &module))
	if instructorID != 0 {
		_, err := e.modules.AssignInstructor(context.Background(), module.ID, instructorID)
		require.NoError(t, err)
	}
	return module
}

func TestContentServiceMutationRequiresAssignedInstructor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	instructor := env.createUser(t, "teach@example.com", models.RoleInstructor)
	outsider := env.createUser(t, "outsider@example.com", models.RoleInstructor)
	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)

	module := env.seedDraftModule(t, instructor.ID)

	payload := dto.QuestionCreateRequest{ModuleID: module.ID, Title: "Scenario One"}

	_, err := env.contentService.CreateQuestion(ctx, payload, Actor{ID: outsider.ID, Role: outsider.Role})
	require.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	// Content authorship stays with instructors; admins are rejected too.
	_, err = env.contentService.CreateQuestion(ctx, payload, Actor{ID: admin.ID, Role: admin.Role})
	require.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	question, err := env.contentService.CreateQuestion(ctx, payload, Actor{ID: instructor.ID, Role: instructor.Role})
	require.NoError(t, err)
	require.Equal(t, 1, question.OrderIndex)
}

func TestContentServiceMutationFrozenOutsideDraft(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)
	instructor := env.createUser(t, "teach@example.com", models.RoleInstructor)
	student := env.createUser(t, "student@example.com", models.RoleStudent)

	module, subQuestion := env.seedPublishedModule(t, admin, instructor, student)
	instructorActor := Actor{ID: instructor.ID, Role: instructor.Role}

	_, err := env.contentService.CreateQuestion(ctx, dto.QuestionCreateRequest{
		ModuleID: module.ID,
		Title:    "Too Late",
	}, instructorActor)
	require.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	// Existing content is frozen as well.
	questions, err := env.contentService.ListQuestions(ctx, module.ID, instructorActor)
	require.NoError(t, err)
	require.Len(t, questions, 1)

	newTitle := "Renamed"
	_, err = env.contentService.UpdateQuestion(ctx, questions[0].ID, dto.QuestionUpdateRequest{Title: &newTitle}, instructorActor)
	require.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	err = env.contentService.DeleteQuestion(ctx, questions[0].ID, instructorActor)
	require.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_ = subQuestion
}

func TestContentServiceSanitizesScenarioAndPrompt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	instructor := env.createUser(t, "teach@example.com", models.RoleInstructor)
	module := env.seedDraftModule(t, instructor.ID)
	actor := Actor{ID: instructor.ID, Role: instructor.Role}

	question, err := env.contentService.CreateQuestion(ctx, dto.QuestionCreateRequest{
		ModuleID:     module.ID,
		Title:        "Injection",
		ScenarioText: `<p>Read this</p><script>alert("x")</script>`,
	}, actor)
	require.NoError(t, err)
	require.Contains(t, question.ScenarioText, "<p>Read this</p>")
	require.NotContains(t, question.ScenarioText, "<script>")

	part, err := env.contentService.CreatePart(ctx, dto.PartCreateRequest{
		QuestionID: question.ID,
		Label:      models.PartLabelA,
	}, actor)
	require.NoError(t, err)

	subQuestion, err := env.contentService.CreateSubQuestion(ctx, dto.SubQuestionCreateRequest{
		PartID:   part.ID,
		Prompt:   `Explain <img src=x onerror=alert(1)> the design`,
		MaxMarks: 10,
	}, actor)
	require.NoError(t, err)
	require.NotContains(t, subQuestion.Prompt, "onerror")
}

func TestContentServicePartUpsertAndLabelDomain(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	instructor := env.createUser(t, "teach@example.com", models.RoleInstructor)
	module := env.seedDraftModule(t, instructor.ID)
	actor := Actor{ID: instructor.ID, Role: instructor.Role}

	question, err := env.contentService.CreateQuestion(ctx, dto.QuestionCreateRequest{
		ModuleID: module.ID,
		Title:    "Parts",
	}, actor)
	require.NoError(t, err)

	partA, err := env.contentService.CreatePart(ctx, dto.PartCreateRequest{QuestionID: question.ID, Label: models.PartLabelA}, actor)
	require.NoError(t, err)

	// Creating the same label again resolves to the existing part.
	again, err := env.contentService.CreatePart(ctx, dto.PartCreateRequest{QuestionID: question.ID, Label: models.PartLabelA}, actor)
	require.NoError(t, err)
	require.Equal(t, partA.ID, again.ID)

	// Labels outside A/B never reach the store.
	_, err = env.contentService.CreatePart(ctx, dto.PartCreateRequest{QuestionID: question.ID, Label: "C"}, actor)
	require.Error(t, err)
}

func TestContentServiceArtefactLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	instructor := env.createUser(t, "teach@example.com", models.RoleInstructor)
	module := env.seedDraftModule(t, instructor.ID)
	actor := Actor{ID: instructor.ID, Role: instructor.Role}

	question, err := env.contentService.CreateQuestion(ctx, dto.QuestionCreateRequest{
		ModuleID: module.ID,
		Title:    "With Artefact",
	}, actor)
	require.NoError(t, err)

	artefact, err := env.contentService.CreateArtefact(ctx, dto.ArtefactCreateRequest{
		QuestionID: question.ID,
		Filename:   "dataset.csv",
		FileType:   "text/csv",
		StorageKey: "modules/1/dataset.csv",
	}, actor)
	require.NoError(t, err)
	require.Equal(t, instructor.ID, artefact.UploadedBy)

	require.NoError(t, env.contentService.DeleteArtefact(ctx, artefact.ID, actor))

	err = env.contentService.DeleteArtefact(ctx, artefact.ID, actor)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestContentServiceListQuestionsVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)
	instructor := env.createUser(t, "teach@example.com", models.RoleInstructor)
	student := env.createUser(t, "student@example.com", models.RoleStudent)
	stranger := env.createUser(t, "stranger@example.com", models.RoleStudent)

	module, _ := env.seedPublishedModule(t, admin, instructor, student)

	questions, err := env.contentService.ListQuestions(ctx, module.ID, Actor{ID: student.ID, Role: student.Role})
	require.NoError(t, err)
	require.Len(t, questions, 1)
	require.Len(t, questions[0].Parts, 1)
	require.Len(t, questions[0].Parts[0].SubQuestions, 1)

	_, err = env.contentService.ListQuestions(ctx, module.ID, Actor{ID: stranger.ID, Role: stranger.Role})
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
