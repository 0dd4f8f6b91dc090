package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/assessly/assessly-api/internal/apperr"
	"github.com/assessly/assessly-api/internal/dto"
	"github.com/assessly/assessly-api/internal/models"
)

func TestSubmissionServiceStartRequiresEnrollment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)
	instructor := env.createUser(t, "teach@example.com", models.RoleInstructor)
	student := env.createUser(t, "student@example.com", models.RoleStudent)
	stranger := env.createUser(t, "stranger@example.com", models.RoleStudent)

	module, _ := env.seedPublishedModule(t, admin, instructor, student)

	// Non-enrolled students learn nothing about the module.
	_, err := env.submissionService.Start(ctx, module.ID, Actor{ID: stranger.ID, Role: stranger.Role})
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	studentActor := Actor{ID: student.ID, Role: student.Role}
	first, err := env.submissionService.Start(ctx, module.ID, studentActor)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusDraft, first.Status)

	// Starting again resolves to the same submission.
	again, err := env.submissionService.Start(ctx, module.ID, studentActor)
	require.NoError(t, err)
	require.Equal(t, first.ID, again.ID)
}

func TestSubmissionServiceSaveAnswerValidatesSubQuestion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)
	instructor := env.createUser(t, "teach@example.com", models.RoleInstructor)
	student := env.createUser(t, "student@example.com", models.RoleStudent)

	module, subQuestion := env.seedPublishedModule(t, admin, instructor, student)
	studentActor := Actor{ID: student.ID, Role: student.Role}

	answer, err := env.submissionService.SaveAnswer(ctx, dto.AnswerUpsertRequest{
		ModuleID:      module.ID,
		SubQuestionID: subQuestion.ID,
		AnswerText:    "Throughput versus latency.",
	}, studentActor)
	require.NoError(t, err)
	require.Equal(t, "Throughput versus latency.", answer.AnswerText)

	// Re-saving overwrites the same answer row.
	revised, err := env.submissionService.SaveAnswer(ctx, dto.AnswerUpsertRequest{
		ModuleID:      module.ID,
		SubQuestionID: subQuestion.ID,
		AnswerText:    "Revised answer.",
	}, studentActor)
	require.NoError(t, err)
	require.Equal(t, answer.ID, revised.ID)

	// A sub-question from another module is invisible here.
	_, err = env.submissionService.SaveAnswer(ctx, dto.AnswerUpsertRequest{
		ModuleID:      module.ID,
		SubQuestionID: subQuestion.ID + 100,
		AnswerText:    "does not belong",
	}, studentActor)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestSubmissionServiceSubmitLocksAnswers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)
	instructor := env.createUser(t, "teach@example.com", models.RoleInstructor)
	student := env.createUser(t, "student@example.com", models.RoleStudent)

	module, subQuestion := env.seedPublishedModule(t, admin, instructor, student)
	studentActor := Actor{ID: student.ID, Role: student.Role}

	_, err := env.submissionService.SaveAnswer(ctx, dto.AnswerUpsertRequest{
		ModuleID:      module.ID,
		SubQuestionID: subQuestion.ID,
		AnswerText:    "Final answer.",
	}, studentActor)
	require.NoError(t, err)

	submitted, err := env.submissionService.Submit(ctx, module.ID, studentActor)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusSubmitted, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)

	// Double submit fails: the submission already left draft.
	_, err = env.submissionService.Submit(ctx, module.ID, studentActor)
	require.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	// Answer writes are rejected after submitting.
	_, err = env.submissionService.SaveAnswer(ctx, dto.AnswerUpsertRequest{
		ModuleID:      module.ID,
		SubQuestionID: subQuestion.ID,
		AnswerText:    "too late",
	}, studentActor)
	require.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestSubmissionServiceDraftsInvisibleToStaff(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)
	instructor := env.createUser(t, "teach@example.com", models.RoleInstructor)
	student := env.createUser(t, "student@example.com", models.RoleStudent)

	module, _ := env.seedPublishedModule(t, admin, instructor, student)
	studentActor := Actor{ID: student.ID, Role: student.Role}
	instructorActor := Actor{ID: instructor.ID, Role: instructor.Role}

	draft, err := env.submissionService.Start(ctx, module.ID, studentActor)
	require.NoError(t, err)

	// The draft does not appear in the staff listing.
	listed, err := env.submissionService.ListForModule(ctx, module.ID, instructorActor)
	require.NoError(t, err)
	require.Empty(t, listed)

	// Direct access to the draft reads as missing.
	_, _, err = env.submissionService.GetForGrading(ctx, draft.ID, instructorActor)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = env.submissionService.Submit(ctx, module.ID, studentActor)
	require.NoError(t, err)

	listed, err = env.submissionService.ListForModule(ctx, module.ID, instructorActor)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, draft.ID, listed[0].ID)

	// Admins may read for grading without being assigned.
	adminActor := Actor{ID: admin.ID, Role: admin.Role}
	submission, _, err := env.submissionService.GetForGrading(ctx, draft.ID, adminActor)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusSubmitted, submission.Status)

	// Unassigned instructors stay locked out.
	outsider := env.createUser(t, "outsider@example.com", models.RoleInstructor)
	_, _, err = env.submissionService.GetForGrading(ctx, draft.ID, Actor{ID: outsider.ID, Role: outsider.Role})
	require.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestSubmissionServiceStartRejectsUnpublishedModule(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "admin@example.com", models.RoleAdmin)
	student := env.createUser(t, "student@example.com", models.RoleStudent)
	adminActor := Actor{ID: admin.ID, Role: admin.Role}

	draft, err := env.moduleService.Create(ctx, dto.ModuleCreateRequest{Title: "Not Yet"}, adminActor)
	require.NoError(t, err)
	require.NoError(t, env.moduleService.EnrollStudent(ctx, draft.ID, student.ID, adminActor))

	_, err = env.submissionService.Start(ctx, draft.ID, Actor{ID: student.ID, Role: student.Role})
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
