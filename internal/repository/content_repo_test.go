package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/assessly/assessly-api/internal/models"
)

func TestContentRepositoryAssignsSequentialOrderIndexes(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContentRepository(db)
	ctx := context.Background()

	first := models.Question{ModuleID: 1, Title: "First"}
	second := models.Question{ModuleID: 1, Title: "Second"}
	other := models.Question{ModuleID: 2, Title: "Other Module"}

	require.NoError(t, repo.CreateQuestion(ctx, &first))
	require.NoError(t, repo.CreateQuestion(ctx, &second))
	require.NoError(t, repo.CreateQuestion(ctx, &other))

	require.Equal(t, 1, first.OrderIndex)
	require.Equal(t, 2, second.OrderIndex)
	require.Equal(t, 1, other.OrderIndex, "order indexes are scoped per module")

	explicit := models.Question{ModuleID: 1, Title: "Explicit", OrderIndex: 10}
	require.NoError(t, repo.CreateQuestion(ctx, &explicit))
	require.Equal(t, 10, explicit.OrderIndex)

	next := models.Question{ModuleID: 1, Title: "After Explicit"}
	require.NoError(t, repo.CreateQuestion(ctx, &next))
	require.Equal(t, 11, next.OrderIndex)
}

func TestContentRepositoryDuplicateOrderIndexRetries(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContentRepository(db)
	ctx := context.Background()

	first := models.Question{ModuleID: 1, Title: "First", OrderIndex: 1}
	require.NoError(t, repo.CreateQuestion(ctx, &first))

	duplicate := models.Question{ModuleID: 1, Title: "Colliding", OrderIndex: 1}
	require.NoError(t, repo.CreateQuestion(ctx, &duplicate))
	require.Equal(t, 2, duplicate.OrderIndex, "collision should fall back to the next free index")
}

func TestContentRepositoryUpsertPartIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContentRepository(db)
	ctx := context.Background()

	question := models.Question{ModuleID: 1, Title: "Scenario"}
	require.NoError(t, repo.CreateQuestion(ctx, &question))

	part := models.Part{QuestionID: question.ID, Label: models.PartLabelA}
	require.NoError(t, repo.UpsertPart(ctx, &part))
	require.NotZero(t, part.ID)

	again := models.Part{QuestionID: question.ID, Label: models.PartLabelA}
	require.NoError(t, repo.UpsertPart(ctx, &again))
	require.Equal(t, part.ID, again.ID, "upsert must resolve to the existing row")

	var count int64
	require.NoError(t, db.Model(&models.Part{}).Where("question_id = ?", question.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)

	partB := models.Part{QuestionID: question.ID, Label: models.PartLabelB}
	require.NoError(t, repo.UpsertPart(ctx, &partB))
	require.NotEqual(t, part.ID, partB.ID)
}

func TestContentRepositoryModuleIDForSubQuestion(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContentRepository(db)
	ctx := context.Background()

	question := models.Question{ModuleID: 42, Title: "Scenario"}
	require.NoError(t, repo.CreateQuestion(ctx, &question))

	part := models.Part{QuestionID: question.ID, Label: models.PartLabelA}
	require.NoError(t, repo.UpsertPart(ctx, &part))

	subQuestion := models.SubQuestion{PartID: part.ID, Prompt: "Explain.", MaxMarks: 5}
	require.NoError(t, repo.CreateSubQuestion(ctx, &subQuestion))

	moduleID, err := repo.ModuleIDForSubQuestion(ctx, subQuestion.ID)
	require.NoError(t, err)
	require.Equal(t, uint(42), moduleID)

	_, err = repo.ModuleIDForSubQuestion(ctx, 9999)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestContentRepositoryDeleteQuestionCascades(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContentRepository(db)
	ctx := context.Background()

	question := models.Question{ModuleID: 1, Title: "Doomed"}
	require.NoError(t, repo.CreateQuestion(ctx, &question))

	part := models.Part{QuestionID: question.ID, Label: models.PartLabelA}
	require.NoError(t, repo.UpsertPart(ctx, &part))

	subQuestion := models.SubQuestion{PartID: part.ID, Prompt: "Explain.", MaxMarks: 5}
	require.NoError(t, repo.CreateSubQuestion(ctx, &subQuestion))

	artefact := models.Artefact{QuestionID: question.ID, Filename: "spec.pdf", StorageKey: "artefacts/spec.pdf", UploadedBy: 3}
	require.NoError(t, repo.CreateArtefact(ctx, &artefact))

	answer := models.Answer{SubmissionID: 1, SubQuestionID: subQuestion.ID, AnswerText: "..."}
	require.NoError(t, db.Create(&answer).Error)
	grade := models.Grade{AnswerID: answer.ID, InstructorID: 2, MarksAwarded: 3}
	require.NoError(t, db.Create(&grade).Error)

	require.NoError(t, repo.DeleteQuestion(ctx, question.ID))

	var count int64
	for _, probe := range []struct {
		model     interface{}
		condition string
		arg       interface{}
	}{
		{&models.Part{}, "question_id = ?", question.ID},
		{&models.SubQuestion{}, "part_id = ?", part.ID},
		{&models.Artefact{}, "question_id = ?", question.ID},
		{&models.Answer{}, "sub_question_id = ?", subQuestion.ID},
		{&models.Grade{}, "answer_id = ?", answer.ID},
	} {
		require.NoError(t, db.Model(probe.model).Where(probe.condition, probe.arg).Count(&count).Error)
		require.Zero(t, count)
	}
}

func TestContentRepositoryListQuestionsOrdersHierarchy(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContentRepository(db)
	ctx := context.Background()

	second := models.Question{ModuleID: 1, Title: "Second", OrderIndex: 2}
	first := models.Question{ModuleID: 1, Title: "First", OrderIndex: 1}
	require.NoError(t, repo.CreateQuestion(ctx, &second))
	require.NoError(t, repo.CreateQuestion(ctx, &first))

	partB := models.Part{QuestionID: first.ID, Label: models.PartLabelB}
	partA := models.Part{QuestionID: first.ID, Label: models.PartLabelA}
	require.NoError(t, repo.UpsertPart(ctx, &partB))
	require.NoError(t, repo.UpsertPart(ctx, &partA))

	questions, err := repo.ListQuestions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	require.Equal(t, "First", questions[0].Title)
	require.Equal(t, "Second", questions[1].Title)
	require.Len(t, questions[0].Parts, 2)
	require.Equal(t, models.PartLabelA, questions[0].Parts[0].Label)
	require.Equal(t, models.PartLabelB, questions[0].Parts[1].Label)
}
