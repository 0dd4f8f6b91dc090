package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/assessly/assessly-api/internal/models"
)

// ContentRepository defines data operations for the question hierarchy
// (questions, parts, sub-questions) and artefact descriptors.
type ContentRepository interface {
	CreateQuestion(ctx context.Context, question *models.Question) error
	GetQuestion(ctx context.Context, id uint) (models.Question, error)
	ListQuestions(ctx context.Context, moduleID uint) ([]models.Question, error)
	UpdateQuestion(ctx context.Context, question *models.Question) error
	DeleteQuestion(ctx context.Context, id uint) error

	UpsertPart(ctx context.Context, part *models.Part) error
	GetPart(ctx context.Context, id uint) (models.Part, error)

	CreateSubQuestion(ctx context.Context, subQuestion *models.SubQuestion) error
	GetSubQuestion(ctx context.Context, id uint) (models.SubQuestion, error)
	ModuleIDForSubQuestion(ctx context.Context, subQuestionID uint) (uint, error)

	CreateArtefact(ctx context.Context, artefact *models.Artefact) error
	GetArtefact(ctx context.Context, id uint) (models.Artefact, error)
	DeleteArtefact(ctx context.Context, id uint) error

	ReadinessSnapshot(ctx context.Context, moduleID uint) ([]models.Question, error)
}

type contentRepository struct {
	db *gorm.DB
}

// NewContentRepository instantiates the repository.
func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db}
}

// CreateQuestion assigns the next order index inside the insert transaction.
// The (module_id, order_index) unique constraint serializes concurrent
// creations; on a collision the index is recomputed and retried once.
func (r *contentRepository) CreateQuestion(ctx context.Context, question *models.Question) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if question.OrderIndex <= 0 {
			index, err := nextOrderIndex(tx, &models.Question{}, "module_id = ?", question.ModuleID)
			if err != nil {
				return err
			}
			question.OrderIndex = index
		}

		if err := tx.Create(question).Error; err != nil {
			index, recomputeErr := nextOrderIndex(tx, &models.Question{}, "module_id = ?", question.ModuleID)
			if recomputeErr != nil {
				return err
			}
			question.ID = 0
			question.OrderIndex = index
			return tx.Create(question).Error
		}

		return nil
	})
}

func nextOrderIndex(tx *gorm.DB, model interface{}, condition string, args ...interface{}) (int, error) {
	var max *int
	if err := tx.Model(model).Where(condition, args...).
		Select("MAX(order_index)").Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}

func (r *contentRepository) GetQuestion(ctx context.Context, id uint) (models.Question, error) {
	var question models.Question
	if err := r.db.WithContext(ctx).
		Preload("Parts.SubQuestions").
		Preload("Artefacts").
		First(&question, id).Error; err != nil {
		return models.Question{}, err
	}

	return question, nil
}

func (r *contentRepository) ListQuestions(ctx context.Context, moduleID uint) ([]models.Question, error) {
	var questions []models.Question
	if err := r.db.WithContext(ctx).
		Preload("Parts", func(db *gorm.DB) *gorm.DB { return db.Order("parts.label ASC") }).
		Preload("Parts.SubQuestions", func(db *gorm.DB) *gorm.DB { return db.Order("sub_questions.order_index ASC") }).
		Preload("Artefacts").
		Where("module_id = ?", moduleID).
		Order("order_index ASC").
		Find(&questions).Error; err != nil {
		return nil, err
	}

	return questions, nil
}

func (r *contentRepository) UpdateQuestion(ctx context.Context, question *models.Question) error {
	return r.db.WithContext(ctx).Save(question).Error
}

// DeleteQuestion removes the question together with its parts, sub-questions
// and artefacts atomically.
func (r *contentRepository) DeleteQuestion(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteQuestionChildren(tx, []uint{id}); err != nil {
			return err
		}
		return tx.Delete(&models.Question{}, id).Error
	})
}

func deleteQuestionChildren(tx *gorm.DB, questionIDs []uint) error {
	var partIDs []uint
	if err := tx.Model(&models.Part{}).Where("question_id IN ?", questionIDs).Pluck("id", &partIDs).Error; err != nil {
		return err
	}

	if len(partIDs) > 0 {
		var subQuestionIDs []uint
		if err := tx.Model(&models.SubQuestion{}).Where("part_id IN ?", partIDs).Pluck("id", &subQuestionIDs).Error; err != nil {
			return err
		}

		if len(subQuestionIDs) > 0 {
			var answerIDs []uint
			if err := tx.Model(&models.Answer{}).Where("sub_question_id IN ?", subQuestionIDs).Pluck("id", &answerIDs).Error; err != nil {
				return err
			}
			if len(answerIDs) > 0 {
				if err := tx.Where("answer_id IN ?", answerIDs).Delete(&models.Grade{}).Error; err != nil {
					return err
				}
				if err := tx.Where("id IN ?", answerIDs).Delete(&models.Answer{}).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("id IN ?", subQuestionIDs).Delete(&models.SubQuestion{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("id IN ?", partIDs).Delete(&models.Part{}).Error; err != nil {
			return err
		}
	}

	return tx.Where("question_id IN ?", questionIDs).Delete(&models.Artefact{}).Error
}

// UpsertPart creates the part or, when the (question_id, label) pair already
// exists, refreshes the existing row instead of erroring.
func (r *contentRepository) UpsertPart(ctx context.Context, part *models.Part) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "question_id"}, {Name: "label"}},
		DoUpdates: clause.AssignmentColumns([]string{"label", "updated_at"}),
	}).Create(part).Error; err != nil {
		return err
	}

	// Re-read so the caller observes the winning row's identifier.
	return r.db.WithContext(ctx).
		Where("question_id = ? AND label = ?", part.QuestionID, part.Label).
		First(part).Error
}

func (r *contentRepository) GetPart(ctx context.Context, id uint) (models.Part, error) {
	var part models.Part
	if err := r.db.WithContext(ctx).Preload("SubQuestions").First(&part, id).Error; err != nil {
		return models.Part{}, err
	}

	return part, nil
}

// CreateSubQuestion mirrors CreateQuestion's transactional order assignment,
// scoped to siblings of the same part.
func (r *contentRepository) CreateSubQuestion(ctx context.Context, subQuestion *models.SubQuestion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if subQuestion.OrderIndex <= 0 {
			index, err := nextOrderIndex(tx, &models.SubQuestion{}, "part_id = ?", subQuestion.PartID)
			if err != nil {
				return err
			}
			subQuestion.OrderIndex = index
		}

		if err := tx.Create(subQuestion).Error; err != nil {
			index, recomputeErr := nextOrderIndex(tx, &models.SubQuestion{}, "part_id = ?", subQuestion.PartID)
			if recomputeErr != nil {
				return err
			}
			subQuestion.ID = 0
			subQuestion.OrderIndex = index
			return tx.Create(subQuestion).Error
		}

		return nil
	})
}

func (r *contentRepository) GetSubQuestion(ctx context.Context, id uint) (models.SubQuestion, error) {
	var subQuestion models.SubQuestion
	if err := r.db.WithContext(ctx).First(&subQuestion, id).Error; err != nil {
		return models.SubQuestion{}, err
	}

	return subQuestion, nil
}

// ModuleIDForSubQuestion resolves the module owning a sub-question by
// walking the part and question parents.
func (r *contentRepository) ModuleIDForSubQuestion(ctx context.Context, subQuestionID uint) (uint, error) {
	var moduleID uint
	err := r.db.WithContext(ctx).Model(&models.SubQuestion{}).
		Select("questions.module_id").
		Joins("JOIN parts ON parts.id = sub_questions.part_id").
		Joins("JOIN questions ON questions.id = parts.question_id").
		Where("sub_questions.id = ?", subQuestionID).
		Scan(&moduleID).Error
	if err != nil {
		return 0, err
	}
	if moduleID == 0 {
		return 0, gorm.ErrRecordNotFound
	}

	return moduleID, nil
}

func (r *contentRepository) CreateArtefact(ctx context.Context, artefact *models.Artefact) error {
	return r.db.WithContext(ctx).Create(artefact).Error
}

func (r *contentRepository) GetArtefact(ctx context.Context, id uint) (models.Artefact, error) {
	var artefact models.Artefact
	if err := r.db.WithContext(ctx).First(&artefact, id).Error; err != nil {
		return models.Artefact{}, err
	}

	return artefact, nil
}

func (r *contentRepository) DeleteArtefact(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Artefact{}, id).Error
}

// ReadinessSnapshot loads the full hierarchy once so readiness checks run on
// a consistent view.
func (r *contentRepository) ReadinessSnapshot(ctx context.Context, moduleID uint) ([]models.Question, error) {
	return r.ListQuestions(ctx, moduleID)
}
