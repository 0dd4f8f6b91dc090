package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/assessly/assessly-api/internal/models"
)

// SubmissionFilter narrows submission list queries.
type SubmissionFilter struct {
	ModuleID  *uint
	StudentID *uint
	Statuses  []models.SubmissionStatus
}

// SubmissionRepository defines data operations for submissions, answers and
// grades. Status moves only through TransitionStatus so the store itself
// rejects backward or skipped transitions under concurrent requests.
type SubmissionRepository interface {
	EnsureDraft(ctx context.Context, moduleID, studentID uint) (models.Submission, error)
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetByModuleAndStudent(ctx context.Context, moduleID, studentID uint) (models.Submission, error)
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	TransitionStatus(ctx context.Context, id uint, from, to models.SubmissionStatus, at time.Time) (bool, error)

	UpsertAnswer(ctx context.Context, answer *models.Answer) error
	GetAnswer(ctx context.Context, submissionID, subQuestionID uint) (models.Answer, error)
	ListAnswers(ctx context.Context, submissionID uint) ([]models.Answer, error)

	UpsertGrade(ctx context.Context, grade *models.Grade) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

// EnsureDraft creates the draft submission for the pair if none exists.
// The insert no-ops on the (module_id, student_id) uniqueness conflict, then
// the winner is re-read, so concurrent first-touch yields exactly one row.
func (r *submissionRepository) EnsureDraft(ctx context.Context, moduleID, studentID uint) (models.Submission, error) {
	submission := models.Submission{
		ModuleID:  moduleID,
		StudentID: studentID,
		Status:    models.SubmissionStatusDraft,
	}

	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "module_id"}, {Name: "student_id"}},
		DoNothing: true,
	}).Create(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return r.GetByModuleAndStudent(ctx, moduleID, studentID)
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).
		Preload("Answers").
		Preload("Answers.Grade").
		First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) GetByModuleAndStudent(ctx context.Context, moduleID, studentID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).
		Preload("Answers").
		Preload("Answers.Grade").
		Where("module_id = ? AND student_id = ?", moduleID, studentID).
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.db.WithContext(ctx).Model(&models.Submission{}).Preload("Student")

	if filter.ModuleID != nil {
		query = query.Where("module_id = ?", *filter.ModuleID)
	}

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}

	var submissions []models.Submission
	if err := query.Order("created_at DESC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

// TransitionStatus performs a compare-and-set status update. It reports
// false when the row was not in the expected source state, which makes the
// monotonic ordering race-safe without row locks.
func (r *submissionRepository) TransitionStatus(ctx context.Context, id uint, from, to models.SubmissionStatus, at time.Time) (bool, error) {
	if !from.CanTransitionTo(to) {
		return false, nil
	}

	updates := map[string]interface{}{
		"status":     to,
		"updated_at": at,
	}

	switch to {
	case models.SubmissionStatusSubmitted:
		updates["submitted_at"] = at
	case models.SubmissionStatusGraded:
		updates["graded_at"] = at
	case models.SubmissionStatusFinalised:
		updates["finalised_at"] = at
	}

	result := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// UpsertAnswer writes the answer, resolving concurrent saves for the same
// (submission, sub-question) pair as last write wins.
func (r *submissionRepository) UpsertAnswer(ctx context.Context, answer *models.Answer) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "submission_id"}, {Name: "sub_question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"answer_text", "updated_at"}),
	}).Create(answer).Error; err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Where("submission_id = ? AND sub_question_id = ?", answer.SubmissionID, answer.SubQuestionID).
		First(answer).Error
}

func (r *submissionRepository) GetAnswer(ctx context.Context, submissionID, subQuestionID uint) (models.Answer, error) {
	var answer models.Answer
	if err := r.db.WithContext(ctx).
		Where("submission_id = ? AND sub_question_id = ?", submissionID, subQuestionID).
		First(&answer).Error; err != nil {
		return models.Answer{}, err
	}

	return answer, nil
}

func (r *submissionRepository) ListAnswers(ctx context.Context, submissionID uint) ([]models.Answer, error) {
	var answers []models.Answer
	if err := r.db.WithContext(ctx).
		Preload("Grade").
		Where("submission_id = ?", submissionID).
		Order("sub_question_id ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}

	return answers, nil
}

// UpsertGrade writes the grade keyed by its answer, overwriting any prior
// score for the same answer instead of duplicating rows.
func (r *submissionRepository) UpsertGrade(ctx context.Context, grade *models.Grade) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "answer_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"instructor_id", "marks_awarded", "feedback", "updated_at"}),
	}).Create(grade).Error; err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Where("answer_id = ?", grade.AnswerID).
		First(grade).Error
}
