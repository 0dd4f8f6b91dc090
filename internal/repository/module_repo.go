package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/assessly/assessly-api/internal/models"
)

// ModuleFilter narrows module list queries to the caller's visibility.
type ModuleFilter struct {
	Status       *models.ModuleStatus
	InstructorID *uint
	StudentID    *uint
}

// ModuleRepository defines data operations for modules and their join tables.
type ModuleRepository interface {
	Create(ctx context.Context, module *models.Module) error
	GetByID(ctx context.Context, id uint) (models.Module, error)
	List(ctx context.Context, filter ModuleFilter) ([]models.Module, error)
	Update(ctx context.Context, module *models.Module) error
	Delete(ctx context.Context, id uint) error

	AssignInstructor(ctx context.Context, moduleID, instructorID uint) (bool, error)
	EnrollStudent(ctx context.Context, moduleID, studentID uint) (bool, error)
	IsInstructorAssigned(ctx context.Context, moduleID, instructorID uint) (bool, error)
	IsStudentEnrolled(ctx context.Context, moduleID, studentID uint) (bool, error)
	CountInstructors(ctx context.Context, moduleID uint) (int64, error)
	CountEnrolledStudents(ctx context.Context, moduleID uint) (int64, error)
}

type moduleRepository struct {
	db *gorm.DB
}

// NewModuleRepository instantiates the repository.
func NewModuleRepository(db *gorm.DB) ModuleRepository {
	return &moduleRepository{db: db}
}

func (r *moduleRepository) Create(ctx context.Context, module *models.Module) error {
	return r.db.WithContext(ctx).Create(module).Error
}

func (r *moduleRepository) GetByID(ctx context.Context, id uint) (models.Module, error) {
	var module models.Module
	if err := r.db.WithContext(ctx).First(&module, id).Error; err != nil {
		return models.Module{}, err
	}

	return module, nil
}

func (r *moduleRepository) List(ctx context.Context, filter ModuleFilter) ([]models.Module, error) {
	query := r.db.WithContext(ctx).Model(&models.Module{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	if filter.InstructorID != nil {
		query = query.Joins("JOIN module_instructors ON module_instructors.module_id = modules.id").
			Where("module_instructors.instructor_id = ?", *filter.InstructorID)
	}

	if filter.StudentID != nil {
		query = query.Joins("JOIN module_students ON module_students.module_id = modules.id").
			Where("module_students.student_id = ?", *filter.StudentID)
	}

	var modules []models.Module
	if err := query.Order("modules.created_at DESC").Find(&modules).Error; err != nil {
		return nil, err
	}

	return modules, nil
}

func (r *moduleRepository) Update(ctx context.Context, module *models.Module) error {
	return r.db.WithContext(ctx).Save(module).Error
}

// Delete removes a draft module and every dependent row in one transaction.
func (r *moduleRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var questionIDs []uint
		if err := tx.Model(&models.Question{}).Where("module_id = ?", id).Pluck("id", &questionIDs).Error; err != nil {
			return err
		}

		if len(questionIDs) > 0 {
			if err := deleteQuestionChildren(tx, questionIDs); err != nil {
				return err
			}
			if err := tx.Where("id IN ?", questionIDs).Delete(&models.Question{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("module_id = ?", id).Delete(&models.ModuleInstructor{}).Error; err != nil {
			return err
		}
		if err := tx.Where("module_id = ?", id).Delete(&models.ModuleStudent{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Module{}, id).Error
	})
}

// AssignInstructor inserts the join row, reporting false when the pair
// already exists instead of surfacing the constraint violation.
func (r *moduleRepository) AssignInstructor(ctx context.Context, moduleID, instructorID uint) (bool, error) {
	row := models.ModuleInstructor{ModuleID: moduleID, InstructorID: instructorID}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "module_id"}, {Name: "instructor_id"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// EnrollStudent mirrors AssignInstructor for the enrollment join table.
func (r *moduleRepository) EnrollStudent(ctx context.Context, moduleID, studentID uint) (bool, error) {
	row := models.ModuleStudent{ModuleID: moduleID, StudentID: studentID}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "module_id"}, {Name: "student_id"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *moduleRepository) IsInstructorAssigned(ctx context.Context, moduleID, instructorID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ModuleInstructor{}).
		Where("module_id = ? AND instructor_id = ?", moduleID, instructorID).
		Count(&count).Error

	return count > 0, err
}

func (r *moduleRepository) IsStudentEnrolled(ctx context.Context, moduleID, studentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ModuleStudent{}).
		Where("module_id = ? AND student_id = ?", moduleID, studentID).
		Count(&count).Error

	return count > 0, err
}

func (r *moduleRepository) CountInstructors(ctx context.Context, moduleID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ModuleInstructor{}).
		Where("module_id = ?", moduleID).
		Count(&count).Error

	return count, err
}

func (r *moduleRepository) CountEnrolledStudents(ctx context.Context, moduleID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ModuleStudent{}).
		Where("module_id = ?", moduleID).
		Count(&count).Error

	return count, err
}
