package repository

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/assessly/assessly-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
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

	return db
}
