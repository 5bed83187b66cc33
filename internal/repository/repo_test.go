package repository

import (
	"testing"

	"retail-ops/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB opens a throwaway SQLite database. Vector search paths need
// Postgres and are exercised against a live instance; everything else
// (tags, categories, sales) runs fine on SQLite.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(t.TempDir()+"/test.db"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Tag{},
		&models.DocumentTag{},
		&models.Category{},
		&models.SalesRecord{},
	))
	return db
}
