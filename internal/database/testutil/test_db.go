package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ndlovu-dev/inkwell/internal/database"
	"github.com/ndlovu-dev/inkwell/internal/models"
)

// MustOpenTestDB opens a migrated in-memory SQLite database for tests. The
// returned connection is automatically closed via t.Cleanup.
func MustOpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(database.Config{Driver: "sqlite"})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

// MustCreateUser inserts a user row with a plain placeholder credential hash.
func MustCreateUser(t *testing.T, db *gorm.DB, id, username string) models.User {
	t.Helper()

	user := models.User{
		BaseModel: models.BaseModel{ID: id},
		Username:  username,
		Email:     username + "@example.com",
		Password:  "x",
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}
