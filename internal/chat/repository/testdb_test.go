package repository

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"leafchat/internal/dbmysql"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "chat_test.db")), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&dbmysql.User{},
		&dbmysql.Conversation{},
		&dbmysql.Participant{},
		&dbmysql.Message{},
	))

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, id, name string) *dbmysql.User {
	t.Helper()
	user := &dbmysql.User{
		ID:           id,
		Name:         name,
		Email:        id + "@example.com",
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
