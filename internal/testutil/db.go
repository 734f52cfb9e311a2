// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"agora/internal/database"
	"agora/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory SQLite database with the full schema.
// The pool is pinned to one connection so the memory database is shared by
// every query and concurrent transactions serialize.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

var userSeq atomic.Uint64

// CreateUser inserts a user with a unique username. The password column holds
// a placeholder, not a usable hash.
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	if username == "" {
		username = fmt.Sprintf("user_%d", userSeq.Add(1))
	}
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreatePost inserts a post owned by author.
func CreatePost(t testing.TB, db *gorm.DB, author *models.User, content string) *models.Post {
	t.Helper()
	p := &models.Post{Content: content, UserID: author.ID}
	require.NoError(t, db.Omit("Author").Create(p).Error)
	return p
}
