// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"yatube/internal/database"
	"yatube/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "s3cret-pass"

// NewTestDB opens a private in-memory SQLite database with the full schema.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// CreateUser inserts a user whose password is TestPassword.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{Username: username, Email: username + "@example.com", Password: string(hash)}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateAdmin inserts a staff user.
func CreateAdmin(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := CreateUser(t, db, username)
	require.NoError(t, db.Model(u).Update("is_admin", true).Error)
	u.IsAdmin = true
	return u
}

// CreateGroup inserts a group.
func CreateGroup(t *testing.T, db *gorm.DB, slug string) *models.Group {
	t.Helper()
	g := &models.Group{Title: "Группа " + slug, Slug: slug, Description: "Описание " + slug}
	require.NoError(t, db.Create(g).Error)
	return g
}

// CreatePosts inserts n posts by author, optionally in group, with strictly
// increasing timestamps so the newest is the last one created.
func CreatePosts(t *testing.T, db *gorm.DB, author *models.User, group *models.Group, n int) []models.Post {
	t.Helper()
	base := time.Now().Add(-time.Duration(n) * time.Minute)
	posts := make([]models.Post, n)
	for i := range posts {
		posts[i] = models.Post{
			Text:      fmt.Sprintf("Тестовый пост %d", i+1),
			AuthorID:  author.ID,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if group != nil {
			posts[i].GroupID = &group.ID
		}
	}
	require.NoError(t, db.Create(&posts).Error)
	return posts
}
