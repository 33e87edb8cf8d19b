package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/scriptbay/forum-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Script{},
		&models.DiscussionCategory{},
		&models.Discussion{},
		&models.Comment{},
		&models.ReadMark{},
		&models.DiscussionSubscription{},
	))
	return db
}

func createUser(t *testing.T, db *gorm.DB, name string, moderator bool) models.User {
	t.Helper()
	user := models.User{Name: name, Email: name + "@example.com", Moderator: moderator}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createCategory(t *testing.T, db *gorm.DB, key string, scriptless bool) models.DiscussionCategory {
	t.Helper()
	category := models.DiscussionCategory{Key: key, Name: key, Scriptless: scriptless}
	require.NoError(t, db.Create(&category).Error)
	return category
}

func createDiscussion(t *testing.T, db *gorm.DB, poster models.User, category models.DiscussionCategory, title string, lastActivity time.Time) models.Discussion {
	t.Helper()
	discussion := models.Discussion{
		PosterID:        poster.ID,
		CategoryID:      category.ID,
		Title:           title,
		ModerationState: models.ModerationVisible,
		LastActivityAt:  lastActivity,
	}
	require.NoError(t, db.Create(&discussion).Error)
	return discussion
}
