package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/scriptbay/forum-api/internal/models"
	"github.com/scriptbay/forum-api/internal/repository"
)

type testEnv struct {
	db            *gorm.DB
	discussions   repository.DiscussionRepository
	categories    repository.CategoryRepository
	users         repository.UserRepository
	marks         repository.ReadMarkRepository
	subscriptions repository.SubscriptionRepository
}

func setupEnv(t *testing.T) *testEnv {
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

	return &testEnv{
		db:            db,
		discussions:   repository.NewDiscussionRepository(db),
		categories:    repository.NewCategoryRepository(db),
		users:         repository.NewUserRepository(db),
		marks:         repository.NewReadMarkRepository(db),
		subscriptions: repository.NewSubscriptionRepository(db),
	}
}

func (e *testEnv) createUser(t *testing.T, name string, moderator bool) models.User {
	t.Helper()
	user := models.User{Name: name, Email: name + "@example.com", Moderator: moderator}
	require.NoError(t, e.db.Create(&user).Error)
	return user
}

func (e *testEnv) createCategory(t *testing.T, key string, scriptless bool) models.DiscussionCategory {
	t.Helper()
	category := models.DiscussionCategory{Key: key, Name: key, Scriptless: scriptless}
	require.NoError(t, e.db.Create(&category).Error)
	return category
}

func (e *testEnv) createDiscussion(t *testing.T, poster models.User, category models.DiscussionCategory, title string, lastActivity time.Time) models.Discussion {
	t.Helper()
	discussion := models.Discussion{
		PosterID:        poster.ID,
		CategoryID:      category.ID,
		Title:           title,
		ModerationState: models.ModerationVisible,
		LastActivityAt:  lastActivity,
	}
	require.NoError(t, e.db.Create(&discussion).Error)
	return discussion
}

func (e *testEnv) reload(t *testing.T, userID uint) *models.User {
	t.Helper()
	var user models.User
	require.NoError(t, e.db.First(&user, userID).Error)
	return &user
}
