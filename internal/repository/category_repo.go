package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/scriptbay/forum-api/internal/models"
)

// CategoryRepository looks up discussion categories for filter matching.
type CategoryRepository interface {
	GetByKey(ctx context.Context, key string) (models.DiscussionCategory, error)
	List(ctx context.Context) ([]models.DiscussionCategory, error)
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository constructs the repository implementation.
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) GetByKey(ctx context.Context, key string) (models.DiscussionCategory, error) {
	var category models.DiscussionCategory
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&category).Error; err != nil {
		return models.DiscussionCategory{}, err
	}
	return category, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]models.DiscussionCategory, error) {
	var categories []models.DiscussionCategory
	if err := r.db.WithContext(ctx).Order("key ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}
