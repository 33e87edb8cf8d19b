package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/scriptbay/forum-api/internal/models"
)

// SubscriptionRepository persists (user, discussion) subscription records.
type SubscriptionRepository interface {
	Subscribe(ctx context.Context, userID, discussionID uint) error
	Unsubscribe(ctx context.Context, userID, discussionID uint) error
	IsSubscribed(ctx context.Context, userID, discussionID uint) (bool, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository constructs the repository implementation.
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// Subscribe creates the record if absent. Redundant calls are no-ops.
func (r *subscriptionRepository) Subscribe(ctx context.Context, userID, discussionID uint) error {
	subscription := models.DiscussionSubscription{UserID: userID, DiscussionID: discussionID}
	return r.db.WithContext(ctx).
		Where("user_id = ? AND discussion_id = ?", userID, discussionID).
		FirstOrCreate(&subscription).
		Error
}

// Unsubscribe deletes the record if present. Redundant calls are no-ops.
func (r *subscriptionRepository) Unsubscribe(ctx context.Context, userID, discussionID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND discussion_id = ?", userID, discussionID).
		Delete(&models.DiscussionSubscription{}).
		Error
}

func (r *subscriptionRepository) IsSubscribed(ctx context.Context, userID, discussionID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.DiscussionSubscription{}).
		Where("user_id = ? AND discussion_id = ?", userID, discussionID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
