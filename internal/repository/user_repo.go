package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/scriptbay/forum-api/internal/models"
)

// UserRepository exposes the identity lookups and the watermark update used
// by the read-status tracker.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (models.User, error)
	Exists(ctx context.Context, id uint) (bool, error)
	SetReadWatermark(ctx context.Context, userID uint, at time.Time) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs the repository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SetReadWatermark advances the user's read watermark. The watermark is a
// monotonic floor: an older timestamp never overwrites a newer one.
func (r *userRepository) SetReadWatermark(ctx context.Context, userID uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND (read_since_watermark IS NULL OR read_since_watermark < ?)", userID, at).
		Update("read_since_watermark", at).
		Error
}
