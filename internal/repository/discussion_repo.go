package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/scriptbay/forum-api/internal/models"
)

// DiscussionActivity is the projection the read-status computation needs: a
// discussion id and the instant of its latest activity.
type DiscussionActivity struct {
	ID             uint
	LastActivityAt time.Time
}

// DiscussionRepository persists discussions and their comments.
type DiscussionRepository interface {
	List(ctx context.Context, scopes []Scope, page, pageSize int) ([]models.Discussion, int64, error)
	Activities(ctx context.Context, scopes []Scope) ([]DiscussionActivity, error)
	IDs(ctx context.Context, scopes []Scope) ([]uint, error)
	Get(ctx context.Context, id uint) (models.Discussion, error)
	GetWithComments(ctx context.Context, id uint) (models.Discussion, error)
	Create(ctx context.Context, discussion *models.Discussion) error
	SetModerationState(ctx context.Context, id uint, state models.ModerationState) error
	CreateComment(ctx context.Context, comment *models.Comment) error
	ListComments(ctx context.Context, discussionID uint, limit, offset int) ([]models.Comment, error)
}

type discussionRepository struct {
	db *gorm.DB
}

// NewDiscussionRepository constructs a GORM-backed repository.
func NewDiscussionRepository(db *gorm.DB) DiscussionRepository {
	return &discussionRepository{db: db}
}

func (r *discussionRepository) scoped(ctx context.Context, scopes []Scope) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Discussion{})
	for _, scope := range scopes {
		query = scope(query)
	}
	return query
}

func (r *discussionRepository) List(ctx context.Context, scopes []Scope, page, pageSize int) ([]models.Discussion, int64, error) {
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 25
	}
	if page <= 0 {
		page = 1
	}

	query := r.scoped(ctx, scopes)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var discussions []models.Discussion
	if err := query.
		Order("discussions.last_activity_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&discussions).Error; err != nil {
		return nil, 0, err
	}

	return discussions, total, nil
}

func (r *discussionRepository) Activities(ctx context.Context, scopes []Scope) ([]DiscussionActivity, error) {
	var activities []DiscussionActivity
	if err := r.scoped(ctx, scopes).
		Select("discussions.id AS id, discussions.last_activity_at AS last_activity_at").
		Scan(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

func (r *discussionRepository) IDs(ctx context.Context, scopes []Scope) ([]uint, error) {
	var ids []uint
	if err := r.scoped(ctx, scopes).Pluck("discussions.id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *discussionRepository) Get(ctx context.Context, id uint) (models.Discussion, error) {
	var discussion models.Discussion
	if err := r.db.WithContext(ctx).First(&discussion, id).Error; err != nil {
		return models.Discussion{}, err
	}
	return discussion, nil
}

func (r *discussionRepository) GetWithComments(ctx context.Context, id uint) (models.Discussion, error) {
	var discussion models.Discussion
	if err := r.db.WithContext(ctx).Preload("Comments", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}).First(&discussion, id).Error; err != nil {
		return models.Discussion{}, err
	}
	return discussion, nil
}

func (r *discussionRepository) Create(ctx context.Context, discussion *models.Discussion) error {
	return r.db.WithContext(ctx).Create(discussion).Error
}

func (r *discussionRepository) SetModerationState(ctx context.Context, id uint, state models.ModerationState) error {
	result := r.db.WithContext(ctx).Model(&models.Discussion{}).
		Where("id = ?", id).
		Update("moderation_state", state)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreateComment inserts the comment and bumps the parent discussion's
// last_activity_at in the same transaction, so a new comment atomically makes
// the discussion unread again for everyone who had caught up.
func (r *discussionRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}

		return tx.Model(&models.Discussion{}).
			Where("id = ?", comment.DiscussionID).
			UpdateColumn("last_activity_at", comment.CreatedAt).
			Error
	})
}

func (r *discussionRepository) ListComments(ctx context.Context, discussionID uint, limit, offset int) ([]models.Comment, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var comments []models.Comment
	if err := r.db.WithContext(ctx).
		Where("discussion_id = ?", discussionID).
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&comments).Error; err != nil {
		return nil, err
	}

	return comments, nil
}
