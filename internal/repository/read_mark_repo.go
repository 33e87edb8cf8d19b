package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/scriptbay/forum-api/internal/models"
)

// ReadMarkRepository persists per-(user, discussion) read marks.
type ReadMarkRepository interface {
	Upsert(ctx context.Context, mark models.ReadMark) error
	UpsertBatch(ctx context.Context, userID uint, discussionIDs []uint, readAt time.Time) (int64, error)
	ForDiscussions(ctx context.Context, userID uint, discussionIDs []uint) ([]models.ReadMark, error)
}

type readMarkRepository struct {
	db *gorm.DB
}

// NewReadMarkRepository constructs the repository implementation.
func NewReadMarkRepository(db *gorm.DB) ReadMarkRepository {
	return &readMarkRepository{db: db}
}

var readMarkConflict = clause.OnConflict{
	Columns:   []clause.Column{{Name: "user_id"}, {Name: "discussion_id"}},
	DoUpdates: clause.AssignmentColumns([]string{"read_at"}),
}

// Upsert records that the user has seen the discussion. Last writer wins on
// read_at; repeated calls are harmless.
func (r *readMarkRepository) Upsert(ctx context.Context, mark models.ReadMark) error {
	return r.db.WithContext(ctx).Clauses(readMarkConflict).Create(&mark).Error
}

// UpsertBatch stamps every listed discussion as read at readAt in one write,
// so a filtered mark-all-read either lands completely or not at all and can
// be retried safely.
func (r *readMarkRepository) UpsertBatch(ctx context.Context, userID uint, discussionIDs []uint, readAt time.Time) (int64, error) {
	if len(discussionIDs) == 0 {
		return 0, nil
	}

	marks := make([]models.ReadMark, 0, len(discussionIDs))
	for _, id := range discussionIDs {
		marks = append(marks, models.ReadMark{UserID: userID, DiscussionID: id, ReadAt: readAt})
	}

	result := r.db.WithContext(ctx).Clauses(readMarkConflict).Create(&marks)
	return result.RowsAffected, result.Error
}

// ForDiscussions loads the user's marks for the candidate discussions only.
func (r *readMarkRepository) ForDiscussions(ctx context.Context, userID uint, discussionIDs []uint) ([]models.ReadMark, error) {
	if len(discussionIDs) == 0 {
		return nil, nil
	}

	var marks []models.ReadMark
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND discussion_id IN ?", userID, discussionIDs).
		Find(&marks).Error; err != nil {
		return nil, err
	}
	return marks, nil
}
