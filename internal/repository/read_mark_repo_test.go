package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scriptbay/forum-api/internal/models"
)

func TestReadMarkRepositoryUpsertIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReadMarkRepository(db)

	user := createUser(t, db, "reader", false)
	poster := createUser(t, db, "poster", false)
	category := createCategory(t, db, "general", false)
	discussion := createDiscussion(t, db, poster, category, "thread", time.Now())

	ctx := context.Background()
	first := time.Now().UTC().Truncate(time.Second)

	mark := models.ReadMark{UserID: user.ID, DiscussionID: discussion.ID, ReadAt: first}
	require.NoError(t, repo.Upsert(ctx, mark))
	require.NoError(t, repo.Upsert(ctx, mark))

	var count int64
	require.NoError(t, db.Model(&models.ReadMark{}).Count(&count).Error)
	require.Equal(t, int64(1), count, "repeated upserts must not create duplicate rows")

	// Last writer wins on read_at.
	later := first.Add(time.Minute)
	require.NoError(t, repo.Upsert(ctx, models.ReadMark{UserID: user.ID, DiscussionID: discussion.ID, ReadAt: later}))

	var stored models.ReadMark
	require.NoError(t, db.First(&stored, "user_id = ? AND discussion_id = ?", user.ID, discussion.ID).Error)
	require.WithinDuration(t, later, stored.ReadAt, time.Second)
}

func TestReadMarkRepositoryUpsertBatch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReadMarkRepository(db)

	user := createUser(t, db, "reader", false)
	poster := createUser(t, db, "poster", false)
	category := createCategory(t, db, "general", false)
	first := createDiscussion(t, db, poster, category, "one", time.Now())
	second := createDiscussion(t, db, poster, category, "two", time.Now())

	ctx := context.Background()
	at := time.Now().UTC().Truncate(time.Second)

	_, err := repo.UpsertBatch(ctx, user.ID, []uint{first.ID, second.ID}, at)
	require.NoError(t, err)

	marks, err := repo.ForDiscussions(ctx, user.ID, []uint{first.ID, second.ID})
	require.NoError(t, err)
	require.Len(t, marks, 2)
	for _, mark := range marks {
		require.WithinDuration(t, at, mark.ReadAt, time.Second)
	}

	// Retry with a later stamp overwrites in place.
	retryAt := at.Add(time.Minute)
	_, err = repo.UpsertBatch(ctx, user.ID, []uint{first.ID, second.ID}, retryAt)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.ReadMark{}).Count(&count).Error)
	require.Equal(t, int64(2), count)

	affected, err := repo.UpsertBatch(ctx, user.ID, nil, retryAt)
	require.NoError(t, err)
	require.Zero(t, affected)
}

func TestReadMarkRepositoryForDiscussionsScopesToCandidates(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReadMarkRepository(db)

	user := createUser(t, db, "reader", false)
	poster := createUser(t, db, "poster", false)
	category := createCategory(t, db, "general", false)
	inSet := createDiscussion(t, db, poster, category, "in", time.Now())
	outOfSet := createDiscussion(t, db, poster, category, "out", time.Now())

	ctx := context.Background()
	at := time.Now()

	_, err := repo.UpsertBatch(ctx, user.ID, []uint{inSet.ID, outOfSet.ID}, at)
	require.NoError(t, err)

	marks, err := repo.ForDiscussions(ctx, user.ID, []uint{inSet.ID})
	require.NoError(t, err)
	require.Len(t, marks, 1)
	require.Equal(t, inSet.ID, marks[0].DiscussionID)

	marks, err = repo.ForDiscussions(ctx, user.ID, nil)
	require.NoError(t, err)
	require.Empty(t, marks)
}

func TestUserRepositoryWatermarkIsMonotonic(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)

	user := createUser(t, db, "reader", false)

	ctx := context.Background()
	first := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.SetReadWatermark(ctx, user.ID, first))

	stored, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ReadSinceWatermark)
	require.WithinDuration(t, first, *stored.ReadSinceWatermark, time.Second)

	// An older timestamp never lowers the watermark.
	require.NoError(t, repo.SetReadWatermark(ctx, user.ID, first.Add(-time.Hour)))
	stored, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.WithinDuration(t, first, *stored.ReadSinceWatermark, time.Second)

	later := first.Add(time.Hour)
	require.NoError(t, repo.SetReadWatermark(ctx, user.ID, later))
	stored, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.WithinDuration(t, later, *stored.ReadSinceWatermark, time.Second)
}

func TestSubscriptionRepositoryIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubscriptionRepository(db)

	user := createUser(t, db, "subscriber", false)
	poster := createUser(t, db, "poster", false)
	category := createCategory(t, db, "general", false)
	discussion := createDiscussion(t, db, poster, category, "thread", time.Now())

	ctx := context.Background()

	require.NoError(t, repo.Subscribe(ctx, user.ID, discussion.ID))
	require.NoError(t, repo.Subscribe(ctx, user.ID, discussion.ID))

	subscribed, err := repo.IsSubscribed(ctx, user.ID, discussion.ID)
	require.NoError(t, err)
	require.True(t, subscribed)

	var count int64
	require.NoError(t, db.Model(&models.DiscussionSubscription{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	require.NoError(t, repo.Unsubscribe(ctx, user.ID, discussion.ID))
	require.NoError(t, repo.Unsubscribe(ctx, user.ID, discussion.ID))

	subscribed, err = repo.IsSubscribed(ctx, user.ID, discussion.ID)
	require.NoError(t, err)
	require.False(t, subscribed)
}
