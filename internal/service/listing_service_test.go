package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/scriptbay/forum-api/internal/models"
)

func newListing(e *testEnv, now time.Time, cache *redis.Client, ttl time.Duration) (ListingService, ReadStatusService) {
	pipeline := NewFilterPipeline(e.categories, e.users)
	readStatus := newReadStatus(e, now)
	listing := NewListingService(e.discussions, e.users, pipeline, readStatus, models.ContentModeAll, cache, ttl, zerolog.Nop())
	return listing, readStatus
}

func TestListingOrdersFiltersAndFlagsReadState(t *testing.T) {
	e := setupEnv(t)
	viewer := e.createUser(t, "viewer", false)
	poster := e.createUser(t, "poster", false)
	general := e.createCategory(t, "general", false)
	meta := e.createCategory(t, "meta", false)

	now := time.Now().UTC()
	older := e.createDiscussion(t, poster, general, "older", now.Add(-2*time.Hour))
	newer := e.createDiscussion(t, poster, general, "newer", now.Add(-time.Hour))
	e.createDiscussion(t, poster, meta, "other category", now)

	listing, readStatus := newListing(e, now, nil, 0)
	ctx := context.Background()

	require.NoError(t, readStatus.RecordView(ctx, viewer.ID, older.ID, now))

	response, err := listing.List(ctx, viewer.ID, ListParams{Category: "general"})
	require.NoError(t, err)
	require.Len(t, response.Items, 2)
	require.Equal(t, newer.ID, response.Items[0].ID, "most recently active first")
	require.Equal(t, older.ID, response.Items[1].ID)
	require.False(t, response.Items[0].Read)
	require.True(t, response.Items[1].Read)
	require.Equal(t, "general", response.Filters.Category)
	require.Equal(t, int64(2), response.Pagination.TotalItems)
}

func TestListingReadFilterRunsOverNarrowedCandidateSet(t *testing.T) {
	e := setupEnv(t)
	viewer := e.createUser(t, "viewer", false)
	poster := e.createUser(t, "poster", false)
	general := e.createCategory(t, "general", false)
	meta := e.createCategory(t, "meta", false)

	now := time.Now().UTC()
	readInGeneral := e.createDiscussion(t, poster, general, "read general", now.Add(-3*time.Hour))
	unreadInGeneral := e.createDiscussion(t, poster, general, "unread general", now.Add(-2*time.Hour))
	readInMeta := e.createDiscussion(t, poster, meta, "read meta", now.Add(-time.Hour))

	listing, readStatus := newListing(e, now, nil, 0)
	ctx := context.Background()

	require.NoError(t, readStatus.RecordView(ctx, viewer.ID, readInGeneral.ID, now))
	require.NoError(t, readStatus.RecordView(ctx, viewer.ID, readInMeta.ID, now))

	unread, err := listing.List(ctx, viewer.ID, ListParams{Category: "general", Read: ReadFilterUnread})
	require.NoError(t, err)
	require.Len(t, unread.Items, 1)
	require.Equal(t, unreadInGeneral.ID, unread.Items[0].ID)
	require.Equal(t, ReadFilterUnread, unread.Filters.Read)

	read, err := listing.List(ctx, viewer.ID, ListParams{Category: "general", Read: ReadFilterRead})
	require.NoError(t, err)
	require.Len(t, read.Items, 1)
	require.Equal(t, readInGeneral.ID, read.Items[0].ID)

	// Fixed-order composition: category then read-status applied together
	// equals intersecting the category listing with the read computation
	// over that same candidate set.
	all, err := listing.List(ctx, viewer.ID, ListParams{Category: "general"})
	require.NoError(t, err)
	expected := make([]uint, 0)
	for _, item := range all.Items {
		if !item.Read {
			expected = append(expected, item.ID)
		}
	}
	got := make([]uint, 0)
	for _, item := range unread.Items {
		got = append(got, item.ID)
	}
	require.ElementsMatch(t, expected, got)
}

func TestListingIgnoresViewerFiltersWhenAnonymous(t *testing.T) {
	e := setupEnv(t)
	poster := e.createUser(t, "poster", false)
	general := e.createCategory(t, "general", false)

	now := time.Now().UTC()
	e.createDiscussion(t, poster, general, "a", now.Add(-time.Hour))
	e.createDiscussion(t, poster, general, "b", now)

	listing, _ := newListing(e, now, nil, 0)

	response, err := listing.List(context.Background(), 0, ListParams{Read: ReadFilterUnread, Relation: RelationStarted})
	require.NoError(t, err)
	require.Len(t, response.Items, 2, "anonymous viewers get the unfiltered listing")
	require.Empty(t, response.Filters.Read)
	require.Empty(t, response.Filters.Relation)
	for _, item := range response.Items {
		require.False(t, item.Read)
	}
}

func TestListingCachesAnonymousUnfilteredPage(t *testing.T) {
	e := setupEnv(t)
	poster := e.createUser(t, "poster", false)
	general := e.createCategory(t, "general", false)
	e.createDiscussion(t, poster, general, "a", time.Now())

	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()
	cache := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	now := time.Now().UTC()
	listing, _ := newListing(e, now, cache, time.Minute)
	ctx := context.Background()

	first, err := listing.List(ctx, 0, ListParams{})
	require.NoError(t, err)
	require.False(t, first.CacheHit)

	second, err := listing.List(ctx, 0, ListParams{})
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	require.Len(t, second.Items, len(first.Items))
	for i := range first.Items {
		require.Equal(t, first.Items[i].ID, second.Items[i].ID)
	}

	// Filtered and authenticated listings bypass the cache.
	viewer := e.createUser(t, "viewer", false)
	authed, err := listing.List(ctx, viewer.ID, ListParams{})
	require.NoError(t, err)
	require.False(t, authed.CacheHit)

	filtered, err := listing.List(ctx, 0, ListParams{Category: "general"})
	require.NoError(t, err)
	require.False(t, filtered.CacheHit)
}

func TestListingMarkAllReadUsesListingFilterSemantics(t *testing.T) {
	e := setupEnv(t)
	viewer := e.createUser(t, "viewer", false)
	poster := e.createUser(t, "poster", false)
	general := e.createCategory(t, "general", false)
	meta := e.createCategory(t, "meta", false)

	now := time.Now().UTC()
	inGeneral := e.createDiscussion(t, poster, general, "general", now.Add(-time.Hour))
	inMeta := e.createDiscussion(t, poster, meta, "meta", now.Add(-time.Hour))

	listing, readStatus := newListing(e, now, nil, 0)
	ctx := context.Background()

	// A recognized category scopes the marks to that category: the watermark
	// does not move.
	require.NoError(t, listing.MarkAllRead(ctx, viewer.ID, ListParams{Category: "general"}))
	require.Nil(t, e.reload(t, viewer.ID).ReadSinceWatermark)

	read, err := readStatus.ReadIDs(ctx, e.reload(t, viewer.ID), activities(inGeneral, inMeta))
	require.NoError(t, err)
	require.True(t, read[inGeneral.ID])
	require.False(t, read[inMeta.ID])

	// An invalid category value means the filter did not fire, so this is an
	// unscoped mark-all-read: the watermark moves and covers everything.
	require.NoError(t, listing.MarkAllRead(ctx, viewer.ID, ListParams{Category: "no-such"}))
	require.NotNil(t, e.reload(t, viewer.ID).ReadSinceWatermark)

	read, err = readStatus.ReadIDs(ctx, e.reload(t, viewer.ID), activities(inGeneral, inMeta))
	require.NoError(t, err)
	require.True(t, read[inMeta.ID])

	require.ErrorIs(t, listing.MarkAllRead(ctx, 0, ListParams{}), ErrAuthenticationRequired)
}
