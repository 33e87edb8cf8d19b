package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/scriptbay/forum-api/internal/models"
	"github.com/scriptbay/forum-api/internal/observability"
	"github.com/scriptbay/forum-api/internal/repository"
)

// ReadStatusService tracks which discussions a user has already seen without
// storing one row per user per discussion for users who read everything.
type ReadStatusService interface {
	RecordView(ctx context.Context, userID, discussionID uint, at time.Time) error
	ReadIDs(ctx context.Context, viewer *models.User, candidates []repository.DiscussionActivity) (map[uint]bool, error)
	MarkAllRead(ctx context.Context, viewer *models.User, filters FilterResult) error
}

type readStatusService struct {
	discussions repository.DiscussionRepository
	marks       repository.ReadMarkRepository
	users       repository.UserRepository
	contentMode models.ContentMode
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewReadStatusService constructs a read-status tracker.
func NewReadStatusService(
	discussions repository.DiscussionRepository,
	marks repository.ReadMarkRepository,
	users repository.UserRepository,
	contentMode models.ContentMode,
	logger zerolog.Logger,
) ReadStatusService {
	return &readStatusService{
		discussions: discussions,
		marks:       marks,
		users:       users,
		contentMode: contentMode,
		logger:      logger.With().Str("component", "read_status_service").Logger(),
		tracer:      otel.Tracer("github.com/scriptbay/forum-api/internal/service/readstatus"),
		now:         time.Now,
	}
}

// RecordView upserts the user's read mark for the discussion at the given
// instant. Last writer wins; repeated calls are idempotent.
func (s *readStatusService) RecordView(ctx context.Context, userID, discussionID uint, at time.Time) error {
	return s.marks.Upsert(ctx, models.ReadMark{
		UserID:       userID,
		DiscussionID: discussionID,
		ReadAt:       at,
	})
}

// ReadIDs returns, for exactly the candidate set, the ids the viewer has
// read. Marks are fetched for the candidate ids only; discussions outside the
// set are never materialized.
func (s *readStatusService) ReadIDs(ctx context.Context, viewer *models.User, candidates []repository.DiscussionActivity) (map[uint]bool, error) {
	read := make(map[uint]bool, len(candidates))
	if viewer == nil || len(candidates) == 0 {
		return read, nil
	}

	ids := make([]uint, 0, len(candidates))
	for _, candidate := range candidates {
		ids = append(ids, candidate.ID)
	}

	marks, err := s.marks.ForDiscussions(ctx, viewer.ID, ids)
	if err != nil {
		return nil, err
	}

	markedAt := make(map[uint]time.Time, len(marks))
	for _, mark := range marks {
		markedAt[mark.DiscussionID] = mark.ReadAt
	}

	for _, candidate := range candidates {
		var markTime *time.Time
		if at, ok := markedAt[candidate.ID]; ok {
			markTime = &at
		}
		if models.ActivitySeen(candidate.LastActivityAt, markTime, viewer.ReadSinceWatermark) {
			read[candidate.ID] = true
		}
	}

	return read, nil
}

// MarkAllRead marks the viewer's current listing as read. When any narrowing
// filter fired, one read mark per discussion in the filtered subset is
// written in a single batch upsert. When none fired the request covers the
// whole board, so a single watermark scalar is advanced instead of touching
// every discussion row. The branch follows the applied-filter flags, never
// the result-set size.
func (s *readStatusService) MarkAllRead(ctx context.Context, viewer *models.User, filters FilterResult) error {
	now := s.now()

	attrs := []attribute.KeyValue{
		attribute.Int("read_status.user_id", int(viewer.ID)),
		attribute.Bool("read_status.narrowed", filters.Applied.Narrowed()),
	}
	spanCtx, span := s.tracer.Start(ctx, "read_status.mark_all_read", trace.WithAttributes(attrs...))
	defer span.End()

	if !filters.Applied.Narrowed() {
		if err := s.users.SetReadWatermark(spanCtx, viewer.ID, now); err != nil {
			span.RecordError(err)
			return err
		}

		observability.MarkAllReadTotal().WithLabelValues("watermark").Inc()
		s.logger.Info().Uint("user_id", viewer.ID).Time("watermark", now).Msg("advanced read watermark")
		return nil
	}

	scopes := append([]repository.Scope{repository.Visibility(viewer, s.contentMode, false)}, filters.Scopes...)
	ids, err := s.discussions.IDs(spanCtx, scopes)
	if err != nil {
		span.RecordError(err)
		return err
	}

	affected, err := s.marks.UpsertBatch(spanCtx, viewer.ID, ids, now)
	if err != nil {
		span.RecordError(err)
		return err
	}

	observability.MarkAllReadTotal().WithLabelValues("filtered").Inc()
	s.logger.Info().
		Uint("user_id", viewer.ID).
		Int("discussions", len(ids)).
		Int64("rows_affected", affected).
		Msg("marked filtered discussions read")
	return nil
}
