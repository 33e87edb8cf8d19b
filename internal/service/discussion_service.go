package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/scriptbay/forum-api/internal/dto"
	"github.com/scriptbay/forum-api/internal/models"
	"github.com/scriptbay/forum-api/internal/repository"
)

// ErrDiscussionForbidden indicates the user attempted an operation they are
// not allowed to perform.
var ErrDiscussionForbidden = errors.New("insufficient permissions for discussion operation")

// DiscussionService exposes discussion and comment use-cases.
type DiscussionService interface {
	Create(ctx context.Context, posterID uint, payload dto.DiscussionCreateRequest) (dto.DiscussionResponse, error)
	Get(ctx context.Context, viewerID, id uint) (dto.DiscussionResponse, error)
	CreateComment(ctx context.Context, authorID uint, payload dto.CommentCreateRequest) (dto.CommentResponse, error)
	ListComments(ctx context.Context, discussionID uint, limit, offset int) ([]dto.CommentResponse, error)
	SetModerationState(ctx context.Context, actorID, id uint, state models.ModerationState) error
}

type discussionService struct {
	discussions   repository.DiscussionRepository
	categories    repository.CategoryRepository
	users         repository.UserRepository
	subscriptions repository.SubscriptionRepository
	readStatus    ReadStatusService
	events        ActivityPublisher
	contentMode   models.ContentMode
	validator     *validator.Validate
	logger        zerolog.Logger
	tracer        trace.Tracer
	sanitizer     *bluemonday.Policy
	now           func() time.Time
}

// NewDiscussionService constructs a discussion service.
func NewDiscussionService(
	discussions repository.DiscussionRepository,
	categories repository.CategoryRepository,
	users repository.UserRepository,
	subscriptions repository.SubscriptionRepository,
	readStatus ReadStatusService,
	events ActivityPublisher,
	contentMode models.ContentMode,
	validate *validator.Validate,
	logger zerolog.Logger,
) DiscussionService {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("br")

	return &discussionService{
		discussions:   discussions,
		categories:    categories,
		users:         users,
		subscriptions: subscriptions,
		readStatus:    readStatus,
		events:        events,
		contentMode:   contentMode,
		validator:     validate,
		logger:        logger.With().Str("component", "discussion_service").Logger(),
		tracer:        otel.Tracer("github.com/scriptbay/forum-api/internal/service/discussion"),
		sanitizer:     policy,
		now:           time.Now,
	}
}

func (s *discussionService) Create(ctx context.Context, posterID uint, payload dto.DiscussionCreateRequest) (dto.DiscussionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DiscussionResponse{}, err
	}

	title := strings.TrimSpace(s.sanitizer.Sanitize(payload.Title))
	if title == "" {
		return dto.DiscussionResponse{}, errors.New("discussion title empty after sanitization")
	}
	body := strings.TrimSpace(s.sanitizer.Sanitize(payload.Body))
	if body == "" {
		return dto.DiscussionResponse{}, errors.New("discussion body empty after sanitization")
	}

	category, err := s.categories.GetByKey(ctx, payload.CategoryKey)
	if err != nil {
		return dto.DiscussionResponse{}, err
	}

	attrs := []attribute.KeyValue{
		attribute.Int("discussion.poster_id", int(posterID)),
		attribute.String("discussion.category", category.Key),
	}
	spanCtx, span := s.tracer.Start(ctx, "discussion.create", trace.WithAttributes(attrs...))
	defer span.End()

	now := s.now()
	discussion := models.Discussion{
		PosterID:        posterID,
		ScriptID:        payload.ScriptID,
		CategoryID:      category.ID,
		Title:           title,
		ModerationState: models.ModerationVisible,
		LastActivityAt:  now,
		Metadata:        datatypes.JSONMap{"category_key": category.Key},
	}

	if err := s.discussions.Create(spanCtx, &discussion); err != nil {
		span.RecordError(err)
		return dto.DiscussionResponse{}, err
	}

	comment := models.Comment{
		DiscussionID: discussion.ID,
		AuthorID:     posterID,
		Body:         body,
	}
	if err := s.discussions.CreateComment(spanCtx, &comment); err != nil {
		span.RecordError(err)
		return dto.DiscussionResponse{}, err
	}

	if err := s.subscriptions.Subscribe(spanCtx, posterID, discussion.ID); err != nil {
		s.logger.Warn().Err(err).Uint("discussion_id", discussion.ID).Msg("failed to subscribe poster")
	}

	if s.events != nil {
		s.events.Publish(spanCtx, ActivityEvent{
			Type:         EventDiscussionCreated,
			DiscussionID: discussion.ID,
			ActorID:      posterID,
		})
	}

	s.logger.Info().Uint("discussion_id", discussion.ID).Uint("poster_id", posterID).Msg("discussion created")

	discussion.Comments = []models.Comment{comment}
	return dto.NewDiscussionResponse(discussion, true), nil
}

// Get returns a single discussion with its comments, applying the same
// visibility predicate as listings (permissive, so posters and moderators can
// open their under-review discussions). Viewing records a read mark for
// authenticated viewers.
func (s *discussionService) Get(ctx context.Context, viewerID, id uint) (dto.DiscussionResponse, error) {
	viewer, err := s.loadViewer(ctx, viewerID)
	if err != nil {
		return dto.DiscussionResponse{}, err
	}

	scopes := []repository.Scope{
		repository.Visibility(viewer, s.contentMode, true),
		repository.WithIDs([]uint{id}),
	}
	visible, err := s.discussions.IDs(ctx, scopes)
	if err != nil {
		return dto.DiscussionResponse{}, err
	}
	if len(visible) == 0 {
		return dto.DiscussionResponse{}, gorm.ErrRecordNotFound
	}

	discussion, err := s.discussions.GetWithComments(ctx, id)
	if err != nil {
		return dto.DiscussionResponse{}, err
	}

	read := false
	if viewer != nil {
		if err := s.readStatus.RecordView(ctx, viewer.ID, id, s.now()); err != nil {
			return dto.DiscussionResponse{}, err
		}
		read = true
	}

	return dto.NewDiscussionResponse(discussion, read), nil
}

func (s *discussionService) CreateComment(ctx context.Context, authorID uint, payload dto.CommentCreateRequest) (dto.CommentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CommentResponse{}, err
	}

	body := strings.TrimSpace(s.sanitizer.Sanitize(payload.Body))
	if body == "" {
		return dto.CommentResponse{}, errors.New("comment body empty after sanitization")
	}

	discussion, err := s.discussions.Get(ctx, payload.DiscussionID)
	if err != nil {
		return dto.CommentResponse{}, err
	}
	if discussion.ModerationState == models.ModerationRemoved {
		return dto.CommentResponse{}, gorm.ErrRecordNotFound
	}

	comment := models.Comment{
		DiscussionID: discussion.ID,
		AuthorID:     authorID,
		Body:         body,
	}

	if err := s.discussions.CreateComment(ctx, &comment); err != nil {
		return dto.CommentResponse{}, err
	}

	if s.events != nil {
		s.events.Publish(ctx, ActivityEvent{
			Type:         EventCommentCreated,
			DiscussionID: discussion.ID,
			CommentID:    comment.ID,
			ActorID:      authorID,
		})
	}

	return dto.NewCommentResponse(comment), nil
}

func (s *discussionService) ListComments(ctx context.Context, discussionID uint, limit, offset int) ([]dto.CommentResponse, error) {
	comments, err := s.discussions.ListComments(ctx, discussionID, limit, offset)
	if err != nil {
		return nil, err
	}
	return dto.NewCommentResponseSlice(comments), nil
}

// SetModerationState flips a discussion's visibility flag. Moderators only;
// removal is a soft delete, the row is never destroyed.
func (s *discussionService) SetModerationState(ctx context.Context, actorID, id uint, state models.ModerationState) error {
	switch state {
	case models.ModerationVisible, models.ModerationUnderReview, models.ModerationRemoved:
	default:
		return fmt.Errorf("unknown moderation state %q", state)
	}

	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.Moderator {
		return ErrDiscussionForbidden
	}

	if err := s.discussions.SetModerationState(ctx, id, state); err != nil {
		return err
	}

	s.logger.Info().
		Uint("discussion_id", id).
		Uint("moderator_id", actorID).
		Str("state", string(state)).
		Msg("moderation state changed")
	return nil
}

func (s *discussionService) loadViewer(ctx context.Context, viewerID uint) (*models.User, error) {
	if viewerID == 0 {
		return nil, nil
	}

	user, err := s.users.GetByID(ctx, viewerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
