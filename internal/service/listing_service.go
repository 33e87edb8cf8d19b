package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/scriptbay/forum-api/internal/dto"
	"github.com/scriptbay/forum-api/internal/models"
	"github.com/scriptbay/forum-api/internal/observability"
	"github.com/scriptbay/forum-api/internal/repository"
)

// ListingService produces filtered, paginated discussion listings and applies
// mark-all-read with the same filter semantics.
type ListingService interface {
	List(ctx context.Context, viewerID uint, params ListParams) (dto.DiscussionListResponse, error)
	MarkAllRead(ctx context.Context, viewerID uint, params ListParams) error
}

// ErrAuthenticationRequired indicates an operation that only makes sense for
// a signed-in user was attempted anonymously.
var ErrAuthenticationRequired = errors.New("authentication required")

type listingService struct {
	discussions repository.DiscussionRepository
	users       repository.UserRepository
	pipeline    *FilterPipeline
	readStatus  ReadStatusService
	contentMode models.ContentMode
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewListingService constructs a listing service.
func NewListingService(
	discussions repository.DiscussionRepository,
	users repository.UserRepository,
	pipeline *FilterPipeline,
	readStatus ReadStatusService,
	contentMode models.ContentMode,
	cache *redis.Client,
	cacheTTL time.Duration,
	logger zerolog.Logger,
) ListingService {
	return &listingService{
		discussions: discussions,
		users:       users,
		pipeline:    pipeline,
		readStatus:  readStatus,
		contentMode: contentMode,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger.With().Str("component", "listing_service").Logger(),
		tracer:      otel.Tracer("github.com/scriptbay/forum-api/internal/service/listing"),
	}
}

func (s *listingService) List(ctx context.Context, viewerID uint, params ListParams) (dto.DiscussionListResponse, error) {
	viewer, err := s.loadViewer(ctx, viewerID)
	if err != nil {
		return dto.DiscussionListResponse{}, err
	}

	attrs := []attribute.KeyValue{
		attribute.Bool("listing.authenticated", viewer != nil),
		attribute.Int("listing.page", params.Page),
	}
	spanCtx, span := s.tracer.Start(ctx, "listing.list", trace.WithAttributes(attrs...))
	defer span.End()

	cacheKey, cacheable := s.cacheKey(viewer, params)
	if cacheable {
		if response, ok := s.cachedListing(spanCtx, cacheKey); ok {
			observability.ListingCacheHits().Inc()
			response.CacheHit = true
			return response, nil
		}
	}

	filters, err := s.pipeline.Apply(spanCtx, viewer, params)
	if err != nil {
		span.RecordError(err)
		return dto.DiscussionListResponse{}, err
	}

	scopes := append(
		[]repository.Scope{repository.Visibility(viewer, s.contentMode, params.Permissive)},
		filters.Scopes...,
	)

	// The read-status filter always runs last, over the candidate set the
	// cheaper filters already narrowed.
	var readSet map[uint]bool
	if filters.ReadFilter != "" {
		candidates, err := s.discussions.Activities(spanCtx, scopes)
		if err != nil {
			span.RecordError(err)
			return dto.DiscussionListResponse{}, err
		}

		readSet, err = s.readStatus.ReadIDs(spanCtx, viewer, candidates)
		if err != nil {
			span.RecordError(err)
			return dto.DiscussionListResponse{}, err
		}

		kept := make([]uint, 0, len(candidates))
		for _, candidate := range candidates {
			if readSet[candidate.ID] == (filters.ReadFilter == ReadFilterRead) {
				kept = append(kept, candidate.ID)
			}
		}
		scopes = append(scopes, repository.WithIDs(kept))
	}

	discussions, total, err := s.discussions.List(spanCtx, scopes, params.Page, params.PageSize)
	if err != nil {
		span.RecordError(err)
		return dto.DiscussionListResponse{}, err
	}

	if readSet == nil && viewer != nil {
		page := make([]repository.DiscussionActivity, 0, len(discussions))
		for _, discussion := range discussions {
			page = append(page, repository.DiscussionActivity{ID: discussion.ID, LastActivityAt: discussion.LastActivityAt})
		}
		readSet, err = s.readStatus.ReadIDs(spanCtx, viewer, page)
		if err != nil {
			span.RecordError(err)
			return dto.DiscussionListResponse{}, err
		}
	}

	response := s.buildResponse(discussions, total, params, filters, readSet)
	observability.ListingsServed().WithLabelValues(readFilterLabel(filters.ReadFilter)).Inc()

	if cacheable {
		s.storeListing(spanCtx, cacheKey, response)
	}

	return response, nil
}

// MarkAllRead resolves the same filters as List and delegates branch
// selection to the read-status tracker, so listing and marking can never
// disagree about which subset a filter names.
func (s *listingService) MarkAllRead(ctx context.Context, viewerID uint, params ListParams) error {
	viewer, err := s.loadViewer(ctx, viewerID)
	if err != nil {
		return err
	}
	if viewer == nil {
		return ErrAuthenticationRequired
	}

	filters, err := s.pipeline.Apply(ctx, viewer, params)
	if err != nil {
		return err
	}

	return s.readStatus.MarkAllRead(ctx, viewer, filters)
}

// loadViewer resolves the authenticated user, treating a stale token subject
// as anonymous.
func (s *listingService) loadViewer(ctx context.Context, viewerID uint) (*models.User, error) {
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

func (s *listingService) buildResponse(
	discussions []models.Discussion,
	total int64,
	params ListParams,
	filters FilterResult,
	readSet map[uint]bool,
) dto.DiscussionListResponse {
	items := make([]dto.DiscussionResponse, 0, len(discussions))
	for _, discussion := range discussions {
		items = append(items, dto.NewDiscussionResponse(discussion, readSet[discussion.ID]))
	}

	page := params.Page
	if page <= 0 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 25
	}

	return dto.DiscussionListResponse{
		Items: items,
		Pagination: dto.PaginationMeta{
			Page:       page,
			PageSize:   pageSize,
			TotalItems: total,
			TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
		},
		Filters: dto.AppliedFiltersResponse{
			Category:    filters.Applied.Category,
			Relation:    filters.Applied.Relation,
			CommenterID: filters.Applied.CommenterID,
			Read:        filters.ReadFilter,
		},
	}
}

// cacheKey returns a redis key for the request when it is cacheable: only
// anonymous, unfiltered, non-permissive listings are shared between viewers.
func (s *listingService) cacheKey(viewer *models.User, params ListParams) (string, bool) {
	if s.cache == nil || viewer != nil || params.Permissive {
		return "", false
	}
	if params.Category != "" || params.Relation != "" || params.Commenter != "" || params.Read != "" {
		return "", false
	}

	page := params.Page
	if page <= 0 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 25
	}

	return fmt.Sprintf("listing:%s:%d:%d", s.contentMode, page, pageSize), true
}

func (s *listingService) cachedListing(ctx context.Context, key string) (dto.DiscussionListResponse, bool) {
	cached, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read listing cache")
		}
		return dto.DiscussionListResponse{}, false
	}

	var response dto.DiscussionListResponse
	if err := json.Unmarshal([]byte(cached), &response); err != nil {
		return dto.DiscussionListResponse{}, false
	}
	return response, true
}

func (s *listingService) storeListing(ctx context.Context, key string, response dto.DiscussionListResponse) {
	payload, err := json.Marshal(response)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store listing cache")
	}
}

func readFilterLabel(filter string) string {
	if filter == "" {
		return "none"
	}
	return filter
}
