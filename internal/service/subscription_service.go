package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/scriptbay/forum-api/internal/repository"
)

// SubscriptionService toggles per-(user, discussion) subscriptions. Both
// operations are idempotent; redundant calls never error.
type SubscriptionService interface {
	Subscribe(ctx context.Context, userID, discussionID uint) error
	Unsubscribe(ctx context.Context, userID, discussionID uint) error
}

type subscriptionService struct {
	discussions   repository.DiscussionRepository
	subscriptions repository.SubscriptionRepository
	logger        zerolog.Logger
}

// NewSubscriptionService constructs a subscription service.
func NewSubscriptionService(
	discussions repository.DiscussionRepository,
	subscriptions repository.SubscriptionRepository,
	logger zerolog.Logger,
) SubscriptionService {
	return &subscriptionService{
		discussions:   discussions,
		subscriptions: subscriptions,
		logger:        logger.With().Str("component", "subscription_service").Logger(),
	}
}

func (s *subscriptionService) Subscribe(ctx context.Context, userID, discussionID uint) error {
	if _, err := s.discussions.Get(ctx, discussionID); err != nil {
		return err
	}
	return s.subscriptions.Subscribe(ctx, userID, discussionID)
}

func (s *subscriptionService) Unsubscribe(ctx context.Context, userID, discussionID uint) error {
	return s.subscriptions.Unsubscribe(ctx, userID, discussionID)
}
