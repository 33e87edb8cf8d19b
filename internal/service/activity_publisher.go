package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/scriptbay/forum-api/internal/observability"
)

// Activity event types consumed by the external subscription/notification
// system.
const (
	EventDiscussionCreated = "discussion_created"
	EventCommentCreated    = "comment_created"
)

// ActivityEvent describes a discussion or comment creation for external
// consumers.
type ActivityEvent struct {
	Type         string    `json:"type"`
	Source       string    `json:"source"`
	DiscussionID uint      `json:"discussion_id"`
	CommentID    uint      `json:"comment_id,omitempty"`
	ActorID      uint      `json:"actor_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// ActivityPublisher emits creation events. Delivery to end users is handled
// elsewhere; this side only publishes.
type ActivityPublisher interface {
	Publish(ctx context.Context, event ActivityEvent)
}

type activityPublisher struct {
	redis   *redis.Client
	channel string
	nats    *nats.Conn
	subject string
	logger  zerolog.Logger
	nodeID  string
}

// NewActivityPublisher constructs a publisher over redis pub/sub and NATS.
// Either client may be nil; publishing then skips that transport.
func NewActivityPublisher(redisClient *redis.Client, natsConn *nats.Conn, logger zerolog.Logger) ActivityPublisher {
	return &activityPublisher{
		redis:   redisClient,
		channel: "forum:activity",
		nats:    natsConn,
		subject: "forum.activity",
		logger:  logger.With().Str("component", "activity_publisher").Logger(),
		nodeID:  uuid.NewString(),
	}
}

func (p *activityPublisher) Publish(ctx context.Context, event ActivityEvent) {
	event.Source = p.nodeID
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn().Err(err).Msg("failed to encode activity event")
		return
	}

	if p.redis != nil {
		if err := p.redis.Publish(ctx, p.channel, payload).Err(); err != nil {
			p.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to publish activity event to redis")
		}
	}

	if p.nats != nil {
		if err := p.nats.Publish(p.subject, payload); err != nil {
			p.logger.Warn().Err(err).Str("type", event.Type).Msg("failed to publish activity event to nats")
		}
	}

	observability.ActivityEvents().WithLabelValues(event.Type).Inc()
}
