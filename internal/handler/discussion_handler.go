package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/scriptbay/forum-api/internal/dto"
	"github.com/scriptbay/forum-api/internal/models"
	"github.com/scriptbay/forum-api/internal/service"
	"github.com/scriptbay/forum-api/internal/utils"
)

// DiscussionHandler provides HTTP endpoints for discussion listing,
// read-tracking, and creation.
type DiscussionHandler struct {
	listing       service.ListingService
	discussions   service.DiscussionService
	subscriptions service.SubscriptionService
	logger        zerolog.Logger
}

// NewDiscussionHandler constructs a handler instance.
func NewDiscussionHandler(
	listing service.ListingService,
	discussions service.DiscussionService,
	subscriptions service.SubscriptionService,
	logger zerolog.Logger,
) *DiscussionHandler {
	return &DiscussionHandler{
		listing:       listing,
		discussions:   discussions,
		subscriptions: subscriptions,
		logger:        logger.With().Str("component", "discussion_handler").Logger(),
	}
}

// Register binds the discussion routes.
func (h *DiscussionHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Post("/", h.create)
	router.Post("/read", h.markAllRead)
	router.Get("/:id", h.get)
	router.Get("/:id/comments", h.listComments)
	router.Post("/:id/comments", h.createComment)
	router.Post("/:id/subscription", h.subscribe)
	router.Delete("/:id/subscription", h.unsubscribe)
	router.Put("/:id/moderation", h.moderate)
}

// listParams binds the shared listing/mark-all-read query values. Malformed
// values are passed through; the filter pipeline ignores what it does not
// recognize.
func listParams(c *fiber.Ctx) (service.ListParams, error) {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return service.ListParams{}, errors.New("invalid page")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return service.ListParams{}, errors.New("invalid page_size")
	}

	return service.ListParams{
		Category:   c.Query("category"),
		Relation:   c.Query("me"),
		Commenter:  c.Query("commenter"),
		Read:       c.Query("read"),
		Permissive: strings.EqualFold(strings.TrimSpace(c.Query("permissive")), "true"),
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

func (h *DiscussionHandler) list(c *fiber.Ctx) error {
	params, err := listParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	ctx := withRequestContext(c)

	response, err := h.listing.List(ctx, userIDFromContext(c), params)
	if err != nil {
		return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
	}

	if response.CacheHit {
		c.Set("X-Cache-Hit", "true")
	}

	return utils.SendSuccess(c, "discussions", response)
}

func (h *DiscussionHandler) markAllRead(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	params, err := listParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	ctx := withRequestContext(c)

	if err := h.listing.MarkAllRead(ctx, userID, params); err != nil {
		if errors.Is(err, service.ErrAuthenticationRequired) {
			return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
		}
		return utils.SendError(c, fiber.StatusServiceUnavailable, "mark as read failed, please retry")
	}

	return utils.SendSuccess(c, "marked as read", nil)
}

func (h *DiscussionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParamValue(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	ctx := withRequestContext(c)

	discussion, err := h.discussions.Get(ctx, userIDFromContext(c), uint(id))
	if err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, gorm.ErrRecordNotFound) {
			status = fiber.StatusNotFound
		}
		return utils.SendError(c, status, err.Error())
	}

	return utils.SendSuccess(c, "discussion", discussion)
}

func (h *DiscussionHandler) create(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var payload dto.DiscussionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	ctx := withRequestContext(c)

	response, err := h.discussions.Create(ctx, userID, payload)
	if err != nil {
		status := fiber.StatusInternalServerError
		if isValidationError(err) {
			status = fiber.StatusBadRequest
		} else if errors.Is(err, gorm.ErrRecordNotFound) {
			status = fiber.StatusBadRequest
		}
		return utils.SendError(c, status, err.Error())
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "discussion created", response)
}

func (h *DiscussionHandler) listComments(c *fiber.Ctx) error {
	id, err := parseUintParamValue(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid offset")
	}

	ctx := withRequestContext(c)

	comments, err := h.discussions.ListComments(ctx, uint(id), limit, offset)
	if err != nil {
		return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
	}

	return utils.SendSuccess(c, "comments", comments)
}

func (h *DiscussionHandler) createComment(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	id, err := parseUintParamValue(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.CommentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	payload.DiscussionID = uint(id)

	ctx := withRequestContext(c)

	comment, err := h.discussions.CreateComment(ctx, userID, payload)
	if err != nil {
		status := fiber.StatusInternalServerError
		if isValidationError(err) {
			status = fiber.StatusBadRequest
		} else if errors.Is(err, gorm.ErrRecordNotFound) {
			status = fiber.StatusNotFound
		}
		return utils.SendError(c, status, err.Error())
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "comment created", comment)
}

func (h *DiscussionHandler) subscribe(c *fiber.Ctx) error {
	return h.toggleSubscription(c, true)
}

func (h *DiscussionHandler) unsubscribe(c *fiber.Ctx) error {
	return h.toggleSubscription(c, false)
}

func (h *DiscussionHandler) toggleSubscription(c *fiber.Ctx, subscribe bool) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	id, err := parseUintParamValue(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	ctx := withRequestContext(c)

	if subscribe {
		err = h.subscriptions.Subscribe(ctx, userID, uint(id))
	} else {
		err = h.subscriptions.Unsubscribe(ctx, userID, uint(id))
	}
	if err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, gorm.ErrRecordNotFound) {
			status = fiber.StatusNotFound
		}
		return utils.SendError(c, status, err.Error())
	}

	if subscribe {
		return utils.SendSuccess(c, "subscribed", nil)
	}
	return utils.SendSuccess(c, "unsubscribed", nil)
}

func (h *DiscussionHandler) moderate(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	id, err := parseUintParamValue(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ModerationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	ctx := withRequestContext(c)

	if err := h.discussions.SetModerationState(ctx, userID, uint(id), models.ModerationState(payload.State)); err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, service.ErrDiscussionForbidden) {
			status = fiber.StatusForbidden
		} else if errors.Is(err, gorm.ErrRecordNotFound) {
			status = fiber.StatusNotFound
		}
		return utils.SendError(c, status, err.Error())
	}

	return utils.SendSuccess(c, "moderation state updated", nil)
}
