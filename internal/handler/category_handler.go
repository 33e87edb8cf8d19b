package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/scriptbay/forum-api/internal/dto"
	"github.com/scriptbay/forum-api/internal/repository"
	"github.com/scriptbay/forum-api/internal/utils"
)

// CategoryHandler serves the category index used to populate filter UIs.
type CategoryHandler struct {
	categories repository.CategoryRepository
	logger     zerolog.Logger
}

// NewCategoryHandler constructs a handler instance.
func NewCategoryHandler(categories repository.CategoryRepository, logger zerolog.Logger) *CategoryHandler {
	return &CategoryHandler{
		categories: categories,
		logger:     logger.With().Str("component", "category_handler").Logger(),
	}
}

// Register binds the category routes.
func (h *CategoryHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
}

func (h *CategoryHandler) list(c *fiber.Ctx) error {
	ctx := withRequestContext(c)

	categories, err := h.categories.List(ctx)
	if err != nil {
		return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
	}

	return utils.SendSuccess(c, "categories", dto.NewCategoryResponseSlice(categories))
}
