package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/scriptbay/forum-api/internal/dto"
	"github.com/scriptbay/forum-api/internal/models"
	"github.com/scriptbay/forum-api/internal/service"
)

type stubListing struct {
	listResponse dto.DiscussionListResponse
	listParams   service.ListParams
	markUserID   uint
	markParams   service.ListParams
	markErr      error
}

func (s *stubListing) List(_ context.Context, _ uint, params service.ListParams) (dto.DiscussionListResponse, error) {
	s.listParams = params
	return s.listResponse, nil
}

func (s *stubListing) MarkAllRead(_ context.Context, userID uint, params service.ListParams) error {
	s.markUserID = userID
	s.markParams = params
	return s.markErr
}

type stubDiscussions struct {
	getErr      error
	moderateErr error
}

func (s *stubDiscussions) Create(_ context.Context, posterID uint, payload dto.DiscussionCreateRequest) (dto.DiscussionResponse, error) {
	return dto.DiscussionResponse{ID: 1, PosterID: posterID, Title: payload.Title}, nil
}

func (s *stubDiscussions) Get(_ context.Context, _, id uint) (dto.DiscussionResponse, error) {
	if s.getErr != nil {
		return dto.DiscussionResponse{}, s.getErr
	}
	return dto.DiscussionResponse{ID: id}, nil
}

func (s *stubDiscussions) CreateComment(_ context.Context, authorID uint, payload dto.CommentCreateRequest) (dto.CommentResponse, error) {
	return dto.CommentResponse{ID: 7, DiscussionID: payload.DiscussionID, AuthorID: authorID, Body: payload.Body}, nil
}

func (s *stubDiscussions) ListComments(_ context.Context, _ uint, _, _ int) ([]dto.CommentResponse, error) {
	return nil, nil
}

func (s *stubDiscussions) SetModerationState(_ context.Context, _, _ uint, _ models.ModerationState) error {
	return s.moderateErr
}

type stubSubscriptions struct{}

func (stubSubscriptions) Subscribe(_ context.Context, _, _ uint) error   { return nil }
func (stubSubscriptions) Unsubscribe(_ context.Context, _, _ uint) error { return nil }

func newTestApp(listing service.ListingService, discussions service.DiscussionService, userID uint) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if userID != 0 {
			c.Locals("user_id", userID)
		}
		return c.Next()
	})

	h := NewDiscussionHandler(listing, discussions, stubSubscriptions{}, zerolog.Nop())
	h.Register(app.Group("/api/v1/discussions"))
	return app
}

func decodeBody(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&payload))
	return payload
}

func TestListPassesQueryValuesThrough(t *testing.T) {
	listing := &stubListing{}
	app := newTestApp(listing, &stubDiscussions{}, 0)

	req := httptest.NewRequest("GET", "/api/v1/discussions/?category=no-scripts&me=commented&read=unread&page=2", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.Equal(t, "no-scripts", listing.listParams.Category)
	require.Equal(t, "commented", listing.listParams.Relation)
	require.Equal(t, "unread", listing.listParams.Read)
	require.Equal(t, 2, listing.listParams.Page)

	payload := decodeBody(t, resp.Body)
	require.Equal(t, true, payload["success"])
}

func TestListRejectsMalformedPage(t *testing.T) {
	app := newTestApp(&stubListing{}, &stubDiscussions{}, 0)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/discussions/?page=abc", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestMarkAllReadRequiresAuthentication(t *testing.T) {
	listing := &stubListing{}

	anonymous := newTestApp(listing, &stubDiscussions{}, 0)
	resp, err := anonymous.Test(httptest.NewRequest("POST", "/api/v1/discussions/read", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	authed := newTestApp(listing, &stubDiscussions{}, 42)
	resp, err = authed.Test(httptest.NewRequest("POST", "/api/v1/discussions/read?category=general", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(42), listing.markUserID)
	require.Equal(t, "general", listing.markParams.Category)
}

func TestMarkAllReadFailureAsksForRetry(t *testing.T) {
	listing := &stubListing{markErr: gorm.ErrInvalidTransaction}
	app := newTestApp(listing, &stubDiscussions{}, 42)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/discussions/read", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	payload := decodeBody(t, resp.Body)
	require.Contains(t, payload["message"], "please retry")
}

func TestGetMapsNotFound(t *testing.T) {
	app := newTestApp(&stubListing{}, &stubDiscussions{getErr: gorm.ErrRecordNotFound}, 0)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/discussions/9", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCreateRequiresAuthentication(t *testing.T) {
	body := strings.NewReader(`{"title":"t","body":"b","category_key":"general"}`)
	req := httptest.NewRequest("POST", "/api/v1/discussions/", body)
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	app := newTestApp(&stubListing{}, &stubDiscussions{}, 0)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestModerateMapsForbidden(t *testing.T) {
	discussions := &stubDiscussions{moderateErr: service.ErrDiscussionForbidden}
	app := newTestApp(&stubListing{}, discussions, 42)

	body := strings.NewReader(`{"state":"removed"}`)
	req := httptest.NewRequest("PUT", "/api/v1/discussions/9/moderation", body)
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
