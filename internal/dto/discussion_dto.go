package dto

import (
	"time"

	"github.com/scriptbay/forum-api/internal/models"
)

// DiscussionCreateRequest describes the payload to open a discussion.
type DiscussionCreateRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=255"`
	Body        string `json:"body" validate:"required,min=1,max=20000"`
	CategoryKey string `json:"category_key" validate:"required,max=64"`
	ScriptID    *uint  `json:"script_id" validate:"omitempty,gt=0"`
}

// CommentCreateRequest describes the payload to post a comment.
type CommentCreateRequest struct {
	DiscussionID uint   `json:"discussion_id" validate:"required,gt=0"`
	Body         string `json:"body" validate:"required,min=1,max=20000"`
}

// ModerationRequest describes a moderation state change.
type ModerationRequest struct {
	State string `json:"state" validate:"required,oneof=visible under_review removed"`
}

// CommentResponse is the serialized representation of a comment.
type CommentResponse struct {
	ID           uint      `json:"id"`
	DiscussionID uint      `json:"discussion_id"`
	AuthorID     uint      `json:"author_id"`
	Body         string    `json:"body"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewCommentResponse converts a model into a DTO.
func NewCommentResponse(comment models.Comment) CommentResponse {
	return CommentResponse{
		ID:           comment.ID,
		DiscussionID: comment.DiscussionID,
		AuthorID:     comment.AuthorID,
		Body:         comment.Body,
		CreatedAt:    comment.CreatedAt,
	}
}

// NewCommentResponseSlice converts a slice of models into DTOs.
func NewCommentResponseSlice(comments []models.Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for _, comment := range comments {
		out = append(out, NewCommentResponse(comment))
	}
	return out
}

// DiscussionResponse is the serialized representation of a discussion.
type DiscussionResponse struct {
	ID              uint              `json:"id"`
	PosterID        uint              `json:"poster_id"`
	ScriptID        *uint             `json:"script_id,omitempty"`
	CategoryID      uint              `json:"category_id"`
	Title           string            `json:"title"`
	ModerationState string            `json:"moderation_state"`
	LastActivityAt  time.Time         `json:"last_activity_at"`
	CreatedAt       time.Time         `json:"created_at"`
	Read            bool              `json:"read"`
	Comments        []CommentResponse `json:"comments,omitempty"`
}

// NewDiscussionResponse converts a model into a DTO. read reflects the
// current viewer; always false for anonymous viewers.
func NewDiscussionResponse(discussion models.Discussion, read bool) DiscussionResponse {
	response := DiscussionResponse{
		ID:              discussion.ID,
		PosterID:        discussion.PosterID,
		ScriptID:        discussion.ScriptID,
		CategoryID:      discussion.CategoryID,
		Title:           discussion.Title,
		ModerationState: string(discussion.ModerationState),
		LastActivityAt:  discussion.LastActivityAt,
		CreatedAt:       discussion.CreatedAt,
		Read:            read,
	}
	if len(discussion.Comments) > 0 {
		response.Comments = NewCommentResponseSlice(discussion.Comments)
	}
	return response
}

// PaginationMeta carries listing pagination details.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// AppliedFiltersResponse echoes back which listing filters were in effect so
// clients can render active-filter state.
type AppliedFiltersResponse struct {
	Category    string `json:"category,omitempty"`
	Relation    string `json:"relation,omitempty"`
	CommenterID uint   `json:"commenter_id,omitempty"`
	Read        string `json:"read,omitempty"`
}

// DiscussionListResponse is the listing payload.
type DiscussionListResponse struct {
	Items      []DiscussionResponse   `json:"items"`
	Pagination PaginationMeta         `json:"pagination"`
	Filters    AppliedFiltersResponse `json:"filters"`
	CacheHit   bool                   `json:"-"`
}

// CategoryResponse is the serialized representation of a category.
type CategoryResponse struct {
	ID         uint   `json:"id"`
	Key        string `json:"key"`
	Name       string `json:"name"`
	Scriptless bool   `json:"scriptless"`
}

// NewCategoryResponseSlice converts a slice of models into DTOs.
func NewCategoryResponseSlice(categories []models.DiscussionCategory) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(categories))
	for _, category := range categories {
		out = append(out, CategoryResponse{
			ID:         category.ID,
			Key:        category.Key,
			Name:       category.Name,
			Scriptless: category.Scriptless,
		})
	}
	return out
}
