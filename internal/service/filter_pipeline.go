package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/scriptbay/forum-api/internal/models"
	"github.com/scriptbay/forum-api/internal/repository"
)

// CategoryNoScripts is the pseudo category key matching every category
// flagged as not tied to a script.
const CategoryNoScripts = "no-scripts"

// Relation-to-viewer filter values. Anything else is ignored.
const (
	RelationStarted    = "started"
	RelationCommented  = "commented"
	RelationScripts    = "scripts"
	RelationSubscribed = "subscribed"
)

// Read-status filter values. Anything else is ignored.
const (
	ReadFilterRead   = "read"
	ReadFilterUnread = "unread"
)

// ListParams carries the raw, untrusted listing query values. Unrecognized
// values never error; the matching filter is simply not applied.
type ListParams struct {
	Category   string `query:"category"`
	Relation   string `query:"me"`
	Commenter  string `query:"commenter"`
	Read       string `query:"read"`
	Permissive bool   `query:"permissive"`
	Page       int    `query:"page"`
	PageSize   int    `query:"page_size"`
}

// AppliedFilters reports which narrowing filters actually fired, with the
// recognized value each one matched. A filter that was present but invalid
// stays unapplied here; mark-all-read branches on these flags, so they must
// reflect reality rather than the raw query string.
type AppliedFilters struct {
	Category    string `json:"category,omitempty"`
	Relation    string `json:"relation,omitempty"`
	CommenterID uint   `json:"commenter_id,omitempty"`
}

// Narrowed reports whether any narrowing filter fired.
func (f AppliedFilters) Narrowed() bool {
	return f.Category != "" || f.Relation != "" || f.CommenterID != 0
}

// FilterResult is the pipeline's output: the composed narrowing scopes, the
// applied-filter flags, and the recognized read-status filter (tracked apart
// from the narrowing flags because it never influences mark-all-read
// branching and must run last over the narrowed candidate set).
type FilterResult struct {
	Scopes     []repository.Scope
	Applied    AppliedFilters
	ReadFilter string
}

// FilterPipeline turns listing parameters into discussion query scopes.
// Filters apply in a fixed order: category, relation-to-viewer, commenter,
// and read-status last.
type FilterPipeline struct {
	categories repository.CategoryRepository
	users      repository.UserRepository
}

// NewFilterPipeline constructs the pipeline.
func NewFilterPipeline(categories repository.CategoryRepository, users repository.UserRepository) *FilterPipeline {
	return &FilterPipeline{categories: categories, users: users}
}

// Apply resolves the recognized filters for the viewer. viewer may be nil;
// viewer-gated filters are then skipped without error.
func (p *FilterPipeline) Apply(ctx context.Context, viewer *models.User, params ListParams) (FilterResult, error) {
	var result FilterResult

	if err := p.applyCategory(ctx, &result, params.Category); err != nil {
		return FilterResult{}, err
	}

	if viewer != nil {
		p.applyRelation(&result, viewer, params.Relation)
	}

	if err := p.applyCommenter(ctx, &result, params.Commenter); err != nil {
		return FilterResult{}, err
	}

	if viewer != nil {
		switch params.Read {
		case ReadFilterRead, ReadFilterUnread:
			result.ReadFilter = params.Read
		}
	}

	return result, nil
}

func (p *FilterPipeline) applyCategory(ctx context.Context, result *FilterResult, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}

	if key == CategoryNoScripts {
		result.Scopes = append(result.Scopes, repository.InScriptlessCategory())
		result.Applied.Category = CategoryNoScripts
		return nil
	}

	category, err := p.categories.GetByKey(ctx, key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	result.Scopes = append(result.Scopes, repository.InCategory(category.ID))
	result.Applied.Category = category.Key
	return nil
}

func (p *FilterPipeline) applyRelation(result *FilterResult, viewer *models.User, relation string) {
	switch strings.TrimSpace(relation) {
	case RelationStarted:
		result.Scopes = append(result.Scopes, repository.StartedBy(viewer.ID))
	case RelationCommented:
		result.Scopes = append(result.Scopes, repository.WithCommentBy(viewer.ID))
	case RelationScripts:
		result.Scopes = append(result.Scopes, repository.OnScriptsBy(viewer.ID))
	case RelationSubscribed:
		result.Scopes = append(result.Scopes, repository.SubscribedBy(viewer.ID))
	default:
		return
	}
	result.Applied.Relation = strings.TrimSpace(relation)
}

func (p *FilterPipeline) applyCommenter(ctx context.Context, result *FilterResult, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil
	}

	exists, err := p.users.Exists(ctx, uint(id))
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	result.Scopes = append(result.Scopes, repository.WithCommentBy(uint(id)))
	result.Applied.CommenterID = uint(id)
	return nil
}
