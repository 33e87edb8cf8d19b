package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/scriptbay/forum-api/internal/models"
)

// Scope narrows a discussion query. Scopes compose via gorm's Scopes and are
// pure predicate builders with no side effects.
type Scope func(*gorm.DB) *gorm.DB

// Visibility returns the base predicate every listable discussion must
// satisfy for the given viewer. The content mode partitions script-bound
// discussions by sensitivity; discussions without a script always pass.
// Removed discussions are never visible. Permissive mode additionally admits
// under-review discussions for moderators and, for everyone else, the
// viewer's own.
//
// An unknown content mode is a configuration fault and panics.
func Visibility(viewer *models.User, mode models.ContentMode, permissive bool) Scope {
	return func(db *gorm.DB) *gorm.DB {
		switch mode {
		case models.ContentModeAll:
		case models.ContentModeNonSensitive:
			db = db.Where(
				"discussions.script_id IS NULL OR EXISTS (SELECT 1 FROM scripts WHERE scripts.id = discussions.script_id AND NOT scripts.sensitive)",
			)
		case models.ContentModeSensitive:
			db = db.Where(
				"discussions.script_id IS NULL OR EXISTS (SELECT 1 FROM scripts WHERE scripts.id = discussions.script_id AND scripts.sensitive)",
			)
		default:
			panic(fmt.Sprintf("repository: unknown content mode %q", mode))
		}

		if permissive && viewer != nil {
			if viewer.Moderator {
				return db.Where("discussions.moderation_state IN ?", []models.ModerationState{
					models.ModerationVisible, models.ModerationUnderReview,
				})
			}
			return db.Where(
				"discussions.moderation_state = ? OR (discussions.moderation_state = ? AND discussions.poster_id = ?)",
				models.ModerationVisible, models.ModerationUnderReview, viewer.ID,
			)
		}

		return db.Where("discussions.moderation_state = ?", models.ModerationVisible)
	}
}

// InCategory keeps discussions belonging to the category.
func InCategory(categoryID uint) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("discussions.category_id = ?", categoryID)
	}
}

// InScriptlessCategory keeps discussions whose category is flagged as not
// tied to a script (the "no-scripts" pseudo category).
func InScriptlessCategory() Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"discussions.category_id IN (SELECT id FROM discussion_categories WHERE scriptless)",
		)
	}
}

// StartedBy keeps discussions the user opened.
func StartedBy(userID uint) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("discussions.poster_id = ?", userID)
	}
}

// WithCommentBy keeps discussions containing at least one comment authored by
// the user.
func WithCommentBy(userID uint) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"EXISTS (SELECT 1 FROM comments WHERE comments.discussion_id = discussions.id AND comments.author_id = ?)",
			userID,
		)
	}
}

// OnScriptsBy keeps discussions attached to scripts the user authored.
func OnScriptsBy(userID uint) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"discussions.script_id IN (SELECT id FROM scripts WHERE author_id = ?)",
			userID,
		)
	}
}

// SubscribedBy keeps discussions the user is subscribed to.
func SubscribedBy(userID uint) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"EXISTS (SELECT 1 FROM discussion_subscriptions WHERE discussion_subscriptions.discussion_id = discussions.id AND discussion_subscriptions.user_id = ?)",
			userID,
		)
	}
}

// WithIDs keeps discussions whose id is in the set. An empty set matches
// nothing.
func WithIDs(ids []uint) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if len(ids) == 0 {
			return db.Where("1 = 0")
		}
		return db.Where("discussions.id IN ?", ids)
	}
}
