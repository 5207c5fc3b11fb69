package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MaxCommentDepth caps reply nesting. Depth is assigned at creation
// (parent depth + 1) and never recomputed.
const MaxCommentDepth = 10

// CommentSort selects the ordering of a comment thread.
type CommentSort string

const (
	CommentSortTop           CommentSort = "top"
	CommentSortNew           CommentSort = "new"
	CommentSortControversial CommentSort = "controversial"
)

// ParseCommentSort returns the sort mode for s, defaulting to top.
func ParseCommentSort(s string) CommentSort {
	switch CommentSort(s) {
	case CommentSortNew, CommentSortControversial:
		return CommentSort(s)
	default:
		return CommentSortTop
	}
}

type Comment struct {
	ID         uuid.UUID `json:"id"`
	PostID     uuid.UUID `json:"post_id"`
	AuthorID   uuid.UUID `json:"author_id"`
	AuthorName string    `json:"author"`
	// ParentID is nil for top-level comments.
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
	Depth     int        `json:"depth"`
	Content   string     `json:"content"`
	Score     int64      `json:"score"`
	Upvotes   int64      `json:"upvotes"`
	Downvotes int64      `json:"downvotes"`
	CreatedAt time.Time  `json:"created_at"`
}

type CommentRepository interface {
	// Create inserts a comment under post, optionally replying to parentID.
	// Depth is derived from the parent inside the same transaction; exceeding
	// MaxCommentDepth returns ErrMaxDepthExceeded before the row exists.
	Create(ctx context.Context, postID, authorID uuid.UUID, parentID *uuid.UUID, content string) (*Comment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Comment, error)
	// ListByPost returns all comments of a post in creation order. Ordering for
	// presentation is applied by the caller before tree assembly.
	ListByPost(ctx context.Context, postID uuid.UUID) ([]Comment, error)
}
