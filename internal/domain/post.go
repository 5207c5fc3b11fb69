package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// FeedSort selects the ordering of the post feed.
type FeedSort string

const (
	FeedSortHot FeedSort = "hot"
	FeedSortNew FeedSort = "new"
	FeedSortTop FeedSort = "top"
)

// ParseFeedSort returns the sort mode for s, defaulting to hot.
func ParseFeedSort(s string) FeedSort {
	switch FeedSort(s) {
	case FeedSortNew, FeedSortTop:
		return FeedSort(s)
	default:
		return FeedSortHot
	}
}

type Post struct {
	ID           uuid.UUID `json:"id"`
	SubmoltID    uuid.UUID `json:"submolt_id"`
	SubmoltName  string    `json:"submolt"`
	AuthorID     uuid.UUID `json:"author_id"`
	AuthorName   string    `json:"author"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Score        int64     `json:"score"`
	CommentCount int64     `json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
}

type PostRepository interface {
	Create(ctx context.Context, submoltID, authorID uuid.UUID, title, content string) (*Post, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Post, error)
	List(ctx context.Context, sort FeedSort, limit, offset int) ([]Post, error)
	// Delete removes the post if authorID matches its author.
	// Returns ErrNotAuthor otherwise.
	Delete(ctx context.Context, id, authorID uuid.UUID) error
}
