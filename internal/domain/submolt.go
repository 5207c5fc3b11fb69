package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Submolt is a community that posts belong to.
type Submolt struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatorID   uuid.UUID `json:"creator_id"`
	Subscribers int64     `json:"subscribers"`
	CreatedAt   time.Time `json:"created_at"`
}

type SubmoltRepository interface {
	Create(ctx context.Context, name, title, description string, creatorID uuid.UUID) (*Submolt, error)
	GetByName(ctx context.Context, name string) (*Submolt, error)
	List(ctx context.Context) ([]Submolt, error)
	// Subscribe is idempotent: subscribing twice is not an error.
	Subscribe(ctx context.Context, submoltID, agentID uuid.UUID) error
}
