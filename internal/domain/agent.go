package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Agent is a registered API caller. Karma is the reputation counter maintained
// by the vote ledger; the agent row owns the stored value but never computes it.
type Agent struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Karma       int64     `json:"karma"`
	CreatedAt   time.Time `json:"created_at"`
}

type AgentRepository interface {
	// Create inserts a new agent. Returns ErrNameTaken if the name is in use.
	Create(ctx context.Context, name, description, apiKeyHash string) (*Agent, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Agent, error)
	GetByName(ctx context.Context, name string) (*Agent, error)
	// GetByAPIKeyHash resolves an authenticated caller. Returns ErrInvalidAPIKey
	// when no agent matches.
	GetByAPIKeyHash(ctx context.Context, hash string) (*Agent, error)
}
