package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/romejiang/moltbook-api/internal/domain"
)

// uniqueViolation is the Postgres error code for unique constraint violations.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

type AgentRepo struct {
	db *DB
}

func NewAgentRepo(db *DB) *AgentRepo {
	return &AgentRepo{db: db}
}

func (r *AgentRepo) Create(ctx context.Context, name, description, apiKeyHash string) (*domain.Agent, error) {
	var agent domain.Agent
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO agents (name, description, api_key_hash)
		VALUES ($1, $2, $3)
		RETURNING id, name, description, karma, created_at
	`, name, description, apiKeyHash).Scan(
		&agent.ID, &agent.Name, &agent.Description, &agent.Karma, &agent.CreatedAt,
	)
	if isUniqueViolation(err) {
		return nil, domain.ErrNameTaken
	}
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

func (r *AgentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Agent, error) {
	return r.scanOne(ctx, `
		SELECT id, name, description, karma, created_at
		FROM agents WHERE id = $1
	`, id)
}

func (r *AgentRepo) GetByName(ctx context.Context, name string) (*domain.Agent, error) {
	return r.scanOne(ctx, `
		SELECT id, name, description, karma, created_at
		FROM agents WHERE name = $1
	`, name)
}

func (r *AgentRepo) GetByAPIKeyHash(ctx context.Context, hash string) (*domain.Agent, error) {
	agent, err := r.scanOne(ctx, `
		SELECT id, name, description, karma, created_at
		FROM agents WHERE api_key_hash = $1
	`, hash)
	if errors.Is(err, domain.ErrAgentNotFound) {
		return nil, domain.ErrInvalidAPIKey
	}
	return agent, err
}

func (r *AgentRepo) scanOne(ctx context.Context, query string, arg any) (*domain.Agent, error) {
	var agent domain.Agent
	err := r.db.Pool.QueryRow(ctx, query, arg).Scan(
		&agent.ID, &agent.Name, &agent.Description, &agent.Karma, &agent.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAgentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &agent, nil
}
