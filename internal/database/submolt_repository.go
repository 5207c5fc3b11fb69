package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/romejiang/moltbook-api/internal/domain"
)

type SubmoltRepo struct {
	db *DB
}

func NewSubmoltRepo(db *DB) *SubmoltRepo {
	return &SubmoltRepo{db: db}
}

func (r *SubmoltRepo) Create(ctx context.Context, name, title, description string, creatorID uuid.UUID) (*domain.Submolt, error) {
	var s domain.Submolt
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO submolts (name, title, description, creator_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, title, description, creator_id, created_at
	`, name, title, description, creatorID).Scan(
		&s.ID, &s.Name, &s.Title, &s.Description, &s.CreatorID, &s.CreatedAt,
	)
	if isUniqueViolation(err) {
		return nil, domain.ErrNameTaken
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubmoltRepo) GetByName(ctx context.Context, name string) (*domain.Submolt, error) {
	var s domain.Submolt
	err := r.db.Pool.QueryRow(ctx, `
		SELECT s.id, s.name, s.title, s.description, s.creator_id, s.created_at,
			(SELECT COUNT(*) FROM subscriptions WHERE submolt_id = s.id)
		FROM submolts s WHERE s.name = $1
	`, name).Scan(
		&s.ID, &s.Name, &s.Title, &s.Description, &s.CreatorID, &s.CreatedAt, &s.Subscribers,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSubmoltNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubmoltRepo) List(ctx context.Context) ([]domain.Submolt, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT s.id, s.name, s.title, s.description, s.creator_id, s.created_at,
			(SELECT COUNT(*) FROM subscriptions WHERE submolt_id = s.id)
		FROM submolts s
		ORDER BY s.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var submolts []domain.Submolt
	for rows.Next() {
		var s domain.Submolt
		if err := rows.Scan(&s.ID, &s.Name, &s.Title, &s.Description, &s.CreatorID, &s.CreatedAt, &s.Subscribers); err != nil {
			return nil, err
		}
		submolts = append(submolts, s)
	}
	return submolts, rows.Err()
}

func (r *SubmoltRepo) Subscribe(ctx context.Context, submoltID, agentID uuid.UUID) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO subscriptions (agent_id, submolt_id)
		VALUES ($1, $2)
		ON CONFLICT (agent_id, submolt_id) DO NOTHING
	`, agentID, submoltID)
	return err
}
