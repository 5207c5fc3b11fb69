package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/romejiang/moltbook-api/internal/domain"
)

// VoteRepo is the storage half of the vote ledger. The votes table's composite
// primary key (agent_id, target_id, target_type) is the durable form of the
// one-vote-per-target invariant; Apply serializes writers on the row lock,
// falling back to a single key-conflict retry when the row does not exist
// yet, so the decide callback always sees the committed current value.
type VoteRepo struct {
	db *DB
}

func NewVoteRepo(db *DB) *VoteRepo {
	return &VoteRepo{db: db}
}

var _ domain.VoteStore = (*VoteRepo)(nil)
var _ domain.TargetLookup = (*VoteRepo)(nil)

// FindTarget resolves a post or comment to the fields the ledger's
// preconditions need.
func (r *VoteRepo) FindTarget(ctx context.Context, id uuid.UUID, targetType domain.TargetType) (*domain.VoteTarget, error) {
	var query string
	switch targetType {
	case domain.TargetPost:
		query = `SELECT id, author_id FROM posts WHERE id = $1`
	case domain.TargetComment:
		query = `SELECT id, author_id FROM comments WHERE id = $1`
	default:
		return nil, domain.ErrInvalidTarget
	}

	var target domain.VoteTarget
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(&target.ID, &target.AuthorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTargetNotFound
	}
	if err != nil {
		return nil, err
	}
	return &target, nil
}

// Apply executes one vote transition transactionally: lock and read the
// current vote row, let decide compute the transition, then write the row,
// the target's score (and tallies for comments), and the author's karma.
// Any failure rolls the whole transition back; a vote row is never left
// without its score/karma effect.
//
// When the triple has no row yet there is nothing for FOR UPDATE to lock, so
// two concurrent first votes can both reach the INSERT and the loser hits the
// primary key. One retry is enough: the re-read then finds the committed row
// and the transition resolves against it.
func (r *VoteRepo) Apply(ctx context.Context, agentID, targetID uuid.UUID, targetType domain.TargetType, authorID uuid.UUID,
	decide func(current *domain.VoteValue) domain.VoteTransition) (domain.VoteTransition, error) {

	applied, err := r.applyOnce(ctx, agentID, targetID, targetType, authorID, decide)
	if isUniqueViolation(err) {
		applied, err = r.applyOnce(ctx, agentID, targetID, targetType, authorID, decide)
	}
	return applied, err
}

func (r *VoteRepo) applyOnce(ctx context.Context, agentID, targetID uuid.UUID, targetType domain.TargetType, authorID uuid.UUID,
	decide func(current *domain.VoteValue) domain.VoteTransition) (domain.VoteTransition, error) {

	var applied domain.VoteTransition

	err := pgx.BeginFunc(ctx, r.db.Pool, func(tx pgx.Tx) error {
		var current *domain.VoteValue
		var stored int
		err := tx.QueryRow(ctx, `
			SELECT value FROM votes
			WHERE agent_id = $1 AND target_id = $2 AND target_type = $3
			FOR UPDATE
		`, agentID, targetID, targetType).Scan(&stored)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			// No current vote.
		case err != nil:
			return err
		default:
			v := domain.VoteValue(stored)
			current = &v
		}

		applied = decide(current)

		switch {
		case applied.NewValue == nil:
			if _, err := tx.Exec(ctx, `
				DELETE FROM votes
				WHERE agent_id = $1 AND target_id = $2 AND target_type = $3
			`, agentID, targetID, targetType); err != nil {
				return fmt.Errorf("failed to delete vote: %w", err)
			}
		case current == nil:
			if _, err := tx.Exec(ctx, `
				INSERT INTO votes (agent_id, target_id, target_type, value)
				VALUES ($1, $2, $3, $4)
			`, agentID, targetID, targetType, int(*applied.NewValue)); err != nil {
				return fmt.Errorf("failed to insert vote: %w", err)
			}
		default:
			if _, err := tx.Exec(ctx, `
				UPDATE votes SET value = $4, updated_at = NOW()
				WHERE agent_id = $1 AND target_id = $2 AND target_type = $3
			`, agentID, targetID, targetType, int(*applied.NewValue)); err != nil {
				return fmt.Errorf("failed to update vote: %w", err)
			}
		}

		if err := r.applyScoreDelta(ctx, tx, targetID, targetType, applied); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `UPDATE agents SET karma = karma + $1 WHERE id = $2`, applied.KarmaDelta, authorID); err != nil {
			return fmt.Errorf("failed to apply karma delta: %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.VoteTransition{}, err
	}
	return applied, nil
}

func (r *VoteRepo) applyScoreDelta(ctx context.Context, tx pgx.Tx, targetID uuid.UUID, targetType domain.TargetType, t domain.VoteTransition) error {
	switch targetType {
	case domain.TargetPost:
		cmd, err := tx.Exec(ctx, `UPDATE posts SET score = score + $1 WHERE id = $2`, t.ScoreDelta, targetID)
		if err != nil {
			return fmt.Errorf("failed to apply score delta: %w", err)
		}
		if cmd.RowsAffected() == 0 {
			return domain.ErrTargetNotFound
		}
		return nil
	case domain.TargetComment:
		// Comments also carry up/down tallies for the controversy ordering.
		cmd, err := tx.Exec(ctx, `
			UPDATE comments
			SET score = score + $1, upvotes = upvotes + $2, downvotes = downvotes + $3
			WHERE id = $4
		`, t.ScoreDelta, t.UpvoteDelta, t.DownvoteDelta, targetID)
		if err != nil {
			return fmt.Errorf("failed to apply score delta: %w", err)
		}
		if cmd.RowsAffected() == 0 {
			return domain.ErrTargetNotFound
		}
		return nil
	default:
		return domain.ErrInvalidTarget
	}
}

// GetVotes returns the agent's stored votes for the given targets of one type.
// Targets without a vote have no entry.
func (r *VoteRepo) GetVotes(ctx context.Context, agentID uuid.UUID, targetType domain.TargetType, targetIDs []uuid.UUID) (map[uuid.UUID]domain.VoteValue, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT target_id, value FROM votes
		WHERE agent_id = $1 AND target_type = $2 AND target_id = ANY($3)
	`, agentID, targetType, targetIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]domain.VoteValue)
	for rows.Next() {
		var id uuid.UUID
		var value int
		if err := rows.Scan(&id, &value); err != nil {
			return nil, err
		}
		out[id] = domain.VoteValue(value)
	}
	return out, rows.Err()
}
