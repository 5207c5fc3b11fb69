package votes

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/romejiang/moltbook-api/internal/domain"
	"github.com/romejiang/moltbook-api/internal/metrics"
)

// Ledger enforces the voting preconditions and delegates the atomic write to a
// VoteStore. It never retries: every failure is surfaced to the caller.
type Ledger struct {
	targets domain.TargetLookup
	store   domain.VoteStore
}

func NewLedger(targets domain.TargetLookup, store domain.VoteStore) *Ledger {
	return &Ledger{targets: targets, store: store}
}

var _ domain.VoteLedger = (*Ledger)(nil)

// Vote applies one vote request. Self-votes are rejected unconditionally,
// before any state is touched.
func (l *Ledger) Vote(ctx context.Context, targetID uuid.UUID, targetType domain.TargetType, agentID uuid.UUID, direction domain.VoteDirection) (*domain.VoteResult, error) {
	if !targetType.Valid() {
		metrics.VoteRejectionsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidTarget
	}
	if !direction.Valid() {
		metrics.VoteRejectionsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidDirection
	}

	target, err := l.targets.FindTarget(ctx, targetID, targetType)
	if err != nil {
		metrics.VoteRejectionsTotal.WithLabelValues("not_found").Inc()
		return nil, err
	}

	if target.AuthorID == agentID {
		metrics.VoteRejectionsTotal.WithLabelValues("self_vote").Inc()
		return nil, domain.ErrSelfVote
	}

	applied, err := l.store.Apply(ctx, agentID, targetID, targetType, target.AuthorID, func(current *domain.VoteValue) domain.VoteTransition {
		return Resolve(current, direction)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply vote: %w", err)
	}

	metrics.VotesTotal.WithLabelValues(string(targetType), string(applied.Action)).Inc()

	return &domain.VoteResult{
		Action:     applied.Action,
		Message:    message(targetType, applied.Action),
		TargetID:   targetID,
		TargetType: targetType,
		AuthorID:   target.AuthorID,
		ScoreDelta: applied.ScoreDelta,
		KarmaDelta: applied.KarmaDelta,
	}, nil
}

// GetVotes returns the agent's stored votes for the given targets, for
// annotating listings with the caller's own vote state. Targets without a vote
// have no entry; an absent vote is "no opinion", not an error.
func (l *Ledger) GetVotes(ctx context.Context, agentID uuid.UUID, targetType domain.TargetType, targetIDs []uuid.UUID) (map[uuid.UUID]domain.VoteValue, error) {
	if !targetType.Valid() {
		return nil, domain.ErrInvalidTarget
	}
	if len(targetIDs) == 0 {
		return map[uuid.UUID]domain.VoteValue{}, nil
	}
	return l.store.GetVotes(ctx, agentID, targetType, targetIDs)
}

func message(targetType domain.TargetType, action domain.VoteAction) string {
	switch action {
	case domain.VoteActionUpvoted:
		return fmt.Sprintf("%s upvoted", targetType)
	case domain.VoteActionDownvoted:
		return fmt.Sprintf("%s downvoted", targetType)
	case domain.VoteActionRemoved:
		return "vote removed"
	case domain.VoteActionChanged:
		return "vote changed"
	default:
		return string(action)
	}
}
