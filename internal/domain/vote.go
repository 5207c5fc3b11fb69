package domain

import (
	"context"

	"github.com/google/uuid"
)

// TargetType discriminates what a vote applies to.
type TargetType string

const (
	TargetPost    TargetType = "post"
	TargetComment TargetType = "comment"
)

// Valid reports whether t is a known target type.
func (t TargetType) Valid() bool {
	return t == TargetPost || t == TargetComment
}

// VoteDirection is the requested direction of a vote. Directions are converted
// to signed values only inside the ledger's delta computation.
type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// Valid reports whether d is a known direction.
func (d VoteDirection) Valid() bool {
	return d == VoteUp || d == VoteDown
}

// VoteValue is the stored value of a vote row: +1 or -1.
type VoteValue int

const (
	VoteValueUp   VoteValue = 1
	VoteValueDown VoteValue = -1
)

// VoteAction describes what a vote request did to the stored state.
type VoteAction string

const (
	VoteActionUpvoted   VoteAction = "upvoted"
	VoteActionDownvoted VoteAction = "downvoted"
	VoteActionRemoved   VoteAction = "removed"
	VoteActionChanged   VoteAction = "changed"
)

// VoteResult is returned to the caller after a vote is applied.
type VoteResult struct {
	Action     VoteAction `json:"action"`
	Message    string     `json:"message"`
	TargetID   uuid.UUID  `json:"target_id"`
	TargetType TargetType `json:"target_type"`
	AuthorID   uuid.UUID  `json:"-"`
	ScoreDelta int64      `json:"score_delta"`
	KarmaDelta int64      `json:"karma_delta"`
}

// VoteTarget is the subset of a post or comment the ledger needs for its
// preconditions.
type VoteTarget struct {
	ID       uuid.UUID
	AuthorID uuid.UUID
}

// TargetLookup resolves vote targets. Implemented by the database layer over
// the posts and comments tables.
type TargetLookup interface {
	// FindTarget returns ErrTargetNotFound when no row matches.
	FindTarget(ctx context.Context, id uuid.UUID, targetType TargetType) (*VoteTarget, error)
}

// VoteTransition is the full effect of one vote request, computed from the
// currently stored value and the requested direction. NewValue nil means the
// vote row is deleted.
type VoteTransition struct {
	Action        VoteAction
	NewValue      *VoteValue
	ScoreDelta    int64
	KarmaDelta    int64
	UpvoteDelta   int64
	DownvoteDelta int64
}

// VoteStore applies a vote transition atomically. Implementations must read the
// current vote row, call decide with it, and persist the returned transition
// (vote row write, target score, author karma, and for comments the up/down
// tallies) as one unit: either every effect commits or none does. Concurrent
// calls for the same (agent, target, type) triple must serialize.
type VoteStore interface {
	Apply(ctx context.Context, agentID, targetID uuid.UUID, targetType TargetType, authorID uuid.UUID,
		decide func(current *VoteValue) VoteTransition) (VoteTransition, error)
	// GetVotes returns the agent's stored vote values for the given targets.
	// Targets without a vote have no entry.
	GetVotes(ctx context.Context, agentID uuid.UUID, targetType TargetType, targetIDs []uuid.UUID) (map[uuid.UUID]VoteValue, error)
}

// VoteLedger is the interaction-consistency engine: it owns the
// one-vote-per-target invariant and the score/karma propagation rules.
type VoteLedger interface {
	Vote(ctx context.Context, targetID uuid.UUID, targetType TargetType, agentID uuid.UUID, direction VoteDirection) (*VoteResult, error)
	GetVotes(ctx context.Context, agentID uuid.UUID, targetType TargetType, targetIDs []uuid.UUID) (map[uuid.UUID]VoteValue, error)
}
