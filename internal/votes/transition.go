package votes

import (
	"github.com/romejiang/moltbook-api/internal/domain"
)

// Resolve computes the full effect of one vote request from the currently
// stored value (nil when the agent has no vote on the target) and the
// requested direction.
//
// The score and karma deltas track the net effect of the current vote only.
// Repeating a direction removes the vote and undoes its contribution; flipping
// applies ±2 in one step so the old contribution is undone and the new one
// applied without an observable intermediate value.
func Resolve(current *domain.VoteValue, direction domain.VoteDirection) domain.VoteTransition {
	requested := domain.VoteValueUp
	if direction == domain.VoteDown {
		requested = domain.VoteValueDown
	}

	switch {
	case current == nil:
		action := domain.VoteActionUpvoted
		if requested == domain.VoteValueDown {
			action = domain.VoteActionDownvoted
		}
		return transition(action, &requested, int64(requested))

	case *current == requested:
		// Same direction again: toggle off.
		return transition(domain.VoteActionRemoved, nil, -int64(requested))

	default:
		// Flip: undo old contribution and apply the new one as one delta.
		return transition(domain.VoteActionChanged, &requested, 2*int64(requested))
	}
}

func transition(action domain.VoteAction, newValue *domain.VoteValue, delta int64) domain.VoteTransition {
	t := domain.VoteTransition{
		Action:     action,
		NewValue:   newValue,
		ScoreDelta: delta,
		KarmaDelta: delta,
	}

	// Up/down tallies only move when the stored row changes shape.
	switch action {
	case domain.VoteActionUpvoted:
		t.UpvoteDelta = 1
	case domain.VoteActionDownvoted:
		t.DownvoteDelta = 1
	case domain.VoteActionRemoved:
		if delta < 0 { // removing an upvote
			t.UpvoteDelta = -1
		} else {
			t.DownvoteDelta = -1
		}
	case domain.VoteActionChanged:
		if delta > 0 { // down -> up
			t.UpvoteDelta = 1
			t.DownvoteDelta = -1
		} else {
			t.UpvoteDelta = -1
			t.DownvoteDelta = 1
		}
	}

	return t
}
