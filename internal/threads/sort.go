package threads

import (
	"math"
	"sort"

	"github.com/romejiang/moltbook-api/internal/domain"
)

// Controversy scores how evenly split a comment's votes are: it is maximized
// for near-even up/down splits and grows with participation. A comment with no
// votes scores 0 via the max(total, 1) guard; clients sort on this value, so
// the degenerate case is kept as-is rather than treated as undefined.
func Controversy(up, down int64) float64 {
	total := float64(up + down)
	return total * (1 - math.Abs(float64(up-down))/math.Max(total, 1))
}

// SortForAssembly orders comments for the requested mode: primary mode key,
// secondary ascending depth so parents are visited no later than equally keyed
// children. The sort is stable, so the input's creation order breaks any
// remaining ties.
func SortForAssembly(comments []domain.Comment, mode domain.CommentSort) {
	var less func(a, b *domain.Comment) (lessThan, equal bool)

	switch mode {
	case domain.CommentSortNew:
		less = func(a, b *domain.Comment) (bool, bool) {
			if a.CreatedAt.Equal(b.CreatedAt) {
				return false, true
			}
			return a.CreatedAt.After(b.CreatedAt), false
		}
	case domain.CommentSortControversial:
		less = func(a, b *domain.Comment) (bool, bool) {
			ca, cb := Controversy(a.Upvotes, a.Downvotes), Controversy(b.Upvotes, b.Downvotes)
			if ca == cb {
				return false, true
			}
			return ca > cb, false
		}
	default: // top
		less = func(a, b *domain.Comment) (bool, bool) {
			if a.Score == b.Score {
				return false, true
			}
			return a.Score > b.Score, false
		}
	}

	sort.SliceStable(comments, func(i, j int) bool {
		lessThan, equal := less(&comments[i], &comments[j])
		if equal {
			return comments[i].Depth < comments[j].Depth
		}
		return lessThan
	})
}
