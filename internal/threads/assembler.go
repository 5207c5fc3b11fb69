package threads

import (
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/romejiang/moltbook-api/internal/domain"
	"github.com/romejiang/moltbook-api/internal/metrics"
)

// Node is a comment with its assembled reply list. Replies exist only in the
// assembled tree; they are never persisted. YourVote carries the reading
// agent's own vote when the listing is annotated.
type Node struct {
	domain.Comment
	YourVote string  `json:"your_vote,omitempty"`
	Replies  []*Node `json:"replies"`
}

// Assemble turns a flat, pre-sorted comment list into a forest. Each node is
// appended to its parent's reply list when the parent is present in the input,
// and promoted to the root list otherwise (the parent may have been filtered
// out by a result-size cap). No re-sorting happens here: sibling order is
// exactly the order siblings appeared in the input.
func Assemble(comments []domain.Comment) []*Node {
	timer := prometheus.NewTimer(metrics.ThreadAssemblyDuration)
	defer timer.ObserveDuration()

	nodes := make(map[uuid.UUID]*Node, len(comments))
	for i := range comments {
		nodes[comments[i].ID] = &Node{
			Comment: comments[i],
			Replies: []*Node{},
		}
	}

	roots := make([]*Node, 0, len(comments))
	for i := range comments {
		node := nodes[comments[i].ID]

		if node.ParentID == nil {
			roots = append(roots, node)
			continue
		}

		parent, ok := nodes[*node.ParentID]
		if !ok || formsCycle(nodes, node) {
			if ok {
				// Parent exists but linking would close a loop; treat the
				// node as a root rather than trusting the input.
				roots = append(roots, node)
				continue
			}
			metrics.ThreadOrphansPromoted.Inc()
			roots = append(roots, node)
			continue
		}

		parent.Replies = append(parent.Replies, node)
	}

	return roots
}

// formsCycle reports whether node's parent chain, followed through the input
// set, leads back to node itself. Malformed input could point a comment at one
// of its own descendants; depth bounds make the walk cheap.
func formsCycle(nodes map[uuid.UUID]*Node, node *Node) bool {
	seen := 0
	cursor := node.ParentID
	for cursor != nil && seen <= len(nodes) {
		if *cursor == node.ID {
			return true
		}
		next, ok := nodes[*cursor]
		if !ok {
			return false
		}
		cursor = next.ParentID
		seen++
	}
	return seen > len(nodes)
}
