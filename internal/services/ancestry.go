package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/examtree/examtree-backend/internal/data/tree"
	"github.com/examtree/examtree-backend/internal/domain"
)

// ancestorChainOf walks the parent references up to the exam and returns
// the full set of ancestor ids. The chain is always derived from stored
// parents, never taken from a request, which is what keeps the
// denormalized ancestor columns consistent with the direct parent.
func ancestorChainOf(ctx context.Context, s tree.Store, node *domain.Node) (map[domain.Level]uuid.UUID, error) {
	chain := make(map[domain.Level]uuid.UUID, int(node.Level))
	cur := node
	for {
		parentLevel, ok := cur.Level.Parent()
		if !ok {
			return chain, nil
		}
		parent, err := s.GetNode(ctx, nil, parentLevel, cur.ParentID)
		if err != nil {
			return nil, fmt.Errorf("load %s %s: %w", parentLevel, cur.ParentID, err)
		}
		if parent == nil {
			return nil, fmt.Errorf("%s %s references missing %s %s", cur.Level, cur.ID, parentLevel, cur.ParentID)
		}
		chain[parentLevel] = parent.ID
		cur = parent
	}
}

func examIDOf(node *domain.Node, chain map[domain.Level]uuid.UUID) uuid.UUID {
	if node.Level == domain.LevelExam {
		return node.ID
	}
	return chain[domain.LevelExam]
}
