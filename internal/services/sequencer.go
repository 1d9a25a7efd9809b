package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/examtree/examtree-backend/internal/data/tree"
	"github.com/examtree/examtree-backend/internal/domain"
	"github.com/examtree/examtree-backend/internal/platform/logger"
)

// SequenceService owns the per-parent ordinal invariant: no two siblings
// share an order number. Reordering is same-scope only and swaps order
// values with whichever sibling currently holds the requested position.
type SequenceService interface {
	NextOrder(ctx context.Context, level domain.Level, parentID uuid.UUID) (int, error)
	ValidateReorder(ctx context.Context, level domain.Level, parentID uuid.UUID, proposed int, excludeID uuid.UUID) error
	Reorder(ctx context.Context, level domain.Level, id uuid.UUID, newOrder int) (*domain.Node, error)
}

type sequenceService struct {
	log   *logger.Logger
	store tree.Store
}

func NewSequenceService(baseLog *logger.Logger, store tree.Store) SequenceService {
	return &sequenceService{log: baseLog.With("service", "SequenceService"), store: store}
}

func (ss *sequenceService) NextOrder(ctx context.Context, level domain.Level, parentID uuid.UUID) (int, error) {
	if !level.Valid() {
		return 0, ErrInvalidLevel
	}
	max, err := ss.store.MaxOrder(ctx, nil, level, parentID)
	if err != nil {
		return 0, fmt.Errorf("max order for %s under %s: %w", level, parentID, err)
	}
	return max + 1, nil
}

func (ss *sequenceService) ValidateReorder(ctx context.Context, level domain.Level, parentID uuid.UUID, proposed int, excludeID uuid.UUID) error {
	if !level.Valid() {
		return ErrInvalidLevel
	}
	if proposed < 1 {
		return ErrInvalidOrder
	}
	sibling, err := ss.store.SiblingByOrder(ctx, nil, level, parentID, proposed)
	if err != nil {
		return fmt.Errorf("check order %d for %s under %s: %w", proposed, level, parentID, err)
	}
	if sibling != nil && sibling.ID != excludeID {
		return ErrOrderConflict
	}
	return nil
}

func (ss *sequenceService) Reorder(ctx context.Context, level domain.Level, id uuid.UUID, newOrder int) (*domain.Node, error) {
	if !level.Valid() {
		return nil, ErrInvalidLevel
	}
	if newOrder < 1 {
		return nil, ErrInvalidOrder
	}

	node, err := ss.store.GetNode(ctx, nil, level, id)
	if err != nil {
		return nil, fmt.Errorf("load %s %s: %w", level, id, err)
	}
	if node == nil {
		return nil, ErrNotFound
	}
	if node.OrderNumber == newOrder {
		return node, nil
	}

	sibling, err := ss.store.SiblingByOrder(ctx, nil, level, node.ParentID, newOrder)
	if err != nil {
		return nil, fmt.Errorf("find sibling at order %d: %w", newOrder, err)
	}
	if sibling != nil {
		if _, err := ss.store.UpdateFields(ctx, nil, level, sibling.ID, map[string]interface{}{"order_number": node.OrderNumber}); err != nil {
			return nil, fmt.Errorf("swap order onto sibling %s: %w", sibling.ID, err)
		}
	}
	if _, err := ss.store.UpdateFields(ctx, nil, level, id, map[string]interface{}{"order_number": newOrder}); err != nil {
		return nil, fmt.Errorf("set order on %s %s: %w", level, id, err)
	}

	ss.log.Info("Sibling reorder applied",
		"level", level.String(), "id", id, "from", node.OrderNumber, "to", newOrder, "swapped", sibling != nil)
	node.OrderNumber = newOrder
	return node, nil
}
