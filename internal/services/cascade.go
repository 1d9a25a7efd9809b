package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/examtree/examtree-backend/internal/data/tree"
	"github.com/examtree/examtree-backend/internal/domain"
	"github.com/examtree/examtree-backend/internal/platform/logger"
)

// CascadeResult reports what a cascade touched: one count per descendant
// level, plus the auxiliary detail rows removed on delete.
type CascadeResult struct {
	Level       domain.Level
	ID          uuid.UUID
	Counts      map[domain.Level]int64
	DetailCount int64
}

// CountsByName keys the per-level counts by level name for transport.
func (r *CascadeResult) CountsByName() map[string]int64 {
	out := make(map[string]int64, len(r.Counts))
	for lvl, n := range r.Counts {
		out[lvl.String()] = n
	}
	return out
}

// CascadeService propagates a status change or delete from a record to
// every descendant, one level-wide bulk write at a time. The walk is not
// transactional across levels: a failure partway leaves shallower levels
// committed and is reported as *PartialCascadeError.
type CascadeService interface {
	ApplyStatus(ctx context.Context, level domain.Level, id uuid.UUID, status string) (*CascadeResult, error)
	Delete(ctx context.Context, level domain.Level, id uuid.UUID) (*CascadeResult, error)
}

type cascadeService struct {
	log         *logger.Logger
	store       tree.Store
	details     tree.DetailStore
	invalidator *Invalidator
}

func NewCascadeService(baseLog *logger.Logger, store tree.Store, details tree.DetailStore, invalidator *Invalidator) CascadeService {
	return &cascadeService{
		log:         baseLog.With("service", "CascadeService"),
		store:       store,
		details:     details,
		invalidator: invalidator,
	}
}

func (cs *cascadeService) ApplyStatus(ctx context.Context, level domain.Level, id uuid.UUID, status string) (*CascadeResult, error) {
	if !level.Valid() {
		return nil, ErrInvalidLevel
	}
	if !domain.ValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	node, err := cs.store.GetNode(ctx, nil, level, id)
	if err != nil {
		return nil, fmt.Errorf("load %s %s: %w", level, id, err)
	}
	if node == nil {
		return nil, ErrNotFound
	}
	chain, err := ancestorChainOf(ctx, cs.store, node)
	if err != nil {
		return nil, err
	}
	examID := examIDOf(node, chain)

	// The target is written first; every write below is idempotent, so a
	// retry after a partial failure converges on the same end state.
	if _, err := cs.store.UpdateFields(ctx, nil, level, id, map[string]interface{}{"status": status}); err != nil {
		return nil, fmt.Errorf("update %s %s status: %w", level, id, err)
	}
	defer cs.invalidator.InvalidateExam(ctx, examID)

	result := &CascadeResult{Level: level, ID: id, Counts: make(map[domain.Level]int64)}
	for _, desc := range level.Below() {
		updated, err := cs.store.SetStatusByAncestor(ctx, nil, desc, level, id, status)
		if err != nil {
			return nil, &PartialCascadeError{
				Op:        "status",
				Target:    level,
				Failed:    desc,
				Completed: result.Counts,
				Err:       err,
			}
		}
		result.Counts[desc] = updated
	}

	cs.log.Info("Status cascade applied",
		"level", level.String(), "id", id, "status", status, "counts", result.CountsByName())
	return result, nil
}

func (cs *cascadeService) Delete(ctx context.Context, level domain.Level, id uuid.UUID) (*CascadeResult, error) {
	if !level.Valid() {
		return nil, ErrInvalidLevel
	}

	node, err := cs.store.GetNode(ctx, nil, level, id)
	if err != nil {
		return nil, fmt.Errorf("load %s %s: %w", level, id, err)
	}
	if node == nil {
		return nil, ErrNotFound
	}
	chain, err := ancestorChainOf(ctx, cs.store, node)
	if err != nil {
		return nil, err
	}
	examID := examIDOf(node, chain)
	defer cs.invalidator.InvalidateExam(ctx, examID)

	result := &CascadeResult{Level: level, ID: id, Counts: make(map[domain.Level]int64)}

	// Deepest level first, target last, so an interrupted cascade never
	// leaves a descendant pointing at a deleted ancestor.
	below := level.Below()
	for i := len(below) - 1; i >= 0; i-- {
		desc := below[i]
		if desc == domain.LevelSubTopic {
			if err := cs.deleteDetailsUnder(ctx, level, id, result); err != nil {
				return nil, &PartialCascadeError{Op: "delete", Target: level, Failed: desc, Completed: result.Counts, Err: err}
			}
		}
		deleted, err := cs.store.DeleteByAncestor(ctx, nil, desc, level, id)
		if err != nil {
			return nil, &PartialCascadeError{Op: "delete", Target: level, Failed: desc, Completed: result.Counts, Err: err}
		}
		result.Counts[desc] = deleted
	}

	if level == domain.LevelSubTopic {
		detailCount, err := cs.details.DeleteDetailsBySubTopicIDs(ctx, nil, []uuid.UUID{id})
		if err != nil {
			return nil, &PartialCascadeError{Op: "delete", Target: level, Failed: level, Completed: result.Counts, Err: err}
		}
		result.DetailCount = detailCount
	}

	if _, err := cs.store.DeleteByID(ctx, nil, level, id); err != nil {
		return nil, &PartialCascadeError{Op: "delete", Target: level, Failed: level, Completed: result.Counts, Err: err}
	}

	cs.log.Info("Delete cascade applied",
		"level", level.String(), "id", id, "counts", result.CountsByName(), "detail_count", result.DetailCount)
	return result, nil
}

func (cs *cascadeService) deleteDetailsUnder(ctx context.Context, level domain.Level, id uuid.UUID, result *CascadeResult) error {
	subTopics, err := cs.store.ListByAncestor(ctx, nil, domain.LevelSubTopic, level, id)
	if err != nil {
		return fmt.Errorf("list subtopics under %s %s: %w", level, id, err)
	}
	if len(subTopics) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(subTopics))
	for _, st := range subTopics {
		ids = append(ids, st.ID)
	}
	detailCount, err := cs.details.DeleteDetailsBySubTopicIDs(ctx, nil, ids)
	if err != nil {
		return fmt.Errorf("delete subtopic details: %w", err)
	}
	result.DetailCount = detailCount
	return nil
}
