package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/examtree/examtree-backend/internal/data/tree"
	"github.com/examtree/examtree-backend/internal/domain"
)

func newNodeService(f *fixture) NodeService {
	log := testLogger()
	resolver := NewResolverService(log, f.store)
	sequencer := NewSequenceService(log, f.store)
	inv := NewInvalidator(testCache(), nil, log)
	return NewNodeService(log, f.store, f.store, resolver, sequencer, inv)
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func floatPtr(v float64) *float64 { return &v }

func TestCreateAppendsOrder(t *testing.T) {
	t.Parallel()
	f := seedExamTree(t)
	ns := newNodeService(f)
	ctx := context.Background()

	node, err := ns.Create(ctx, domain.LevelUnit, CreateNodeInput{
		ParentToken: "physics",
		Name:        "Thermodynamics",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if node.OrderNumber != 3 {
		t.Fatalf("appended order: got=%d want=3", node.OrderNumber)
	}
	if node.Status != domain.StatusActive {
		t.Fatalf("default status: got=%s", node.Status)
	}
	if node.ParentID != f.physics.ID {
		t.Fatalf("parent: got=%s want=%s", node.ParentID, f.physics.ID)
	}
}

func TestCreateWithExplicitOrder(t *testing.T) {
	t.Parallel()
	f := seedExamTree(t)
	ns := newNodeService(f)
	ctx := context.Background()

	node, err := ns.Create(ctx, domain.LevelUnit, CreateNodeInput{
		ParentToken: f.physics.ID.String(),
		Name:        "Thermodynamics",
		OrderNumber: intPtr(5),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if node.OrderNumber != 5 {
		t.Fatalf("order: got=%d want=5", node.OrderNumber)
	}

	_, err = ns.Create(ctx, domain.LevelUnit, CreateNodeInput{
		ParentToken: "physics",
		Name:        "Waves",
		OrderNumber: intPtr(1),
	})
	if !errors.Is(err, ErrOrderConflict) {
		t.Fatalf("expected ErrOrderConflict, got %v", err)
	}
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()
	f := seedExamTree(t)
	ns := newNodeService(f)
	ctx := context.Background()

	if _, err := ns.Create(ctx, domain.LevelUnit, CreateNodeInput{ParentToken: "physics", Name: "  "}); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got %v", err)
	}
	if _, err := ns.Create(ctx, domain.LevelUnit, CreateNodeInput{Name: "Thermodynamics"}); !errors.Is(err, ErrParentRequired) {
		t.Fatalf("expected ErrParentRequired, got %v", err)
	}
	if _, err := ns.Create(ctx, domain.LevelUnit, CreateNodeInput{ParentToken: "biology", Name: "Cells"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown parent, got %v", err)
	}
	if _, err := ns.Create(ctx, domain.LevelUnit, CreateNodeInput{ParentToken: "physics", Name: "Mechanics"}); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
	if _, err := ns.Create(ctx, domain.LevelUnit, CreateNodeInput{ParentToken: "physics", Name: "mechanics"}); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected case-insensitive ErrDuplicateName, got %v", err)
	}
	if _, err := ns.Create(ctx, domain.LevelUnit, CreateNodeInput{ParentToken: "physics", Name: "X", Status: "archived"}); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}

	// Same name under a different parent is fine.
	if _, err := ns.Create(ctx, domain.LevelUnit, CreateNodeInput{ParentToken: "chemistry", Name: "Mechanics"}); err != nil {
		t.Fatalf("same name, different parent: %v", err)
	}
}

func TestCreateChapterNamesMayRepeat(t *testing.T) {
	t.Parallel()
	f := seedExamTree(t)
	ns := newNodeService(f)

	if _, err := ns.Create(context.Background(), domain.LevelChapter, CreateNodeInput{
		ParentToken: f.mechanics.ID.String(),
		Name:        "Kinematics",
		Weightage:   floatPtr(3.5),
	}); err != nil {
		t.Fatalf("duplicate chapter name should pass: %v", err)
	}
}

func TestCreateSubTopicStoresDetail(t *testing.T) {
	t.Parallel()
	f := seedExamTree(t)
	ns := newNodeService(f)
	ctx := context.Background()

	node, err := ns.Create(ctx, domain.LevelSubTopic, CreateNodeInput{
		ParentToken: f.motionLine.ID.String(),
		Name:        "Acceleration",
		Detail:      json.RawMessage(`{"blocks":[{"type":"text","value":"a = dv/dt"}]}`),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	detail, err := f.store.GetDetail(ctx, nil, node.ID)
	if err != nil {
		t.Fatalf("get detail: %v", err)
	}
	if detail == nil {
		t.Fatalf("expected detail row")
	}
}

func TestUpdateRenamesAndGuards(t *testing.T) {
	t.Parallel()
	f := seedExamTree(t)
	ns := newNodeService(f)
	ctx := context.Background()

	node, err := ns.Update(ctx, domain.LevelUnit, f.mechanics.ID, UpdateNodeInput{Name: strPtr("Classical Mechanics")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if node.Name != "Classical Mechanics" {
		t.Fatalf("name: got=%q", node.Name)
	}

	if _, err := ns.Update(ctx, domain.LevelUnit, f.optics.ID, UpdateNodeInput{Name: strPtr("Classical Mechanics")}); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}

	// Restating the current parent is a no-op, any other parent is
	// rejected.
	if _, err := ns.Update(ctx, domain.LevelUnit, f.optics.ID, UpdateNodeInput{ParentToken: strPtr("physics")}); err != nil {
		t.Fatalf("same parent should pass: %v", err)
	}
	if _, err := ns.Update(ctx, domain.LevelUnit, f.optics.ID, UpdateNodeInput{ParentToken: strPtr("chemistry")}); !errors.Is(err, ErrCrossScope) {
		t.Fatalf("expected ErrCrossScope, got %v", err)
	}
}

func TestListAndGet(t *testing.T) {
	t.Parallel()
	f := seedExamTree(t)
	ns := newNodeService(f)
	ctx := context.Background()

	units, err := ns.List(ctx, domain.LevelUnit, "physics")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(units) != 2 || units[0].ID != f.mechanics.ID {
		t.Fatalf("listed units wrong: got=%d", len(units))
	}

	exams, err := ns.List(ctx, domain.LevelExam, "")
	if err != nil {
		t.Fatalf("list exams: %v", err)
	}
	if len(exams) != 1 {
		t.Fatalf("exams: got=%d want=1", len(exams))
	}

	if _, err := ns.List(ctx, domain.LevelUnit, ""); !errors.Is(err, ErrParentRequired) {
		t.Fatalf("expected ErrParentRequired, got %v", err)
	}

	got, err := ns.Get(ctx, domain.LevelSubject, "physics")
	if err != nil || got.ID != f.physics.ID {
		t.Fatalf("get: got=%v err=%v", got, err)
	}
}

func TestSetOrderInvalidatesThroughSequencer(t *testing.T) {
	t.Parallel()
	f := seedExamTree(t)
	ns := newNodeService(f)
	ctx := context.Background()

	node, err := ns.SetOrder(ctx, domain.LevelUnit, f.mechanics.ID, 2)
	if err != nil {
		t.Fatalf("set order: %v", err)
	}
	if node.OrderNumber != 2 {
		t.Fatalf("order: got=%d want=2", node.OrderNumber)
	}
	swapped, _ := f.store.GetNode(ctx, nil, domain.LevelUnit, f.optics.ID)
	if swapped.OrderNumber != 1 {
		t.Fatalf("swap: got=%d want=1", swapped.OrderNumber)
	}
}

// brokenChainStore fails lookups at one level so the ancestor walk above
// a mutated record cannot complete.
type brokenChainStore struct {
	tree.Store
	failLevel domain.Level
}

func (s *brokenChainStore) GetNode(ctx context.Context, tx *gorm.DB, level domain.Level, id uuid.UUID) (*domain.Node, error) {
	if level == s.failLevel {
		return nil, errors.New("connection reset by peer")
	}
	return s.Store.GetNode(ctx, tx, level, id)
}

func TestWritesDropAllCachedReadsWhenChainLookupFails(t *testing.T) {
	t.Parallel()
	f := seedExamTree(t)
	log := testLogger()
	store := &brokenChainStore{Store: f.store, failLevel: domain.LevelExam}
	c := testCache()
	inv := NewInvalidator(c, nil, log)
	ns := NewNodeService(log, store, f.store, NewResolverService(log, store), NewSequenceService(log, store), inv)
	ctx := context.Background()

	seedCache := func() {
		c.Set(subjectTreeKey(f.exam.ID, f.physics.ID), "cached")
		c.Set(arenaKey(f.exam.ID), "cached")
	}

	seedCache()
	if _, err := ns.Update(ctx, domain.LevelSubject, f.physics.ID, UpdateNodeInput{Name: strPtr("Physics I")}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := c.Len(); got != 0 {
		t.Fatalf("cached reads after update: got=%d want=0", got)
	}

	seedCache()
	if _, err := ns.SetOrder(ctx, domain.LevelSubject, f.physics.ID, 2); err != nil {
		t.Fatalf("set order: %v", err)
	}
	if got := c.Len(); got != 0 {
		t.Fatalf("cached reads after reorder: got=%d want=0", got)
	}
}
