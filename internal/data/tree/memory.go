package tree

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/examtree/examtree-backend/internal/domain"
)

type memRecord struct {
	node      domain.Node
	ancestors map[domain.Level]uuid.UUID
	extra     map[string]interface{}
}

// MemoryStore is an in-memory implementation of Store and DetailStore.
// It backs hermetic tests and lets the service come up without a
// database. The tx argument is ignored.
type MemoryStore struct {
	mu      sync.RWMutex
	records [domain.LevelCount]map[uuid.UUID]*memRecord
	details map[uuid.UUID]*domain.SubTopicDetail
	seq     int64
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{details: make(map[uuid.UUID]*domain.SubTopicDetail)}
	for i := range s.records {
		s.records[i] = make(map[uuid.UUID]*memRecord)
	}
	return s
}

// nextCreatedAt hands out strictly increasing timestamps so insertion
// order stays a usable tie-break even within one clock tick.
func (s *MemoryStore) nextCreatedAt() time.Time {
	s.seq++
	return time.Unix(0, s.seq*int64(time.Millisecond))
}

func (s *MemoryStore) Create(_ context.Context, _ *gorm.DB, level domain.Level, n *domain.Node, ancestors map[domain.Level]uuid.UUID, extra map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.nextCreatedAt()
	}
	if n.Status == "" {
		n.Status = domain.StatusActive
	}
	n.Level = level
	if parent, ok := level.Parent(); ok {
		n.ParentID = ancestors[parent]
	}

	ancCopy := make(map[domain.Level]uuid.UUID, len(ancestors))
	for k, v := range ancestors {
		ancCopy[k] = v
	}
	extraCopy := make(map[string]interface{}, len(extra))
	for k, v := range extra {
		extraCopy[k] = v
	}
	node := *n
	s.records[level][n.ID] = &memRecord{node: node, ancestors: ancCopy, extra: extraCopy}
	return nil
}

func (s *MemoryStore) GetNode(_ context.Context, _ *gorm.DB, level domain.Level, id uuid.UUID) (*domain.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[level][id]
	if !ok {
		return nil, nil
	}
	node := rec.node
	return &node, nil
}

func (s *MemoryStore) ListChildren(ctx context.Context, tx *gorm.DB, level domain.Level, parentID uuid.UUID) ([]*domain.Node, error) {
	parent, ok := level.Parent()
	if !ok {
		return s.ListLevel(ctx, tx, level)
	}
	return s.ListByAncestor(ctx, tx, level, parent, parentID)
}

func (s *MemoryStore) ListLevel(_ context.Context, _ *gorm.DB, level domain.Level) ([]*domain.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]*domain.Node, 0, len(s.records[level]))
	for _, rec := range s.records[level] {
		node := rec.node
		nodes = append(nodes, &node)
	}
	sortNodes(nodes)
	return nodes, nil
}

func (s *MemoryStore) ListByAncestor(_ context.Context, _ *gorm.DB, level, ancestor domain.Level, ancestorID uuid.UUID) ([]*domain.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var nodes []*domain.Node
	for _, rec := range s.records[level] {
		if rec.ancestors[ancestor] == ancestorID {
			node := rec.node
			nodes = append(nodes, &node)
		}
	}
	sortNodes(nodes)
	return nodes, nil
}

func (s *MemoryStore) UpdateFields(_ context.Context, _ *gorm.DB, level domain.Level, id uuid.UUID, fields map[string]interface{}) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[level][id]
	if !ok {
		return 0, nil
	}
	applyFields(rec, fields)
	return 1, nil
}

func (s *MemoryStore) SetStatusByAncestor(_ context.Context, _ *gorm.DB, level, ancestor domain.Level, ancestorID uuid.UUID, status string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated int64
	for _, rec := range s.records[level] {
		if rec.ancestors[ancestor] == ancestorID {
			rec.node.Status = status
			updated++
		}
	}
	return updated, nil
}

func (s *MemoryStore) DeleteByID(_ context.Context, _ *gorm.DB, level domain.Level, id uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[level][id]; !ok {
		return 0, nil
	}
	delete(s.records[level], id)
	return 1, nil
}

func (s *MemoryStore) DeleteByAncestor(_ context.Context, _ *gorm.DB, level, ancestor domain.Level, ancestorID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, rec := range s.records[level] {
		if rec.ancestors[ancestor] == ancestorID {
			delete(s.records[level], id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MemoryStore) MaxOrder(ctx context.Context, tx *gorm.DB, level domain.Level, parentID uuid.UUID) (int, error) {
	siblings, err := s.ListChildren(ctx, tx, level, parentID)
	if err != nil {
		return 0, err
	}
	max := 0
	for _, n := range siblings {
		if n.OrderNumber > max {
			max = n.OrderNumber
		}
	}
	return max, nil
}

func (s *MemoryStore) SiblingByOrder(ctx context.Context, tx *gorm.DB, level domain.Level, parentID uuid.UUID, order int) (*domain.Node, error) {
	siblings, err := s.ListChildren(ctx, tx, level, parentID)
	if err != nil {
		return nil, err
	}
	for _, n := range siblings {
		if n.OrderNumber == order {
			return n, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) NameTaken(ctx context.Context, tx *gorm.DB, level domain.Level, parentID uuid.UUID, name string, excludeID uuid.UUID) (bool, error) {
	siblings, err := s.ListChildren(ctx, tx, level, parentID)
	if err != nil {
		return false, err
	}
	want := strings.ToLower(strings.TrimSpace(name))
	for _, n := range siblings {
		if n.ID != excludeID && strings.ToLower(strings.TrimSpace(n.Name)) == want {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) UpsertDetail(_ context.Context, _ *gorm.DB, d *domain.SubTopicDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	cp := *d
	s.details[d.SubTopicID] = &cp
	return nil
}

func (s *MemoryStore) GetDetail(_ context.Context, _ *gorm.DB, subTopicID uuid.UUID) (*domain.SubTopicDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.details[subTopicID]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (s *MemoryStore) DeleteDetailsBySubTopicIDs(_ context.Context, _ *gorm.DB, subTopicIDs []uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for _, id := range subTopicIDs {
		if _, ok := s.details[id]; ok {
			delete(s.details, id)
			deleted++
		}
	}
	return deleted, nil
}

func sortNodes(nodes []*domain.Node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].OrderBefore(nodes[j]) })
}

func applyFields(rec *memRecord, fields map[string]interface{}) {
	for col, v := range fields {
		switch col {
		case "name":
			if name, ok := v.(string); ok {
				rec.node.Name = name
			}
		case "order_number":
			if order, ok := v.(int); ok {
				rec.node.OrderNumber = order
			}
		case "status":
			if status, ok := v.(string); ok {
				rec.node.Status = status
			}
		case "updated_at":
			// Node projection does not carry updated_at.
		default:
			rec.extra[col] = v
		}
	}
}
