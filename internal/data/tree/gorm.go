package tree

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/examtree/examtree-backend/internal/domain"
	"github.com/examtree/examtree-backend/internal/platform/logger"
)

// GormStore implements Store and DetailStore on GORM/Postgres. Bulk
// status updates and deletes are single statements per level; the
// cross-level walk above it is not transactional.
type GormStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGormStore(db *gorm.DB, baseLog *logger.Logger) *GormStore {
	return &GormStore{db: db, log: baseLog.With("store", "GormStore")}
}

func (s *GormStore) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

const siblingOrder = "order_number ASC, created_at ASC, id ASC"

func nodeColumns(level domain.Level) string {
	if level == domain.LevelExam {
		return "id, name, order_number, status, created_at"
	}
	parent, _ := level.Parent()
	return fmt.Sprintf("id, name, order_number, status, created_at, %s AS parent_id", parent.RefColumn())
}

func (s *GormStore) Create(ctx context.Context, tx *gorm.DB, level domain.Level, n *domain.Node, ancestors map[domain.Level]uuid.UUID, extra map[string]interface{}) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	now := time.Now()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	if n.Status == "" {
		n.Status = domain.StatusActive
	}
	n.Level = level

	row := map[string]interface{}{
		"id":           n.ID,
		"name":         n.Name,
		"order_number": n.OrderNumber,
		"status":       n.Status,
		"created_at":   n.CreatedAt,
		"updated_at":   now,
	}
	for anc, id := range ancestors {
		row[anc.RefColumn()] = id
	}
	for col, v := range extra {
		row[col] = v
	}
	if parent, ok := level.Parent(); ok {
		n.ParentID = ancestors[parent]
	}

	if err := s.handle(tx).WithContext(ctx).Table(level.Table()).Create(row).Error; err != nil {
		return err
	}
	return nil
}

func (s *GormStore) GetNode(ctx context.Context, tx *gorm.DB, level domain.Level, id uuid.UUID) (*domain.Node, error) {
	var n domain.Node
	res := s.handle(tx).WithContext(ctx).
		Table(level.Table()).
		Select(nodeColumns(level)).
		Where("id = ?", id).
		Limit(1).
		Scan(&n)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	n.Level = level
	return &n, nil
}

func (s *GormStore) ListChildren(ctx context.Context, tx *gorm.DB, level domain.Level, parentID uuid.UUID) ([]*domain.Node, error) {
	parent, ok := level.Parent()
	if !ok {
		return s.ListLevel(ctx, tx, level)
	}
	return s.scanNodes(ctx, tx, level, parent.RefColumn(), parentID)
}

func (s *GormStore) ListLevel(ctx context.Context, tx *gorm.DB, level domain.Level) ([]*domain.Node, error) {
	var nodes []*domain.Node
	if err := s.handle(tx).WithContext(ctx).
		Table(level.Table()).
		Select(nodeColumns(level)).
		Order(siblingOrder).
		Scan(&nodes).Error; err != nil {
		return nil, err
	}
	for _, n := range nodes {
		n.Level = level
	}
	return nodes, nil
}

func (s *GormStore) ListByAncestor(ctx context.Context, tx *gorm.DB, level, ancestor domain.Level, ancestorID uuid.UUID) ([]*domain.Node, error) {
	return s.scanNodes(ctx, tx, level, ancestor.RefColumn(), ancestorID)
}

func (s *GormStore) scanNodes(ctx context.Context, tx *gorm.DB, level domain.Level, refColumn string, refID uuid.UUID) ([]*domain.Node, error) {
	var nodes []*domain.Node
	if err := s.handle(tx).WithContext(ctx).
		Table(level.Table()).
		Select(nodeColumns(level)).
		Where(fmt.Sprintf("%s = ?", refColumn), refID).
		Order(siblingOrder).
		Scan(&nodes).Error; err != nil {
		return nil, err
	}
	for _, n := range nodes {
		n.Level = level
	}
	return nodes, nil
}

func (s *GormStore) UpdateFields(ctx context.Context, tx *gorm.DB, level domain.Level, id uuid.UUID, fields map[string]interface{}) (int64, error) {
	if len(fields) == 0 {
		return 0, nil
	}
	if _, ok := fields["updated_at"]; !ok {
		fields["updated_at"] = time.Now()
	}
	res := s.handle(tx).WithContext(ctx).
		Table(level.Table()).
		Where("id = ?", id).
		Updates(fields)
	return res.RowsAffected, res.Error
}

func (s *GormStore) SetStatusByAncestor(ctx context.Context, tx *gorm.DB, level, ancestor domain.Level, ancestorID uuid.UUID, status string) (int64, error) {
	res := s.handle(tx).WithContext(ctx).
		Table(level.Table()).
		Where(fmt.Sprintf("%s = ?", ancestor.RefColumn()), ancestorID).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
	return res.RowsAffected, res.Error
}

func (s *GormStore) DeleteByID(ctx context.Context, tx *gorm.DB, level domain.Level, id uuid.UUID) (int64, error) {
	res := s.handle(tx).WithContext(ctx).
		Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", level.Table()), id)
	return res.RowsAffected, res.Error
}

func (s *GormStore) DeleteByAncestor(ctx context.Context, tx *gorm.DB, level, ancestor domain.Level, ancestorID uuid.UUID) (int64, error) {
	res := s.handle(tx).WithContext(ctx).
		Exec(fmt.Sprintf("DELETE FROM %s WHERE %s = ?", level.Table(), ancestor.RefColumn()), ancestorID)
	return res.RowsAffected, res.Error
}

func (s *GormStore) MaxOrder(ctx context.Context, tx *gorm.DB, level domain.Level, parentID uuid.UUID) (int, error) {
	var row struct{ MaxOrder int }
	q := s.handle(tx).WithContext(ctx).
		Table(level.Table()).
		Select("COALESCE(MAX(order_number), 0) AS max_order")
	if parent, ok := level.Parent(); ok {
		q = q.Where(fmt.Sprintf("%s = ?", parent.RefColumn()), parentID)
	}
	if err := q.Scan(&row).Error; err != nil {
		return 0, err
	}
	return row.MaxOrder, nil
}

func (s *GormStore) SiblingByOrder(ctx context.Context, tx *gorm.DB, level domain.Level, parentID uuid.UUID, order int) (*domain.Node, error) {
	var n domain.Node
	q := s.handle(tx).WithContext(ctx).
		Table(level.Table()).
		Select(nodeColumns(level)).
		Where("order_number = ?", order)
	if parent, ok := level.Parent(); ok {
		q = q.Where(fmt.Sprintf("%s = ?", parent.RefColumn()), parentID)
	}
	res := q.Order(siblingOrder).Limit(1).Scan(&n)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	n.Level = level
	return &n, nil
}

func (s *GormStore) NameTaken(ctx context.Context, tx *gorm.DB, level domain.Level, parentID uuid.UUID, name string, excludeID uuid.UUID) (bool, error) {
	var count int64
	q := s.handle(tx).WithContext(ctx).
		Table(level.Table()).
		Where("LOWER(TRIM(name)) = LOWER(TRIM(?))", name)
	if parent, ok := level.Parent(); ok {
		q = q.Where(fmt.Sprintf("%s = ?", parent.RefColumn()), parentID)
	}
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormStore) UpsertDetail(ctx context.Context, tx *gorm.DB, d *domain.SubTopicDetail) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return s.handle(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sub_topic_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
		}).
		Create(d).Error
}

func (s *GormStore) GetDetail(ctx context.Context, tx *gorm.DB, subTopicID uuid.UUID) (*domain.SubTopicDetail, error) {
	var details []*domain.SubTopicDetail
	if err := s.handle(tx).WithContext(ctx).
		Where("sub_topic_id = ?", subTopicID).
		Limit(1).
		Find(&details).Error; err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, nil
	}
	return details[0], nil
}

func (s *GormStore) DeleteDetailsBySubTopicIDs(ctx context.Context, tx *gorm.DB, subTopicIDs []uuid.UUID) (int64, error) {
	if len(subTopicIDs) == 0 {
		return 0, nil
	}
	res := s.handle(tx).WithContext(ctx).
		Where("sub_topic_id IN ?", subTopicIDs).
		Delete(&domain.SubTopicDetail{})
	return res.RowsAffected, res.Error
}
