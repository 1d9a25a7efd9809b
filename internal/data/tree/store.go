// Package tree is the persistence boundary of the content tree. The Store
// interface is level-generic: every operation takes a domain.Level and is
// dispatched through the level table, so the cascade and navigation logic
// is written once instead of six times.
package tree

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/examtree/examtree-backend/internal/domain"
)

// Store is the query capability the core expects from its persistence
// collaborator: find-by-parent, find-by-id, bulk-update and bulk-delete.
// A nil tx means the implementation's own handle; lookups that find
// nothing return (nil, nil), not an error.
type Store interface {
	Create(ctx context.Context, tx *gorm.DB, level domain.Level, n *domain.Node, ancestors map[domain.Level]uuid.UUID, extra map[string]interface{}) error
	GetNode(ctx context.Context, tx *gorm.DB, level domain.Level, id uuid.UUID) (*domain.Node, error)
	ListChildren(ctx context.Context, tx *gorm.DB, level domain.Level, parentID uuid.UUID) ([]*domain.Node, error)
	ListLevel(ctx context.Context, tx *gorm.DB, level domain.Level) ([]*domain.Node, error)
	ListByAncestor(ctx context.Context, tx *gorm.DB, level, ancestor domain.Level, ancestorID uuid.UUID) ([]*domain.Node, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, level domain.Level, id uuid.UUID, fields map[string]interface{}) (int64, error)
	SetStatusByAncestor(ctx context.Context, tx *gorm.DB, level, ancestor domain.Level, ancestorID uuid.UUID, status string) (int64, error)
	DeleteByID(ctx context.Context, tx *gorm.DB, level domain.Level, id uuid.UUID) (int64, error)
	DeleteByAncestor(ctx context.Context, tx *gorm.DB, level, ancestor domain.Level, ancestorID uuid.UUID) (int64, error)
	MaxOrder(ctx context.Context, tx *gorm.DB, level domain.Level, parentID uuid.UUID) (int, error)
	SiblingByOrder(ctx context.Context, tx *gorm.DB, level domain.Level, parentID uuid.UUID, order int) (*domain.Node, error)
	NameTaken(ctx context.Context, tx *gorm.DB, level domain.Level, parentID uuid.UUID, name string, excludeID uuid.UUID) (bool, error)
}

// DetailStore manages the auxiliary subtopic detail rows that must go
// away with their subtopic during a delete cascade.
type DetailStore interface {
	UpsertDetail(ctx context.Context, tx *gorm.DB, d *domain.SubTopicDetail) error
	GetDetail(ctx context.Context, tx *gorm.DB, subTopicID uuid.UUID) (*domain.SubTopicDetail, error)
	DeleteDetailsBySubTopicIDs(ctx context.Context, tx *gorm.DB, subTopicIDs []uuid.UUID) (int64, error)
}
