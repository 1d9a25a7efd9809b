package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// Node is the level-agnostic projection of a tree record: just the fields
// the cascade, sequencing and navigation logic cares about. ParentID is
// uuid.Nil for exams.
type Node struct {
	ID          uuid.UUID `gorm:"column:id" json:"id"`
	ParentID    uuid.UUID `gorm:"column:parent_id" json:"parent_id"`
	Name        string    `gorm:"column:name" json:"name"`
	OrderNumber int       `gorm:"column:order_number" json:"order_number"`
	Status      string    `gorm:"column:status" json:"status"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	Level       Level     `gorm:"-" json:"-"`
}

func (n *Node) Slug() string { return slug.Make(n.Name) }

func (n *Node) Active() bool { return n.Status == StatusActive }

// OrderBefore is the sibling ordering used everywhere: order_number
// ascending, creation time as the tie-break for drifted data, id last so
// the order is total.
func (n *Node) OrderBefore(other *Node) bool {
	if n.OrderNumber != other.OrderNumber {
		return n.OrderNumber < other.OrderNumber
	}
	if !n.CreatedAt.Equal(other.CreatedAt) {
		return n.CreatedAt.Before(other.CreatedAt)
	}
	return n.ID.String() < other.ID.String()
}
