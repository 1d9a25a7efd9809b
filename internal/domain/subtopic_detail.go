package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SubTopicDetail holds the heavy freeform body for a subtopic, kept out of
// the subtopic row so list reads stay small. Detail rows are removed
// synchronously during delete cascades.
type SubTopicDetail struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SubTopicID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"subtopic_id"`
	Body       datatypes.JSON `gorm:"column:body;type:jsonb" json:"body,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (SubTopicDetail) TableName() string { return "subtopic_detail" }
