package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Unit struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ExamID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"exam_id"`
	SubjectID   uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_unit_subject_name" json:"subject_id"`
	Name        string         `gorm:"column:name;not null;uniqueIndex:idx_unit_subject_name" json:"name"`
	OrderNumber int            `gorm:"column:order_number;not null;default:1" json:"order_number"`
	Status      string         `gorm:"column:status;not null;default:'active';index" json:"status"`
	Content     datatypes.JSON `gorm:"column:content;type:jsonb" json:"content,omitempty"`
	SEO         datatypes.JSON `gorm:"column:seo;type:jsonb" json:"seo,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Unit) TableName() string { return "unit" }
