package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Chapter names are not unique within a unit; two units commonly repeat
// chapter titles like "Introduction".
type Chapter struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ExamID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"exam_id"`
	SubjectID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"subject_id"`
	UnitID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"unit_id"`
	Name             string         `gorm:"column:name;not null" json:"name"`
	OrderNumber      int            `gorm:"column:order_number;not null;default:1" json:"order_number"`
	Status           string         `gorm:"column:status;not null;default:'active';index" json:"status"`
	Weightage        float64        `gorm:"column:weightage;not null;default:0" json:"weightage"`
	EstimatedMinutes int            `gorm:"column:estimated_minutes;not null;default:0" json:"estimated_minutes"`
	QuestionCount    int            `gorm:"column:question_count;not null;default:0" json:"question_count"`
	Content          datatypes.JSON `gorm:"column:content;type:jsonb" json:"content,omitempty"`
	SEO              datatypes.JSON `gorm:"column:seo;type:jsonb" json:"seo,omitempty"`
	CreatedAt        time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Chapter) TableName() string { return "chapter" }
