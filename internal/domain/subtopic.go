package domain

import (
	"time"

	"github.com/google/uuid"
)

type SubTopic struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ExamID      uuid.UUID `gorm:"type:uuid;not null;index" json:"exam_id"`
	SubjectID   uuid.UUID `gorm:"type:uuid;not null;index" json:"subject_id"`
	UnitID      uuid.UUID `gorm:"type:uuid;not null;index" json:"unit_id"`
	ChapterID   uuid.UUID `gorm:"type:uuid;not null;index" json:"chapter_id"`
	TopicID     uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_subtopic_topic_name" json:"topic_id"`
	Name        string    `gorm:"column:name;not null;uniqueIndex:idx_subtopic_topic_name" json:"name"`
	OrderNumber int       `gorm:"column:order_number;not null;default:1" json:"order_number"`
	Status      string    `gorm:"column:status;not null;default:'active';index" json:"status"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (SubTopic) TableName() string { return "subtopic" }
