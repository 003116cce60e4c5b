package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Course struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID        *uuid.UUID     `gorm:"type:uuid;index" json:"owner_id,omitempty"`
	Title          string         `gorm:"column:title;not null" json:"title"`
	Description    string         `gorm:"column:description" json:"description"`
	TargetAudience string         `gorm:"column:target_audience" json:"target_audience"`
	Prerequisites  datatypes.JSON `gorm:"column:prerequisites;type:jsonb" json:"prerequisites"`
	TotalDuration  string         `gorm:"column:total_duration" json:"total_duration"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Course) TableName() string { return "courses" }
