package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CourseGenerationRun struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID          *uuid.UUID     `gorm:"type:uuid;index" json:"owner_id,omitempty"`
	Topic            string         `gorm:"column:topic;not null" json:"topic"`
	WebSearchEnabled bool           `gorm:"column:web_search_enabled;not null" json:"web_search_enabled"`
	CourseID         *uuid.UUID     `gorm:"type:uuid;index" json:"course_id,omitempty"`
	Status           string         `gorm:"column:status;not null;index" json:"status"` // queued|running|succeeded|failed
	Stage            string         `gorm:"column:stage;not null" json:"stage"`
	Progress         int            `gorm:"column:progress;not null;default:0" json:"progress"`
	Attempts         int            `gorm:"column:attempts;not null;default:0" json:"attempts"`
	Error            string         `gorm:"column:error" json:"error"`
	LastErrorAt      *time.Time     `gorm:"column:last_error_at" json:"last_error_at,omitempty"`
	LockedAt         *time.Time     `gorm:"column:locked_at;index" json:"locked_at,omitempty"`
	HeartbeatAt      *time.Time     `gorm:"column:heartbeat_at" json:"heartbeat_at,omitempty"`
	Metadata         datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt        time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CourseGenerationRun) TableName() string { return "course_generation_runs" }
