package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CoursePart struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_course_part_number" json:"course_id"`
	Course        *Course        `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	PartNumber    int            `gorm:"column:part_number;not null;uniqueIndex:idx_course_part_number" json:"part_number"`
	Title         string         `gorm:"column:title;not null" json:"title"`
	Description   string         `gorm:"column:description" json:"description"`
	LearningGoals datatypes.JSON `gorm:"column:learning_goals;type:jsonb" json:"learning_goals"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CoursePart) TableName() string { return "course_parts" }
