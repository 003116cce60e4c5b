package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CourseLesson struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	PartID       uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_part_lesson_number" json:"part_id"`
	Part         *CoursePart    `gorm:"constraint:OnDelete:CASCADE;foreignKey:PartID;references:ID" json:"part,omitempty"`
	LessonNumber int            `gorm:"column:lesson_number;not null;uniqueIndex:idx_part_lesson_number" json:"lesson_number"`
	Title        string         `gorm:"column:title;not null" json:"title"`
	Description  string         `gorm:"column:description" json:"description"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CourseLesson) TableName() string { return "course_lessons" }
