package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LessonContent is 1:1 with a lesson. Cardinality is enforced at the
// application level; Load takes the first row when duplicates exist.
type LessonContent struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	LessonID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"lesson_id"`
	Lesson             *CourseLesson  `gorm:"constraint:OnDelete:CASCADE;foreignKey:LessonID;references:ID" json:"lesson,omitempty"`
	Title              string         `gorm:"column:title;not null" json:"title"`
	LearningObjectives datatypes.JSON `gorm:"column:learning_objectives;type:jsonb" json:"learning_objectives"`
	Content            string         `gorm:"column:content;type:text" json:"content"`
	KeyConcepts        datatypes.JSON `gorm:"column:key_concepts;type:jsonb" json:"key_concepts"`
	Examples           datatypes.JSON `gorm:"column:examples;type:jsonb" json:"examples"`
	Exercises          datatypes.JSON `gorm:"column:exercises;type:jsonb" json:"exercises"`
	EstimatedDuration  string         `gorm:"column:estimated_duration" json:"estimated_duration"`
	CreatedAt          time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (LessonContent) TableName() string { return "lesson_content" }
