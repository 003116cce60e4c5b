package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LessonQuiz struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	LessonID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"lesson_id"`
	Lesson    *CourseLesson  `gorm:"constraint:OnDelete:CASCADE;foreignKey:LessonID;references:ID" json:"lesson,omitempty"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (LessonQuiz) TableName() string { return "lesson_quizzes" }
