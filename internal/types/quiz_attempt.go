package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuizAttempt struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	QuizID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"quiz_id"`
	Quiz      *LessonQuiz    `gorm:"constraint:OnDelete:CASCADE;foreignKey:QuizID;references:ID" json:"quiz,omitempty"`
	UserID    *uuid.UUID     `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Answers   datatypes.JSON `gorm:"column:answers;type:jsonb" json:"answers"`
	Score     int            `gorm:"column:score;not null" json:"score"`
	Total     int            `gorm:"column:total;not null" json:"total"`
	Passed    bool           `gorm:"column:passed;not null" json:"passed"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (QuizAttempt) TableName() string { return "quiz_attempts" }
