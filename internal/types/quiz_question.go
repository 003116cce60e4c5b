package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuizQuestion struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	QuizID         uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_quiz_question_number" json:"quiz_id"`
	Quiz           *LessonQuiz    `gorm:"constraint:OnDelete:CASCADE;foreignKey:QuizID;references:ID" json:"quiz,omitempty"`
	QuestionNumber int            `gorm:"column:question_number;not null;uniqueIndex:idx_quiz_question_number" json:"question_number"`
	Question       string         `gorm:"column:question;type:text;not null" json:"question"`
	Explanation    string         `gorm:"column:explanation;type:text" json:"explanation"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (QuizQuestion) TableName() string { return "quiz_questions" }
