package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuizOption struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionID   uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_question_option_letter" json:"question_id"`
	Question     *QuizQuestion  `gorm:"constraint:OnDelete:CASCADE;foreignKey:QuestionID;references:ID" json:"question,omitempty"`
	OptionLetter string         `gorm:"column:option_letter;not null;uniqueIndex:idx_question_option_letter" json:"option_letter"`
	OptionText   string         `gorm:"column:option_text;type:text;not null" json:"option_text"`
	IsCorrect    bool           `gorm:"column:is_correct;not null" json:"is_correct"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (QuizOption) TableName() string { return "quiz_options" }
