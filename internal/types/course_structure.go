package types

import "github.com/google/uuid"

// Pure JSON contracts for the generation pipeline. Not DB models.
//
// A CourseStructure is transient scaffolding: it exists for the duration of one
// pipeline run, becomes durable exactly once via CoursePersistence.Save, and is
// never mutated in place afterwards. ID fields are nil on generated trees and
// populated only on trees reconstructed by Load.

type CourseStructure struct {
	ID             *uuid.UUID     `json:"id,omitempty"`
	Title          string         `json:"title" validate:"required"`
	Description    string         `json:"description" validate:"required"`
	TargetAudience string         `json:"target_audience"`
	Prerequisites  []string       `json:"prerequisites"`
	TotalDuration  string         `json:"total_duration"`
	Parts          []CoursePartV1 `json:"parts" validate:"dive"`
}

type CoursePartV1 struct {
	ID            *uuid.UUID       `json:"id,omitempty"`
	PartNumber    int              `json:"part_number" validate:"min=1"`
	Title         string           `json:"title" validate:"required"`
	Description   string           `json:"description"`
	LearningGoals []string         `json:"learning_goals"`
	Lessons       []CourseLessonV1 `json:"lessons" validate:"dive"`
}

type CourseLessonV1 struct {
	ID           *uuid.UUID       `json:"id,omitempty"`
	LessonNumber int              `json:"lesson_number" validate:"min=1"`
	Title        string           `json:"title" validate:"required"`
	Description  string           `json:"description"`
	Content      *LessonContentV1 `json:"content,omitempty"`
}

type LessonContentV1 struct {
	ID                 *uuid.UUID `json:"id,omitempty"`
	Title              string    `json:"title" validate:"required"`
	LearningObjectives []string  `json:"learning_objectives" validate:"min=1"`
	Content            string    `json:"content" validate:"required"`
	KeyConcepts        []string  `json:"key_concepts"`
	Examples           []string  `json:"examples"`
	Exercises          []string  `json:"exercises"`
	EstimatedDuration  string    `json:"estimated_duration"`
	Quiz               *QuizV1   `json:"quiz,omitempty"`
}

type QuizV1 struct {
	ID        *uuid.UUID       `json:"id,omitempty"`
	Questions []QuizQuestionV1 `json:"questions" validate:"dive"`
}

type QuizQuestionV1 struct {
	ID             *uuid.UUID    `json:"id,omitempty"`
	QuestionNumber int           `json:"question_number" validate:"min=1"`
	Question       string        `json:"question" validate:"required"`
	Explanation    string        `json:"explanation,omitempty"`
	Options        []QuizOptionV1 `json:"options" validate:"min=2,dive"`
}

type QuizOptionV1 struct {
	ID           *uuid.UUID `json:"id,omitempty"`
	OptionLetter string    `json:"option_letter" validate:"required"`
	OptionText   string    `json:"option_text" validate:"required"`
	IsCorrect    bool      `json:"is_correct"`
}

// LessonCount returns the number of lessons across all parts.
func (c *CourseStructure) LessonCount() int {
	n := 0
	for i := range c.Parts {
		n += len(c.Parts[i].Lessons)
	}
	return n
}
