package services

import (
  "fmt"
  "strings"

  "github.com/courseforge/courseforge-backend/internal/config"
  "github.com/courseforge/courseforge-backend/internal/types"
)

// PromptBuilder produces the system/user prompt pairs and the strict output
// schemas for each generation stage.
type PromptBuilder interface {
  StructurePrompt(topic string, knowledge string) (system string, user string, schemaName string, schema map[string]any)
  LessonPlanPrompt(course *types.CourseStructure, part *types.CoursePartV1) (system string, user string, schemaName string, schema map[string]any)
  LessonContentPrompt(course *types.CourseStructure, part *types.CoursePartV1, lesson *types.CourseLessonV1) (system string, user string, schemaName string, schema map[string]any)
}

type promptBuilder struct {
  cfg *config.PipelineConfig
}

func NewPromptBuilder(cfg *config.PipelineConfig) PromptBuilder {
  return &promptBuilder{cfg: cfg}
}

func strSchema(desc string) map[string]any {
  return map[string]any{"type": "string", "description": desc}
}

func strArraySchema(desc string) map[string]any {
  return map[string]any{
    "type":        "array",
    "description": desc,
    "items":       map[string]any{"type": "string"},
  }
}

func objSchema(props map[string]any, required []string) map[string]any {
  return map[string]any{
    "type":                 "object",
    "properties":           props,
    "required":             required,
    "additionalProperties": false,
  }
}

func (b *promptBuilder) StructurePrompt(topic string, knowledge string) (string, string, string, map[string]any) {
  system := fmt.Sprintf(strings.TrimSpace(`
You are an expert curriculum designer. Design the high-level structure of a
course for the given subject. Produce between %d and %d parts. Each part has a
title, a short description, and 2-4 learning goals. Do not plan individual
lessons yet.
`), b.cfg.MinParts, b.cfg.MaxParts)

  var user strings.Builder
  fmt.Fprintf(&user, "Subject: %s\n", topic)
  if knowledge != "" {
    fmt.Fprintf(&user, "\nBackground research on the subject:\n%s\n", knowledge)
  }

  schema := objSchema(map[string]any{
    "title":           strSchema("Course title"),
    "description":     strSchema("One-paragraph course description"),
    "target_audience": strSchema("Who this course is for"),
    "prerequisites":   strArraySchema("Knowledge assumed before starting"),
    "total_duration":  strSchema("Rough total duration, e.g. '6 hours'"),
    "parts": map[string]any{
      "type":        "array",
      "description": "Ordered course parts",
      "items": objSchema(map[string]any{
        "part_number":    map[string]any{"type": "integer", "description": "1-based position"},
        "title":          strSchema("Part title"),
        "description":    strSchema("What this part covers"),
        "learning_goals": strArraySchema("Goals achieved by completing this part"),
      }, []string{"part_number", "title", "description", "learning_goals"}),
    },
  }, []string{"title", "description", "target_audience", "prerequisites", "total_duration", "parts"})

  return system, user.String(), "course_structure", schema
}

func (b *promptBuilder) LessonPlanPrompt(course *types.CourseStructure, part *types.CoursePartV1) (string, string, string, map[string]any) {
  system := fmt.Sprintf(strings.TrimSpace(`
You are an expert curriculum designer. Plan the lessons for one part of a
course. Produce between %d and %d lessons. Each lesson has a title and a short
description of what it teaches. Do not write the lesson content yet.
`), b.cfg.MinLessonsPerPart, b.cfg.MaxLessonsPerPart)

  var user strings.Builder
  fmt.Fprintf(&user, "Course: %s\n%s\n\n", course.Title, course.Description)
  fmt.Fprintf(&user, "Part %d: %s\n%s\n", part.PartNumber, part.Title, part.Description)
  if len(part.LearningGoals) > 0 {
    fmt.Fprintf(&user, "Learning goals: %s\n", strings.Join(part.LearningGoals, "; "))
  }

  schema := objSchema(map[string]any{
    "lessons": map[string]any{
      "type":        "array",
      "description": "Ordered lessons for this part",
      "items": objSchema(map[string]any{
        "lesson_number": map[string]any{"type": "integer", "description": "1-based position within the part"},
        "title":         strSchema("Lesson title"),
        "description":   strSchema("What this lesson teaches"),
      }, []string{"lesson_number", "title", "description"}),
    },
  }, []string{"lessons"})

  return system, user.String(), "lesson_plan", schema
}

func (b *promptBuilder) LessonContentPrompt(course *types.CourseStructure, part *types.CoursePartV1, lesson *types.CourseLessonV1) (string, string, string, map[string]any) {
  system := fmt.Sprintf(strings.TrimSpace(`
You are an expert teacher. Write the full content of a single lesson, in
markdown, with concrete examples and exercises. Finish with a quiz of exactly
%d multiple-choice questions with %d options each; exactly one option per
question is correct. Option letters are uppercase starting at "A".
`), b.cfg.QuizQuestions, b.cfg.QuizOptions)

  var user strings.Builder
  fmt.Fprintf(&user, "Course: %s\n", course.Title)
  fmt.Fprintf(&user, "Part %d: %s\n", part.PartNumber, part.Title)
  fmt.Fprintf(&user, "Lesson %d: %s\n%s\n", lesson.LessonNumber, lesson.Title, lesson.Description)

  optionSchema := objSchema(map[string]any{
    "option_letter": strSchema("Uppercase letter, A..D"),
    "option_text":   strSchema("Option text"),
    "is_correct":    map[string]any{"type": "boolean", "description": "True for exactly one option"},
  }, []string{"option_letter", "option_text", "is_correct"})

  questionSchema := objSchema(map[string]any{
    "question_number": map[string]any{"type": "integer", "description": "1-based position"},
    "question":        strSchema("Question text"),
    "explanation":     strSchema("Why the correct answer is correct"),
    "options":         map[string]any{"type": "array", "items": optionSchema},
  }, []string{"question_number", "question", "explanation", "options"})

  schema := objSchema(map[string]any{
    "title":               strSchema("Lesson title"),
    "learning_objectives": strArraySchema("What the learner can do after this lesson"),
    "content":             strSchema("Full lesson body in markdown"),
    "key_concepts":        strArraySchema("Key concepts introduced"),
    "examples":            strArraySchema("Worked examples"),
    "exercises":           strArraySchema("Practice exercises"),
    "estimated_duration":  strSchema("Rough duration, e.g. '30 minutes'"),
    "quiz": objSchema(map[string]any{
      "questions": map[string]any{"type": "array", "items": questionSchema},
    }, []string{"questions"}),
  }, []string{"title", "learning_objectives", "content", "key_concepts", "examples", "exercises", "estimated_duration", "quiz"})

  return system, user.String(), "lesson_content", schema
}
