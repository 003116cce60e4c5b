package services

import (
  "fmt"

  "github.com/go-playground/validator/v10"

  "github.com/courseforge/courseforge-backend/internal/apperr"
  "github.com/courseforge/courseforge-backend/internal/config"
  "github.com/courseforge/courseforge-backend/internal/types"
)

// SchemaValidator checks generated structures against the invariants the
// rest of the system depends on: field-level constraints, gapless 1-based
// numbering at every level, and exactly one correct option per question.
type SchemaValidator interface {
  ValidateStructure(course *types.CourseStructure) error
  ValidateLessonPlan(part *types.CoursePartV1) error
  ValidateLessonContent(content *types.LessonContentV1) error
  ValidateCompleteCourse(course *types.CourseStructure) error
}

type schemaValidator struct {
  cfg      *config.PipelineConfig
  validate *validator.Validate
}

func NewSchemaValidator(cfg *config.PipelineConfig) SchemaValidator {
  return &schemaValidator{
    cfg:      cfg,
    validate: validator.New(validator.WithRequiredStructEnabled()),
  }
}

func fieldIssues(err error) []string {
  var issues []string
  if vErrs, ok := err.(validator.ValidationErrors); ok {
    for _, fe := range vErrs {
      issues = append(issues, fmt.Sprintf("field %s fails %q", fe.Namespace(), fe.Tag()))
    }
    return issues
  }
  return []string{err.Error()}
}

func (v *schemaValidator) ValidateStructure(course *types.CourseStructure) error {
  const stage = "structure_extraction"
  if course == nil {
    return apperr.NewValidation(stage, "course structure is nil")
  }

  var issues []string
  if err := v.validate.Struct(course); err != nil {
    issues = append(issues, fieldIssues(err)...)
  }

  // an empty skeleton is a valid terminal result, not a bound violation
  if len(course.Parts) > v.cfg.MaxParts ||
    (len(course.Parts) > 0 && len(course.Parts) < v.cfg.MinParts) {
    issues = append(issues, fmt.Sprintf("part count %d outside [%d, %d]", len(course.Parts), v.cfg.MinParts, v.cfg.MaxParts))
  }
  for i := range course.Parts {
    if course.Parts[i].PartNumber != i+1 {
      issues = append(issues, fmt.Sprintf("part at index %d has part_number %d, want %d", i, course.Parts[i].PartNumber, i+1))
    }
  }

  if len(issues) > 0 {
    return apperr.NewValidation(stage, issues...)
  }
  return nil
}

func (v *schemaValidator) ValidateLessonPlan(part *types.CoursePartV1) error {
  const stage = "lesson_planning"
  if part == nil {
    return apperr.NewValidation(stage, "course part is nil")
  }

  var issues []string
  // a part planned with zero lessons short-circuits the run, same as an
  // empty skeleton
  if len(part.Lessons) > v.cfg.MaxLessonsPerPart ||
    (len(part.Lessons) > 0 && len(part.Lessons) < v.cfg.MinLessonsPerPart) {
    issues = append(issues, fmt.Sprintf("part %d lesson count %d outside [%d, %d]",
      part.PartNumber, len(part.Lessons), v.cfg.MinLessonsPerPart, v.cfg.MaxLessonsPerPart))
  }
  for i := range part.Lessons {
    lesson := &part.Lessons[i]
    if lesson.LessonNumber != i+1 {
      issues = append(issues, fmt.Sprintf("part %d lesson at index %d has lesson_number %d, want %d",
        part.PartNumber, i, lesson.LessonNumber, i+1))
    }
    if lesson.Title == "" {
      issues = append(issues, fmt.Sprintf("part %d lesson %d has empty title", part.PartNumber, i+1))
    }
  }

  if len(issues) > 0 {
    return apperr.NewValidation(stage, issues...)
  }
  return nil
}

func (v *schemaValidator) ValidateLessonContent(content *types.LessonContentV1) error {
  const stage = "content_generation"
  if content == nil {
    return apperr.NewValidation(stage, "lesson content is nil")
  }

  var issues []string
  if err := v.validate.Struct(content); err != nil {
    issues = append(issues, fieldIssues(err)...)
  }

  if content.Quiz != nil {
    issues = append(issues, v.quizIssues(content.Quiz)...)
  }

  if len(issues) > 0 {
    return apperr.NewValidation(stage, issues...)
  }
  return nil
}

func (v *schemaValidator) quizIssues(quiz *types.QuizV1) []string {
  var issues []string
  for i := range quiz.Questions {
    q := &quiz.Questions[i]
    if q.QuestionNumber != i+1 {
      issues = append(issues, fmt.Sprintf("question at index %d has question_number %d, want %d", i, q.QuestionNumber, i+1))
    }
    correct := 0
    for j := range q.Options {
      if q.Options[j].IsCorrect {
        correct++
      }
      wantLetter := string(rune('A' + j))
      if q.Options[j].OptionLetter != wantLetter {
        issues = append(issues, fmt.Sprintf("question %d option at index %d has letter %q, want %q",
          q.QuestionNumber, j, q.Options[j].OptionLetter, wantLetter))
      }
    }
    if correct != 1 {
      issues = append(issues, fmt.Sprintf("question %d has %d correct options, want exactly 1", q.QuestionNumber, correct))
    }
  }
  return issues
}

// ValidateCompleteCourse runs the full-tree check used at finalization: every
// level present, numbered, and every lesson carrying content.
func (v *schemaValidator) ValidateCompleteCourse(course *types.CourseStructure) error {
  const stage = "finalization"

  if err := v.ValidateStructure(course); err != nil {
    if vErr, ok := err.(*apperr.ValidationError); ok {
      return apperr.NewValidation(stage, vErr.Issues...)
    }
    return err
  }

  var issues []string
  for i := range course.Parts {
    part := &course.Parts[i]
    if err := v.ValidateLessonPlan(part); err != nil {
      if vErr, ok := err.(*apperr.ValidationError); ok {
        issues = append(issues, vErr.Issues...)
        continue
      }
      return err
    }
    for j := range part.Lessons {
      lesson := &part.Lessons[j]
      if lesson.Content == nil {
        issues = append(issues, fmt.Sprintf("part %d lesson %d has no content", part.PartNumber, lesson.LessonNumber))
        continue
      }
      if err := v.ValidateLessonContent(lesson.Content); err != nil {
        if vErr, ok := err.(*apperr.ValidationError); ok {
          issues = append(issues, vErr.Issues...)
          continue
        }
        return err
      }
    }
  }

  if len(issues) > 0 {
    return apperr.NewValidation(stage, issues...)
  }
  return nil
}
