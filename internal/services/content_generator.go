package services

import (
  "context"
  "encoding/json"
  "fmt"
  "strings"

  "github.com/courseforge/courseforge-backend/internal/config"
  "github.com/courseforge/courseforge-backend/internal/logger"
  "github.com/courseforge/courseforge-backend/internal/types"
)

// ContentGenerator produces the full content of a single lesson. The run's
// web-search flag picks the strategy once: when set, the search-augmented
// free-text request is the primary path and any failure in it recovers, first
// through the structured request and finally through a deterministic stock
// payload. Without the flag the structured request runs alone and its
// failures propagate.
type ContentGenerator interface {
  Generate(ctx context.Context, course *types.CourseStructure, part *types.CoursePartV1, lesson *types.CourseLessonV1, webSearch bool) (*types.LessonContentV1, error)
}

type contentGenerator struct {
  ai        OpenAIClient
  prompts   PromptBuilder
  validator SchemaValidator
  cfg       *config.PipelineConfig
  log       *logger.Logger
}

func NewContentGenerator(ai OpenAIClient, prompts PromptBuilder, validator SchemaValidator, cfg *config.PipelineConfig, log *logger.Logger) ContentGenerator {
  return &contentGenerator{
    ai:        ai,
    prompts:   prompts,
    validator: validator,
    cfg:       cfg,
    log:       log.With("service", "ContentGenerator"),
  }
}

func (g *contentGenerator) Generate(ctx context.Context, course *types.CourseStructure, part *types.CoursePartV1, lesson *types.CourseLessonV1, webSearch bool) (*types.LessonContentV1, error) {
  if !webSearch {
    return g.generateStructured(ctx, course, part, lesson)
  }

  content, err := g.generateWithSearch(ctx, course, part, lesson)
  if err == nil {
    return content, nil
  }
  g.log.Warn("search-augmented content generation failed",
    "part", part.PartNumber, "lesson", lesson.LessonNumber, "error", err.Error())
  if ctx.Err() != nil {
    return nil, ctx.Err()
  }

  content, err = g.generateStructured(ctx, course, part, lesson)
  if err == nil {
    return content, nil
  }
  g.log.Warn("structured content fallback failed",
    "part", part.PartNumber, "lesson", lesson.LessonNumber, "error", err.Error())
  if ctx.Err() != nil {
    return nil, ctx.Err()
  }

  g.log.Warn("falling back to stock content",
    "part", part.PartNumber, "lesson", lesson.LessonNumber)
  return defaultLessonContent(lesson, g.cfg), nil
}

func (g *contentGenerator) generateStructured(ctx context.Context, course *types.CourseStructure, part *types.CoursePartV1, lesson *types.CourseLessonV1) (*types.LessonContentV1, error) {
  system, user, schemaName, schema := g.prompts.LessonContentPrompt(course, part, lesson)

  obj, err := g.ai.GenerateJSON(ctx, system, user, schemaName, schema)
  if err != nil {
    return nil, err
  }

  content, err := decodeLessonContent(obj)
  if err != nil {
    return nil, err
  }
  if err := g.validator.ValidateLessonContent(content); err != nil {
    return nil, err
  }
  return content, nil
}

func (g *contentGenerator) generateWithSearch(ctx context.Context, course *types.CourseStructure, part *types.CoursePartV1, lesson *types.CourseLessonV1) (*types.LessonContentV1, error) {
  system, user, _, _ := g.prompts.LessonContentPrompt(course, part, lesson)
  system += "\n\nUse web search to ground examples in current material. Respond with the lesson as a single JSON object and nothing else."

  text, err := g.ai.GenerateWithWebSearch(ctx, system, user)
  if err != nil {
    return nil, err
  }

  content, err := parseLessonContent(text)
  if err != nil {
    return nil, err
  }
  if err := g.validator.ValidateLessonContent(content); err != nil {
    return nil, err
  }
  return content, nil
}

func decodeLessonContent(obj map[string]any) (*types.LessonContentV1, error) {
  raw, err := json.Marshal(obj)
  if err != nil {
    return nil, err
  }
  var content types.LessonContentV1
  if err := json.Unmarshal(raw, &content); err != nil {
    return nil, fmt.Errorf("lesson content does not match contract: %w", err)
  }
  return &content, nil
}

// parseLessonContent extracts a lesson content object from free model text.
// It decodes the first JSON object found in the text and rejects anything
// that is not syntactically valid JSON. No repair is attempted.
func parseLessonContent(text string) (*types.LessonContentV1, error) {
  start := strings.IndexByte(text, '{')
  if start < 0 {
    return nil, fmt.Errorf("no JSON object found in model output")
  }

  dec := json.NewDecoder(strings.NewReader(text[start:]))
  var content types.LessonContentV1
  if err := dec.Decode(&content); err != nil {
    return nil, fmt.Errorf("failed to parse lesson content JSON: %w", err)
  }
  return &content, nil
}

// defaultLessonContent builds the stock payload used when every strategy on
// the search-augmented path fails. It satisfies the full content contract,
// including a stock quiz, and is clearly marked for regeneration.
func defaultLessonContent(lesson *types.CourseLessonV1, cfg *config.PipelineConfig) *types.LessonContentV1 {
  quiz := &types.QuizV1{}
  for i := 1; i <= cfg.QuizQuestions; i++ {
    question := types.QuizQuestionV1{
      QuestionNumber: i,
      Question:       fmt.Sprintf("Placeholder question %d: which lesson is this quiz attached to?", i),
      Explanation:    "Stock question pending lesson regeneration.",
    }
    for j := 0; j < cfg.QuizOptions; j++ {
      letter := string(rune('A' + j))
      text := fmt.Sprintf("Placeholder option %s", letter)
      if j == 0 {
        text = lesson.Title
      }
      question.Options = append(question.Options, types.QuizOptionV1{
        OptionLetter: letter,
        OptionText:   text,
        IsCorrect:    j == 0,
      })
    }
    quiz.Questions = append(quiz.Questions, question)
  }

  return &types.LessonContentV1{
    Title:              lesson.Title,
    LearningObjectives: []string{fmt.Sprintf("Understand the topics covered in %q", lesson.Title)},
    Content: fmt.Sprintf("# %s\n\n%s\n\n*Content generation for this lesson did not complete. "+
      "The lesson can be regenerated individually.*", lesson.Title, lesson.Description),
    KeyConcepts:       []string{},
    Examples:          []string{},
    Exercises:         []string{},
    EstimatedDuration: "30 minutes",
    Quiz:              quiz,
  }
}
