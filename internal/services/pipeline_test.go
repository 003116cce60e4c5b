package services

import (
  "context"
  "errors"
  "fmt"
  "strings"
  "sync"
  "testing"

  "github.com/courseforge/courseforge-backend/internal/apperr"
  "github.com/courseforge/courseforge-backend/internal/config"
  "github.com/courseforge/courseforge-backend/internal/repos/testutil"
  "github.com/courseforge/courseforge-backend/internal/types"
)

// fakeAI answers every prompt from canned shapes keyed by schema name. It can
// be told to fail a given schema to exercise short-circuiting, and to answer
// web-search calls with a fixed text instead of erroring.
type fakeAI struct {
  mu              sync.Mutex
  calls           []string
  failOn          string
  parts           int
  lessons         int
  questions       int
  options         int
  brokenNumbering bool
  webSearchText   string
}

func newFakeAI() *fakeAI {
  return &fakeAI{parts: 3, lessons: 2, questions: 3, options: 4}
}

func (f *fakeAI) record(name string) {
  f.mu.Lock()
  defer f.mu.Unlock()
  f.calls = append(f.calls, name)
}

func (f *fakeAI) callsTo(name string) int {
  f.mu.Lock()
  defer f.mu.Unlock()
  n := 0
  for _, c := range f.calls {
    if c == name {
      n++
    }
  }
  return n
}

func (f *fakeAI) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
  f.record(schemaName)
  if f.failOn == schemaName {
    return nil, errors.New("injected failure")
  }

  switch schemaName {
  case "course_structure":
    parts := make([]any, 0, f.parts)
    for i := 1; i <= f.parts; i++ {
      n := i
      if f.brokenNumbering {
        n = i + 1
      }
      parts = append(parts, map[string]any{
        "part_number":    n,
        "title":          fmt.Sprintf("Part %d", i),
        "description":    "covers things",
        "learning_goals": []any{"goal one", "goal two"},
      })
    }
    return map[string]any{
      "title":           "Python Basics",
      "description":     "An introduction to Python.",
      "target_audience": "Beginners",
      "prerequisites":   []any{"none"},
      "total_duration":  "6 hours",
      "parts":           parts,
    }, nil

  case "lesson_plan":
    lessons := make([]any, 0, f.lessons)
    for i := 1; i <= f.lessons; i++ {
      lessons = append(lessons, map[string]any{
        "lesson_number": i,
        "title":         fmt.Sprintf("Lesson %d", i),
        "description":   "teaches things",
      })
    }
    return map[string]any{"lessons": lessons}, nil

  case "lesson_content":
    questions := make([]any, 0, f.questions)
    for i := 1; i <= f.questions; i++ {
      options := make([]any, 0, f.options)
      for j := 0; j < f.options; j++ {
        options = append(options, map[string]any{
          "option_letter": string(rune('A' + j)),
          "option_text":   fmt.Sprintf("option %d", j),
          "is_correct":    j == 0,
        })
      }
      questions = append(questions, map[string]any{
        "question_number": i,
        "question":        fmt.Sprintf("Question %d?", i),
        "explanation":     "because",
        "options":         options,
      })
    }
    return map[string]any{
      "title":               "A lesson",
      "learning_objectives": []any{"learn it"},
      "content":             "# Lesson\n\nbody",
      "key_concepts":        []any{"concept"},
      "examples":            []any{"example"},
      "exercises":           []any{"exercise"},
      "estimated_duration":  "30 minutes",
      "quiz":                map[string]any{"questions": questions},
    }, nil
  }

  return nil, fmt.Errorf("unexpected schema %q", schemaName)
}

func (f *fakeAI) GenerateWithWebSearch(ctx context.Context, system, user string) (string, error) {
  f.record("web_search")
  if f.webSearchText != "" {
    return f.webSearchText, nil
  }
  return "", errors.New("web search not available in tests")
}

func newTestPipeline(t *testing.T, ai *fakeAI, cfg *config.PipelineConfig) GenerationPipeline {
  t.Helper()
  log := testutil.Logger(t)
  prompts := NewPromptBuilder(cfg)
  validator := NewSchemaValidator(cfg)
  contentGen := NewContentGenerator(ai, prompts, validator, cfg, log)
  knowledge := NewNoopKnowledgeService()
  return NewGenerationPipeline(ai, knowledge, prompts, validator, contentGen, cfg, log)
}

func TestGenerateProducesCompleteCourse(t *testing.T) {
  cfg := config.Default()
  ai := newFakeAI()
  pipeline := newTestPipeline(t, ai, &cfg)
  capture := NewCaptureEmitter()

  result, err := pipeline.Generate(context.Background(), "Python Basics", false, capture)
  if err != nil {
    t.Fatalf("Generate: %v", err)
  }
  if result.Status != PipelineStatusSucceeded {
    t.Fatalf("status = %q, want %q", result.Status, PipelineStatusSucceeded)
  }
  course := result.Course
  if course == nil {
    t.Fatal("result.Course is nil")
  }

  if len(course.Parts) < cfg.MinParts || len(course.Parts) > cfg.MaxParts {
    t.Fatalf("part count %d outside [%d, %d]", len(course.Parts), cfg.MinParts, cfg.MaxParts)
  }
  for i, part := range course.Parts {
    if part.PartNumber != i+1 {
      t.Fatalf("part %d has number %d", i, part.PartNumber)
    }
    if len(part.Lessons) < cfg.MinLessonsPerPart || len(part.Lessons) > cfg.MaxLessonsPerPart {
      t.Fatalf("part %d lesson count %d outside bounds", part.PartNumber, len(part.Lessons))
    }
    for j, lesson := range part.Lessons {
      if lesson.LessonNumber != j+1 {
        t.Fatalf("part %d lesson %d has number %d", part.PartNumber, j, lesson.LessonNumber)
      }
      if lesson.Content == nil {
        t.Fatalf("part %d lesson %d has no content", part.PartNumber, lesson.LessonNumber)
      }
      quiz := lesson.Content.Quiz
      if quiz == nil {
        t.Fatalf("part %d lesson %d has no quiz", part.PartNumber, lesson.LessonNumber)
      }
      if len(quiz.Questions) != cfg.QuizQuestions {
        t.Fatalf("quiz has %d questions, want %d", len(quiz.Questions), cfg.QuizQuestions)
      }
      for _, q := range quiz.Questions {
        if len(q.Options) != cfg.QuizOptions {
          t.Fatalf("question %d has %d options, want %d", q.QuestionNumber, len(q.Options), cfg.QuizOptions)
        }
        correct := 0
        for _, o := range q.Options {
          if o.IsCorrect {
            correct++
          }
        }
        if correct != 1 {
          t.Fatalf("question %d has %d correct options", q.QuestionNumber, correct)
        }
      }
    }
  }
}

func TestGenerateEmitsStageAndLessonProgress(t *testing.T) {
  cfg := config.Default()
  ai := newFakeAI()
  pipeline := newTestPipeline(t, ai, &cfg)
  capture := NewCaptureEmitter()

  result, err := pipeline.Generate(context.Background(), "Python Basics", false, capture)
  if err != nil {
    t.Fatalf("Generate: %v", err)
  }

  var stages []string
  lessonEvents := 0
  for _, ev := range capture.EventsOfType(ProgressEventProgress) {
    if stage, ok := ev.Data["stage"].(string); ok {
      stages = append(stages, stage)
    }
    if _, ok := ev.Data["lesson_number"]; ok {
      lessonEvents++
      if _, ok := ev.Data["part_number"]; !ok {
        t.Fatal("lesson progress event missing part_number")
      }
    }
  }

  wantStages := []string{"structure_extraction", "lesson_planning", "content_generation", "finalization"}
  gotOrder := strings.Join(stages, ",")
  if gotOrder != strings.Join(wantStages, ",") {
    t.Fatalf("stage order = %v, want %v", stages, wantStages)
  }

  if lessonEvents != result.Course.LessonCount() {
    t.Fatalf("lesson progress events = %d, want %d", lessonEvents, result.Course.LessonCount())
  }

  success := capture.EventsOfType(ProgressEventSuccess)
  if len(success) != 1 {
    t.Fatalf("success events = %d, want 1", len(success))
  }
  events := capture.Events()
  if events[len(events)-1].Type != ProgressEventSuccess {
    t.Fatalf("last event type = %q, want success", events[len(events)-1].Type)
  }
}

func TestGenerateShortCircuitsOnStageFailure(t *testing.T) {
  cfg := config.Default()
  ai := newFakeAI()
  ai.failOn = "lesson_plan"
  pipeline := newTestPipeline(t, ai, &cfg)
  capture := NewCaptureEmitter()

  result, err := pipeline.Generate(context.Background(), "Python Basics", false, capture)
  if err == nil {
    t.Fatal("expected error")
  }
  if result.Status != PipelineStatusFailed {
    t.Fatalf("status = %q, want %q", result.Status, PipelineStatusFailed)
  }
  if result.Stage != StageFailed {
    t.Fatalf("stage = %v, want StageFailed", result.Stage)
  }

  if got := ai.callsTo("lesson_content"); got != 0 {
    t.Fatalf("content generation ran %d times after planning failed", got)
  }

  errs := capture.EventsOfType(ProgressEventError)
  if len(errs) != 1 {
    t.Fatalf("error events = %d, want 1", len(errs))
  }
  if stage := errs[0].Data["stage"]; stage != "lesson_planning" {
    t.Fatalf("error event stage = %v, want lesson_planning", stage)
  }
}

func TestGenerateRejectsGappedPartNumbering(t *testing.T) {
  cfg := config.Default()
  ai := newFakeAI()
  ai.brokenNumbering = true
  pipeline := newTestPipeline(t, ai, &cfg)

  _, err := pipeline.Generate(context.Background(), "Python Basics", false, NewCaptureEmitter())
  if err == nil {
    t.Fatal("expected validation error")
  }
  if !apperr.IsValidation(err) {
    t.Fatalf("error = %v, want validation error", err)
  }
}

func TestGenerateStopsAtStageExecutionBound(t *testing.T) {
  cfg := config.Default()
  cfg.MaxStageExecutions = 2
  ai := newFakeAI()
  pipeline := newTestPipeline(t, ai, &cfg)

  result, err := pipeline.Generate(context.Background(), "Python Basics", false, NewCaptureEmitter())
  if err == nil {
    t.Fatal("expected error from execution bound")
  }
  if result.Status != PipelineStatusFailed {
    t.Fatalf("status = %q, want failed", result.Status)
  }
  if got := ai.callsTo("lesson_content"); got != 0 {
    t.Fatalf("content generation ran %d times past the bound", got)
  }
}

func TestGenerateShortCircuitsOnZeroParts(t *testing.T) {
  cfg := config.Default()
  ai := newFakeAI()
  ai.parts = 0
  pipeline := newTestPipeline(t, ai, &cfg)
  capture := NewCaptureEmitter()

  result, err := pipeline.Generate(context.Background(), "Python Basics", false, capture)
  if err != nil {
    t.Fatalf("Generate: %v", err)
  }
  if result.Status != PipelineStatusSucceeded {
    t.Fatalf("status = %q, want %q", result.Status, PipelineStatusSucceeded)
  }
  if result.Course == nil || len(result.Course.Parts) != 0 {
    t.Fatalf("course = %+v, want zero parts", result.Course)
  }
  if got := ai.callsTo("lesson_plan"); got != 0 {
    t.Fatalf("lesson planning ran %d times on an empty skeleton", got)
  }
  if got := ai.callsTo("lesson_content"); got != 0 {
    t.Fatalf("content generation ran %d times on an empty skeleton", got)
  }
  if got := len(capture.EventsOfType(ProgressEventSuccess)); got != 1 {
    t.Fatalf("success events = %d, want 1", got)
  }
}

func TestGenerateShortCircuitsOnZeroLessons(t *testing.T) {
  cfg := config.Default()
  ai := newFakeAI()
  ai.lessons = 0
  pipeline := newTestPipeline(t, ai, &cfg)

  result, err := pipeline.Generate(context.Background(), "Python Basics", false, NewCaptureEmitter())
  if err != nil {
    t.Fatalf("Generate: %v", err)
  }
  if result.Status != PipelineStatusSucceeded {
    t.Fatalf("status = %q, want %q", result.Status, PipelineStatusSucceeded)
  }
  if result.Course.LessonCount() != 0 {
    t.Fatalf("lessons = %d, want 0", result.Course.LessonCount())
  }
  if got := ai.callsTo("lesson_content"); got != 0 {
    t.Fatalf("content generation ran %d times with no lessons planned", got)
  }
}

func TestNextStageIsTerminalAtDoneAndFailed(t *testing.T) {
  course := &types.CourseStructure{
    Title: "T",
    Parts: []types.CoursePartV1{
      {PartNumber: 1, Title: "P", Lessons: []types.CourseLessonV1{{LessonNumber: 1, Title: "L"}}},
    },
  }

  if nextStage(StageDone, course) != StageDone {
    t.Fatal("StageDone must map to itself")
  }
  if nextStage(StageFailed, course) != StageFailed {
    t.Fatal("StageFailed must map to itself")
  }
  seen := map[PipelineStage]bool{}
  for s := StageStructureExtraction; s != StageDone; s = nextStage(s, course) {
    if seen[s] {
      t.Fatalf("stage cycle at %v", s)
    }
    seen[s] = true
  }

  empty := &types.CourseStructure{Title: "T", Description: "d"}
  if nextStage(StageStructureExtraction, empty) != StageDone {
    t.Fatal("empty skeleton must go straight to StageDone")
  }
  empty.Parts = []types.CoursePartV1{{PartNumber: 1, Title: "P"}}
  if nextStage(StageLessonPlanning, empty) != StageDone {
    t.Fatal("a plan with zero lessons must go straight to StageDone")
  }
}
