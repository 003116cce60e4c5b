package services

import (
  "context"
  "encoding/json"
  "fmt"
  "sync/atomic"

  "go.opentelemetry.io/otel"
  "go.opentelemetry.io/otel/attribute"
  "go.opentelemetry.io/otel/trace"
  "golang.org/x/sync/errgroup"

  "github.com/courseforge/courseforge-backend/internal/apperr"
  "github.com/courseforge/courseforge-backend/internal/config"
  "github.com/courseforge/courseforge-backend/internal/logger"
  "github.com/courseforge/courseforge-backend/internal/types"
)

// PipelineStage is the generation state machine. Transitions are linear;
// StageFailed absorbs any stage on error and has no successor.
type PipelineStage int

const (
  StageStructureExtraction PipelineStage = iota
  StageLessonPlanning
  StageContentGeneration
  StageFinalization
  StageDone
  StageFailed
)

func (s PipelineStage) String() string {
  switch s {
  case StageStructureExtraction:
    return "structure_extraction"
  case StageLessonPlanning:
    return "lesson_planning"
  case StageContentGeneration:
    return "content_generation"
  case StageFinalization:
    return "finalization"
  case StageDone:
    return "done"
  case StageFailed:
    return "failed"
  default:
    return fmt.Sprintf("unknown_stage_%d", int(s))
  }
}

// nextStage is the only place stage order is defined. The generated data
// drives two short-circuits: a skeleton with no parts and a plan with no
// lessons both finish the run immediately with the empty course. Terminal
// stages map to themselves so a caller can never advance past them.
func nextStage(s PipelineStage, course *types.CourseStructure) PipelineStage {
  switch s {
  case StageStructureExtraction:
    if course == nil || len(course.Parts) == 0 {
      return StageDone
    }
    return StageLessonPlanning
  case StageLessonPlanning:
    if course == nil || course.LessonCount() == 0 {
      return StageDone
    }
    return StageContentGeneration
  case StageContentGeneration:
    return StageFinalization
  case StageFinalization:
    return StageDone
  case StageDone:
    return StageDone
  case StageFailed:
    return StageFailed
  default:
    return StageFailed
  }
}

func stageProgress(s PipelineStage) int {
  switch s {
  case StageStructureExtraction:
    return 10
  case StageLessonPlanning:
    return 35
  case StageContentGeneration:
    return 60
  case StageFinalization:
    return 90
  case StageDone:
    return 100
  default:
    return 0
  }
}

const (
  PipelineStatusSucceeded = "succeeded"
  PipelineStatusFailed    = "failed"
)

// PipelineResult is the terminal outcome of one generation run. Course is
// non-nil only when Status is succeeded.
type PipelineResult struct {
  Status string
  Stage  PipelineStage
  Course *types.CourseStructure
}

// GenerationPipeline turns a free-text subject into a complete course tree.
type GenerationPipeline interface {
  Generate(ctx context.Context, topic string, webSearch bool, emitter ProgressEmitter) (*PipelineResult, error)
}

type generationPipeline struct {
  ai         OpenAIClient
  knowledge  KnowledgeService
  prompts    PromptBuilder
  validator  SchemaValidator
  contentGen ContentGenerator
  cfg        *config.PipelineConfig
  log        *logger.Logger
}

func NewGenerationPipeline(
  ai OpenAIClient,
  knowledge KnowledgeService,
  prompts PromptBuilder,
  validator SchemaValidator,
  contentGen ContentGenerator,
  cfg *config.PipelineConfig,
  log *logger.Logger,
) GenerationPipeline {
  return &generationPipeline{
    ai:         ai,
    knowledge:  knowledge,
    prompts:    prompts,
    validator:  validator,
    contentGen: contentGen,
    cfg:        cfg,
    log:        log.With("service", "GenerationPipeline"),
  }
}

type pipelineState struct {
  topic     string
  webSearch bool
  knowledge string
  course    *types.CourseStructure
}

func (p *generationPipeline) Generate(ctx context.Context, topic string, webSearch bool, emitter ProgressEmitter) (*PipelineResult, error) {
  if emitter == nil {
    emitter = NewLogEmitter(p.log)
  }
  tracer := otel.Tracer("courseforge/pipeline")

  state := &pipelineState{topic: topic, webSearch: webSearch}
  stage := StageStructureExtraction

  emitter.Emit(NewProgressEvent(ProgressEventLog,
    fmt.Sprintf("Starting course generation for %q", topic),
    map[string]any{"topic": topic, "web_search": webSearch}))

  for executions := 0; ; executions++ {
    if stage == StageDone {
      break
    }
    if executions >= p.cfg.MaxStageExecutions {
      err := fmt.Errorf("pipeline exceeded %d stage executions at stage %s", p.cfg.MaxStageExecutions, stage)
      return p.fail(emitter, stage, err)
    }

    stageCtx, span := tracer.Start(ctx, "pipeline."+stage.String(),
      trace.WithAttributes(attribute.String("topic", topic)))
    err := p.executeStage(stageCtx, stage, state, emitter)
    span.End()

    if err != nil {
      return p.fail(emitter, stage, err)
    }

    next := nextStage(stage, state.course)
    emitter.Emit(NewProgressEvent(ProgressEventProgress,
      fmt.Sprintf("Stage %s complete", stage),
      map[string]any{"stage": stage.String(), "percent": stageProgress(next)}))
    stage = next
  }

  emitter.Emit(NewProgressEvent(ProgressEventSuccess,
    fmt.Sprintf("Course %q generated: %d parts, %d lessons",
      state.course.Title, len(state.course.Parts), state.course.LessonCount()),
    map[string]any{
      "title":   state.course.Title,
      "parts":   len(state.course.Parts),
      "lessons": state.course.LessonCount(),
    }))

  return &PipelineResult{
    Status: PipelineStatusSucceeded,
    Stage:  StageDone,
    Course: state.course,
  }, nil
}

func (p *generationPipeline) fail(emitter ProgressEmitter, stage PipelineStage, err error) (*PipelineResult, error) {
  p.log.Error("pipeline failed", "stage", stage.String(), "error", err.Error())
  emitter.Emit(NewProgressEvent(ProgressEventError,
    fmt.Sprintf("Generation failed during %s: %v", stage, err),
    map[string]any{"stage": stage.String()}))
  return &PipelineResult{Status: PipelineStatusFailed, Stage: StageFailed}, err
}

func (p *generationPipeline) executeStage(ctx context.Context, stage PipelineStage, state *pipelineState, emitter ProgressEmitter) error {
  switch stage {
  case StageStructureExtraction:
    return p.extractStructure(ctx, state, emitter)
  case StageLessonPlanning:
    return p.planLessons(ctx, state, emitter)
  case StageContentGeneration:
    return p.generateContent(ctx, state, emitter)
  case StageFinalization:
    return p.finalize(ctx, state, emitter)
  case StageDone, StageFailed:
    return fmt.Errorf("terminal stage %s cannot be executed", stage)
  default:
    return fmt.Errorf("unknown stage %d", int(stage))
  }
}

func (p *generationPipeline) extractStructure(ctx context.Context, state *pipelineState, emitter ProgressEmitter) error {
  if state.webSearch {
    emitter.Emit(NewProgressEvent(ProgressEventLog, "Researching subject", nil))
    knowledge, err := p.knowledge.Gather(ctx, state.topic)
    if err != nil {
      // research is best-effort
      p.log.Warn("knowledge gathering failed", "topic", state.topic, "error", err.Error())
      emitter.Emit(NewProgressEvent(ProgressEventLog,
        "Subject research failed, continuing without it", nil))
    } else {
      state.knowledge = knowledge
    }
  }

  emitter.Emit(NewProgressEvent(ProgressEventLog, "Extracting course structure", nil))

  system, user, schemaName, schema := p.prompts.StructurePrompt(state.topic, state.knowledge)
  obj, err := p.ai.GenerateJSON(ctx, system, user, schemaName, schema)
  if err != nil {
    return &apperr.ExternalCallError{Call: "openai.structure", Err: err}
  }

  course, err := decodeCourseStructure(obj)
  if err != nil {
    return apperr.NewValidation(StageStructureExtraction.String(), err.Error())
  }
  if err := p.validator.ValidateStructure(course); err != nil {
    return err
  }

  state.course = course
  return nil
}

func decodeCourseStructure(obj map[string]any) (*types.CourseStructure, error) {
  raw, err := json.Marshal(obj)
  if err != nil {
    return nil, err
  }
  var course types.CourseStructure
  if err := json.Unmarshal(raw, &course); err != nil {
    return nil, fmt.Errorf("course structure does not match contract: %w", err)
  }
  return &course, nil
}

type lessonPlan struct {
  Lessons []types.CourseLessonV1 `json:"lessons"`
}

func (p *generationPipeline) planLessons(ctx context.Context, state *pipelineState, emitter ProgressEmitter) error {
  emitter.Emit(NewProgressEvent(ProgressEventLog,
    fmt.Sprintf("Planning lessons for %d parts", len(state.course.Parts)), nil))

  g, gctx := errgroup.WithContext(ctx)
  g.SetLimit(p.cfg.ContentConcurrency)

  for i := range state.course.Parts {
    part := &state.course.Parts[i]
    g.Go(func() error {
      system, user, schemaName, schema := p.prompts.LessonPlanPrompt(state.course, part)
      obj, err := p.ai.GenerateJSON(gctx, system, user, schemaName, schema)
      if err != nil {
        return &apperr.ExternalCallError{Call: "openai.lesson_plan", Err: err}
      }

      raw, err := json.Marshal(obj)
      if err != nil {
        return err
      }
      var plan lessonPlan
      if err := json.Unmarshal(raw, &plan); err != nil {
        return apperr.NewValidation(StageLessonPlanning.String(),
          fmt.Sprintf("part %d lesson plan does not match contract: %v", part.PartNumber, err))
      }

      // each goroutine writes only its own part
      part.Lessons = plan.Lessons
      if err := p.validator.ValidateLessonPlan(part); err != nil {
        return err
      }

      emitter.Emit(NewProgressEvent(ProgressEventLog,
        fmt.Sprintf("Planned %d lessons for part %d: %s", len(part.Lessons), part.PartNumber, part.Title),
        map[string]any{"part_number": part.PartNumber, "lesson_count": len(part.Lessons)}))
      return nil
    })
  }

  return g.Wait()
}

func (p *generationPipeline) generateContent(ctx context.Context, state *pipelineState, emitter ProgressEmitter) error {
  total := state.course.LessonCount()
  emitter.Emit(NewProgressEvent(ProgressEventLog,
    fmt.Sprintf("Generating content for %d lessons", total), nil))

  g, gctx := errgroup.WithContext(ctx)
  g.SetLimit(p.cfg.ContentConcurrency)

  var completed atomic.Int64

  for i := range state.course.Parts {
    part := &state.course.Parts[i]
    for j := range part.Lessons {
      lesson := &part.Lessons[j]
      g.Go(func() error {
        content, err := p.contentGen.Generate(gctx, state.course, part, lesson, state.webSearch)
        if err != nil {
          return err
        }

        // lesson slots are disjoint; tree order is fixed by numbers, not
        // completion order
        lesson.Content = content

        done := completed.Add(1)
        emitter.Emit(NewProgressEvent(ProgressEventProgress,
          fmt.Sprintf("Generated lesson %d.%d: %s", part.PartNumber, lesson.LessonNumber, lesson.Title),
          map[string]any{
            "part_number":   part.PartNumber,
            "lesson_number": lesson.LessonNumber,
            "completed":     done,
            "total":         total,
          }))
        return nil
      })
    }
  }

  return g.Wait()
}

func (p *generationPipeline) finalize(ctx context.Context, state *pipelineState, emitter ProgressEmitter) error {
  if err := ctx.Err(); err != nil {
    return err
  }
  emitter.Emit(NewProgressEvent(ProgressEventLog, "Validating complete course", nil))
  return p.validator.ValidateCompleteCourse(state.course)
}
