package services

import (
  "context"
  "fmt"
  "time"

  "github.com/google/uuid"

  "github.com/courseforge/courseforge-backend/internal/logger"
  "github.com/courseforge/courseforge-backend/internal/repos"
  "github.com/courseforge/courseforge-backend/internal/sse"
  "github.com/courseforge/courseforge-backend/internal/types"
)

// CourseGenerationService queues generation runs and drains them in a
// background worker. Runs are claimed atomically so multiple instances can
// share the queue; a crashed worker's run goes stale and is reclaimed.
type CourseGenerationService interface {
  Enqueue(ctx context.Context, topic string, webSearch bool, ownerID *uuid.UUID) (*types.CourseGenerationRun, error)
  GetRun(ctx context.Context, runID uuid.UUID) (*types.CourseGenerationRun, error)
  StartWorker(ctx context.Context)
}

type courseGenerationService struct {
  pipeline    GenerationPipeline
  persistence CoursePersistence
  runRepo     repos.CourseGenerationRunRepo
  hub         *sse.SSEHub
  bus         sse.Bus
  log         *logger.Logger

  pollInterval      time.Duration
  heartbeatInterval time.Duration
  maxAttempts       int
  retryDelay        time.Duration
  staleRunning      time.Duration
}

func NewCourseGenerationService(
  pipeline GenerationPipeline,
  persistence CoursePersistence,
  runRepo repos.CourseGenerationRunRepo,
  hub *sse.SSEHub,
  bus sse.Bus,
  log *logger.Logger,
) CourseGenerationService {
  return &courseGenerationService{
    pipeline:          pipeline,
    persistence:       persistence,
    runRepo:           runRepo,
    hub:               hub,
    bus:               bus,
    log:               log.With("service", "CourseGenerationService"),
    pollInterval:      2 * time.Second,
    heartbeatInterval: 15 * time.Second,
    maxAttempts:       3,
    retryDelay:        30 * time.Second,
    staleRunning:      10 * time.Minute,
  }
}

func (s *courseGenerationService) Enqueue(ctx context.Context, topic string, webSearch bool, ownerID *uuid.UUID) (*types.CourseGenerationRun, error) {
  if topic == "" {
    return nil, fmt.Errorf("topic required")
  }

  run := &types.CourseGenerationRun{
    ID:               uuid.New(),
    OwnerID:          ownerID,
    Topic:            topic,
    WebSearchEnabled: webSearch,
    Status:           "queued",
    Stage:            StageStructureExtraction.String(),
  }
  if _, err := s.runRepo.Create(ctx, nil, []*types.CourseGenerationRun{run}); err != nil {
    return nil, err
  }

  s.log.Info("generation run enqueued", "run_id", run.ID.String(), "topic", topic, "web_search", webSearch)
  return run, nil
}

func (s *courseGenerationService) GetRun(ctx context.Context, runID uuid.UUID) (*types.CourseGenerationRun, error) {
  runs, err := s.runRepo.GetByIDs(ctx, nil, []uuid.UUID{runID})
  if err != nil {
    return nil, err
  }
  if len(runs) == 0 {
    return nil, nil
  }
  return runs[0], nil
}

// StartWorker polls for runnable runs until ctx is cancelled. Call it in its
// own goroutine.
func (s *courseGenerationService) StartWorker(ctx context.Context) {
  s.log.Info("generation worker started", "poll_interval", s.pollInterval.String())

  ticker := time.NewTicker(s.pollInterval)
  defer ticker.Stop()

  for {
    select {
    case <-ctx.Done():
      s.log.Info("generation worker stopping")
      return
    case <-ticker.C:
      run, err := s.runRepo.ClaimNextRunnable(ctx, nil, s.maxAttempts, s.retryDelay, s.staleRunning)
      if err != nil {
        s.log.Error("failed to claim generation run", "error", err.Error())
        continue
      }
      if run == nil {
        continue
      }
      s.processRun(ctx, run)
    }
  }
}

func (s *courseGenerationService) processRun(ctx context.Context, run *types.CourseGenerationRun) {
  s.log.Info("processing generation run",
    "run_id", run.ID.String(), "topic", run.Topic, "attempt", run.Attempts)

  hbCtx, stopHeartbeat := context.WithCancel(ctx)
  defer stopHeartbeat()
  go s.heartbeatLoop(hbCtx, run.ID)

  channel := run.ID.String()
  emitters := []ProgressEmitter{
    NewLogEmitter(s.log),
    NewHubEmitter(s.hub, channel),
    newRunEmitter(s.runRepo, run.ID, s.log),
  }
  if s.bus != nil {
    emitters = append(emitters, NewBusEmitter(s.bus, channel, s.log))
  }
  emitter := NewMultiEmitter(emitters...)

  result, err := s.pipeline.Generate(ctx, run.Topic, run.WebSearchEnabled, emitter)
  if err != nil {
    s.failRun(ctx, run, err)
    return
  }

  courseID, err := s.persistence.Save(ctx, result.Course, run.OwnerID)
  if err != nil {
    s.failRun(ctx, run, err)
    return
  }

  now := time.Now().UTC()
  updates := map[string]interface{}{
    "status":       "succeeded",
    "stage":        StageDone.String(),
    "progress":     100,
    "course_id":    courseID,
    "locked_at":    nil,
    "heartbeat_at": now,
  }
  if uErr := s.runRepo.UpdateFields(ctx, nil, run.ID, updates); uErr != nil {
    s.log.Error("failed to mark run succeeded", "run_id", run.ID.String(), "error", uErr.Error())
  }

  emitter.Emit(NewProgressEvent(ProgressEventCourseGenerated,
    fmt.Sprintf("Course %q is ready", result.Course.Title),
    map[string]any{"course_id": courseID.String(), "run_id": run.ID.String()}))
}

func (s *courseGenerationService) failRun(ctx context.Context, run *types.CourseGenerationRun, cause error) {
  s.log.Error("generation run failed",
    "run_id", run.ID.String(), "attempt", run.Attempts, "error", cause.Error())

  now := time.Now().UTC()
  status := "queued" // retried on a later poll
  if run.Attempts >= s.maxAttempts {
    status = "failed"
  }
  updates := map[string]interface{}{
    "status":        status,
    "stage":         StageFailed.String(),
    "error":         cause.Error(),
    "last_error_at": now,
    "locked_at":     nil,
  }
  if err := s.runRepo.UpdateFields(ctx, nil, run.ID, updates); err != nil {
    s.log.Error("failed to record run failure", "run_id", run.ID.String(), "error", err.Error())
  }
}

func (s *courseGenerationService) heartbeatLoop(ctx context.Context, runID uuid.UUID) {
  ticker := time.NewTicker(s.heartbeatInterval)
  defer ticker.Stop()

  for {
    select {
    case <-ctx.Done():
      return
    case <-ticker.C:
      if err := s.runRepo.Heartbeat(ctx, nil, runID); err != nil {
        s.log.Warn("heartbeat failed", "run_id", runID.String(), "error", err.Error())
      }
    }
  }
}

// runEmitter mirrors stage/progress events onto the run row so run status can
// be polled without an SSE subscription.
type runEmitter struct {
  runRepo repos.CourseGenerationRunRepo
  runID   uuid.UUID
  log     *logger.Logger
}

func newRunEmitter(runRepo repos.CourseGenerationRunRepo, runID uuid.UUID, log *logger.Logger) ProgressEmitter {
  return &runEmitter{runRepo: runRepo, runID: runID, log: log.With("service", "RunEmitter")}
}

func (e *runEmitter) Emit(event ProgressEvent) {
  if event.Type != ProgressEventProgress || event.Data == nil {
    return
  }
  updates := map[string]interface{}{}
  if stage, ok := event.Data["stage"].(string); ok {
    updates["stage"] = stage
  }
  if percent, ok := event.Data["percent"].(int); ok {
    updates["progress"] = percent
  }
  if len(updates) == 0 {
    return
  }
  if err := e.runRepo.UpdateFields(context.Background(), nil, e.runID, updates); err != nil {
    e.log.Warn("failed to update run progress", "run_id", e.runID.String(), "error", err.Error())
  }
}
