package services

import (
  "context"
  "errors"
  "testing"
  "time"

  "github.com/google/uuid"

  "github.com/courseforge/courseforge-backend/internal/repos"
  "github.com/courseforge/courseforge-backend/internal/repos/testutil"
  "github.com/courseforge/courseforge-backend/internal/sse"
  "github.com/courseforge/courseforge-backend/internal/types"
)

type stubPipeline struct {
  result *PipelineResult
  err    error
}

func (s *stubPipeline) Generate(ctx context.Context, topic string, webSearch bool, emitter ProgressEmitter) (*PipelineResult, error) {
  if s.err != nil {
    return &PipelineResult{Status: PipelineStatusFailed, Stage: StageFailed}, s.err
  }
  return s.result, nil
}

type stubPersistence struct {
  savedID uuid.UUID
  err     error
}

func (s *stubPersistence) Save(ctx context.Context, course *types.CourseStructure, ownerID *uuid.UUID) (uuid.UUID, error) {
  if s.err != nil {
    return uuid.Nil, s.err
  }
  return s.savedID, nil
}

func (s *stubPersistence) Load(ctx context.Context, courseID uuid.UUID) (*types.CourseStructure, error) {
  return nil, nil
}

func (s *stubPersistence) Delete(ctx context.Context, courseID uuid.UUID) error {
  return nil
}

func newTestGenerationService(t *testing.T, pipeline GenerationPipeline, persistence CoursePersistence) (*courseGenerationService, repos.CourseGenerationRunRepo) {
  t.Helper()
  db := testutil.DB(t)
  tx := testutil.Tx(t, db)
  log := testutil.Logger(t)
  runRepo := repos.NewCourseGenerationRunRepo(tx, log)
  hub := sse.NewSSEHub(log)

  svc := NewCourseGenerationService(pipeline, persistence, runRepo, hub, nil, log).(*courseGenerationService)
  return svc, runRepo
}

func succeededCourse() *types.CourseStructure {
  return &types.CourseStructure{Title: "Go Basics", Description: "intro",
    Parts: []types.CoursePartV1{{PartNumber: 1, Title: "P1"}}}
}

func TestEnqueueCreatesQueuedRun(t *testing.T) {
  svc, _ := newTestGenerationService(t, &stubPipeline{}, &stubPersistence{})

  run, err := svc.Enqueue(context.Background(), "Go Basics", true, nil)
  if err != nil {
    t.Fatalf("Enqueue: %v", err)
  }
  if run.Status != "queued" {
    t.Fatalf("status = %q, want queued", run.Status)
  }
  if !run.WebSearchEnabled {
    t.Fatal("web search flag lost")
  }

  got, err := svc.GetRun(context.Background(), run.ID)
  if err != nil {
    t.Fatalf("GetRun: %v", err)
  }
  if got == nil || got.Topic != "Go Basics" {
    t.Fatalf("GetRun = %+v", got)
  }

  if _, err := svc.Enqueue(context.Background(), "", false, nil); err == nil {
    t.Fatal("empty topic must be rejected")
  }
}

func TestProcessRunMarksSuccess(t *testing.T) {
  courseID := uuid.New()
  pipeline := &stubPipeline{result: &PipelineResult{
    Status: PipelineStatusSucceeded,
    Stage:  StageDone,
    Course: succeededCourse(),
  }}
  svc, runRepo := newTestGenerationService(t, pipeline, &stubPersistence{savedID: courseID})
  ctx := context.Background()

  run, err := svc.Enqueue(ctx, "Go Basics", false, nil)
  if err != nil {
    t.Fatalf("Enqueue: %v", err)
  }
  claimed, err := runRepo.ClaimNextRunnable(ctx, nil, 3, time.Minute, 10*time.Minute)
  if err != nil || claimed == nil {
    t.Fatalf("claim: %v %v", claimed, err)
  }

  svc.processRun(ctx, claimed)

  rows, err := runRepo.GetByIDs(ctx, nil, []uuid.UUID{run.ID})
  if err != nil || len(rows) != 1 {
    t.Fatalf("GetByIDs: %v %v", rows, err)
  }
  got := rows[0]
  if got.Status != "succeeded" {
    t.Fatalf("status = %q, want succeeded", got.Status)
  }
  if got.CourseID == nil || *got.CourseID != courseID {
    t.Fatalf("course_id = %v, want %v", got.CourseID, courseID)
  }
  if got.Progress != 100 {
    t.Fatalf("progress = %d, want 100", got.Progress)
  }
}

func TestProcessRunRequeuesOnFailure(t *testing.T) {
  pipeline := &stubPipeline{err: errors.New("model blew up")}
  svc, runRepo := newTestGenerationService(t, pipeline, &stubPersistence{})
  ctx := context.Background()

  run, err := svc.Enqueue(ctx, "Go Basics", false, nil)
  if err != nil {
    t.Fatalf("Enqueue: %v", err)
  }
  claimed, err := runRepo.ClaimNextRunnable(ctx, nil, 3, time.Minute, 10*time.Minute)
  if err != nil || claimed == nil {
    t.Fatalf("claim: %v %v", claimed, err)
  }

  svc.processRun(ctx, claimed)

  rows, _ := runRepo.GetByIDs(ctx, nil, []uuid.UUID{run.ID})
  got := rows[0]
  if got.Status != "queued" {
    t.Fatalf("status = %q, want queued for retry", got.Status)
  }
  if got.Error == "" || got.LastErrorAt == nil {
    t.Fatalf("failure not recorded: %+v", got)
  }
}

func TestProcessRunFailsPermanentlyAtMaxAttempts(t *testing.T) {
  pipeline := &stubPipeline{err: errors.New("model blew up")}
  svc, runRepo := newTestGenerationService(t, pipeline, &stubPersistence{})
  ctx := context.Background()

  run, err := svc.Enqueue(ctx, "Go Basics", false, nil)
  if err != nil {
    t.Fatalf("Enqueue: %v", err)
  }

  for i := 0; i < svc.maxAttempts; i++ {
    claimed, err := runRepo.ClaimNextRunnable(ctx, nil, svc.maxAttempts, 0, 10*time.Minute)
    if err != nil {
      t.Fatalf("claim %d: %v", i, err)
    }
    if claimed == nil {
      t.Fatalf("run not claimable on attempt %d", i+1)
    }
    svc.processRun(ctx, claimed)
  }

  rows, _ := runRepo.GetByIDs(ctx, nil, []uuid.UUID{run.ID})
  if rows[0].Status != "failed" {
    t.Fatalf("status = %q, want failed after %d attempts", rows[0].Status, svc.maxAttempts)
  }

  claimed, err := runRepo.ClaimNextRunnable(ctx, nil, svc.maxAttempts, 0, 10*time.Minute)
  if err != nil {
    t.Fatalf("claim: %v", err)
  }
  if claimed != nil {
    t.Fatal("exhausted run must not be claimable")
  }
}
