package repos

import (
  "context"
  "testing"
  "time"

  "github.com/google/uuid"

  "github.com/courseforge/courseforge-backend/internal/repos/testutil"
  "github.com/courseforge/courseforge-backend/internal/types"
)

func TestClaimNextRunnable(t *testing.T) {
  db := testutil.DB(t)
  tx := testutil.Tx(t, db)
  repo := NewCourseGenerationRunRepo(tx, testutil.Logger(t))
  ctx := context.Background()

  run := &types.CourseGenerationRun{
    ID:     uuid.New(),
    Topic:  "Python Basics",
    Status: "queued",
    Stage:  "structure_extraction",
  }
  if _, err := repo.Create(ctx, tx, []*types.CourseGenerationRun{run}); err != nil {
    t.Fatalf("Create: %v", err)
  }

  claimed, err := repo.ClaimNextRunnable(ctx, tx, 3, time.Minute, 10*time.Minute)
  if err != nil {
    t.Fatalf("ClaimNextRunnable: %v", err)
  }
  if claimed == nil {
    t.Fatal("expected a claimed run")
  }
  if claimed.ID != run.ID {
    t.Fatalf("claimed %v, want %v", claimed.ID, run.ID)
  }
  if claimed.Status != "running" || claimed.Attempts != 1 {
    t.Fatalf("claimed status=%q attempts=%d, want running/1", claimed.Status, claimed.Attempts)
  }

  // nothing else is runnable
  again, err := repo.ClaimNextRunnable(ctx, tx, 3, time.Minute, 10*time.Minute)
  if err != nil {
    t.Fatalf("ClaimNextRunnable: %v", err)
  }
  if again != nil {
    t.Fatalf("claimed a running run: %v", again.ID)
  }
}

func TestClaimNextRunnableRetriesFailedRuns(t *testing.T) {
  db := testutil.DB(t)
  tx := testutil.Tx(t, db)
  repo := NewCourseGenerationRunRepo(tx, testutil.Logger(t))
  ctx := context.Background()

  old := time.Now().Add(-time.Hour)
  failed := &types.CourseGenerationRun{
    ID:          uuid.New(),
    Topic:       "Go Basics",
    Status:      "failed",
    Stage:       "failed",
    Attempts:    1,
    Error:       "boom",
    LastErrorAt: &old,
  }
  exhausted := &types.CourseGenerationRun{
    ID:          uuid.New(),
    Topic:       "Rust Basics",
    Status:      "failed",
    Stage:       "failed",
    Attempts:    3,
    Error:       "boom",
    LastErrorAt: &old,
  }
  if _, err := repo.Create(ctx, tx, []*types.CourseGenerationRun{failed, exhausted}); err != nil {
    t.Fatalf("Create: %v", err)
  }

  claimed, err := repo.ClaimNextRunnable(ctx, tx, 3, time.Minute, 10*time.Minute)
  if err != nil {
    t.Fatalf("ClaimNextRunnable: %v", err)
  }
  if claimed == nil || claimed.ID != failed.ID {
    t.Fatalf("claimed %+v, want run %v", claimed, failed.ID)
  }

  // the exhausted run stays down
  again, err := repo.ClaimNextRunnable(ctx, tx, 3, time.Minute, 10*time.Minute)
  if err != nil {
    t.Fatalf("ClaimNextRunnable: %v", err)
  }
  if again != nil {
    t.Fatalf("claimed exhausted run %v", again.ID)
  }
}

func TestClaimNextRunnableReclaimsStaleRunning(t *testing.T) {
  db := testutil.DB(t)
  tx := testutil.Tx(t, db)
  repo := NewCourseGenerationRunRepo(tx, testutil.Logger(t))
  ctx := context.Background()

  stale := time.Now().Add(-time.Hour)
  run := &types.CourseGenerationRun{
    ID:          uuid.New(),
    Topic:       "SQL Basics",
    Status:      "running",
    Stage:       "content_generation",
    Attempts:    1,
    LockedAt:    &stale,
    HeartbeatAt: &stale,
  }
  if _, err := repo.Create(ctx, tx, []*types.CourseGenerationRun{run}); err != nil {
    t.Fatalf("Create: %v", err)
  }

  claimed, err := repo.ClaimNextRunnable(ctx, tx, 3, time.Minute, 10*time.Minute)
  if err != nil {
    t.Fatalf("ClaimNextRunnable: %v", err)
  }
  if claimed == nil || claimed.ID != run.ID {
    t.Fatalf("stale running run not reclaimed: %+v", claimed)
  }
  if claimed.Attempts != 2 {
    t.Fatalf("attempts = %d, want 2", claimed.Attempts)
  }
}

func TestUpdateFieldsAndHeartbeat(t *testing.T) {
  db := testutil.DB(t)
  tx := testutil.Tx(t, db)
  repo := NewCourseGenerationRunRepo(tx, testutil.Logger(t))
  ctx := context.Background()

  now := time.Now()
  run := &types.CourseGenerationRun{
    ID:       uuid.New(),
    Topic:    "Python Basics",
    Status:   "running",
    Stage:    "structure_extraction",
    Attempts: 1,
    LockedAt: &now,
  }
  queued := &types.CourseGenerationRun{
    ID:     uuid.New(),
    Topic:  "Ruby Basics",
    Status: "queued",
    Stage:  "structure_extraction",
  }
  if _, err := repo.Create(ctx, tx, []*types.CourseGenerationRun{run, queued}); err != nil {
    t.Fatalf("Create: %v", err)
  }

  if err := repo.UpdateFields(ctx, tx, run.ID, map[string]interface{}{
    "stage":    "lesson_planning",
    "progress": 35,
  }); err != nil {
    t.Fatalf("UpdateFields: %v", err)
  }
  if err := repo.Heartbeat(ctx, tx, run.ID); err != nil {
    t.Fatalf("Heartbeat: %v", err)
  }
  // heartbeat only touches running rows
  if err := repo.Heartbeat(ctx, tx, queued.ID); err != nil {
    t.Fatalf("Heartbeat: %v", err)
  }

  got, err := repo.GetByIDs(ctx, tx, []uuid.UUID{run.ID, queued.ID})
  if err != nil {
    t.Fatalf("GetByIDs: %v", err)
  }
  if len(got) != 2 {
    t.Fatalf("runs = %d, want 2", len(got))
  }
  byID := map[uuid.UUID]*types.CourseGenerationRun{}
  for _, r := range got {
    byID[r.ID] = r
  }
  if byID[run.ID].Stage != "lesson_planning" || byID[run.ID].Progress != 35 {
    t.Fatalf("stage=%q progress=%d", byID[run.ID].Stage, byID[run.ID].Progress)
  }
  if byID[run.ID].HeartbeatAt == nil {
    t.Fatal("heartbeat not recorded")
  }
  if byID[queued.ID].HeartbeatAt != nil {
    t.Fatal("heartbeat stamped a queued run")
  }
}
