package repos

import (
  "context"
  "testing"

  "github.com/google/uuid"

  "github.com/courseforge/courseforge-backend/internal/repos/testutil"
  "github.com/courseforge/courseforge-backend/internal/types"
)

func TestGetByCourseIDsOrdersByPartNumber(t *testing.T) {
  db := testutil.DB(t)
  tx := testutil.Tx(t, db)
  repo := NewCoursePartRepo(tx, testutil.Logger(t))
  ctx := context.Background()

  course := testutil.SeedCourse(t, ctx, tx, "Ordering")
  // seed out of order
  for _, n := range []int{3, 1, 2} {
    testutil.SeedPart(t, ctx, tx, course.ID, n)
  }

  parts, err := repo.GetByCourseIDs(ctx, tx, []uuid.UUID{course.ID})
  if err != nil {
    t.Fatalf("GetByCourseIDs: %v", err)
  }
  if len(parts) != 3 {
    t.Fatalf("parts = %d, want 3", len(parts))
  }
  for i, p := range parts {
    if p.PartNumber != i+1 {
      t.Fatalf("index %d has part_number %d", i, p.PartNumber)
    }
  }
}

func TestUniquePartNumberPerCourse(t *testing.T) {
  db := testutil.DB(t)
  tx := testutil.Tx(t, db)
  repo := NewCoursePartRepo(tx, testutil.Logger(t))
  ctx := context.Background()

  course := testutil.SeedCourse(t, ctx, tx, "Unique")
  testutil.SeedPart(t, ctx, tx, course.ID, 1)

  dup := &types.CoursePart{
    ID:         uuid.New(),
    CourseID:   course.ID,
    PartNumber: 1,
    Title:      "duplicate",
  }
  if _, err := repo.Create(ctx, tx, []*types.CoursePart{dup}); err == nil {
    t.Fatal("expected unique constraint violation")
  }

  // a different course may reuse the number
  other := testutil.SeedCourse(t, ctx, tx, "Other")
  ok := &types.CoursePart{
    ID:         uuid.New(),
    CourseID:   other.ID,
    PartNumber: 1,
    Title:      "fine",
  }
  if _, err := repo.Create(ctx, tx, []*types.CoursePart{ok}); err != nil {
    t.Fatalf("Create: %v", err)
  }
}
