package services

import (
  "context"
  "errors"
  "fmt"
  "testing"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/courseforge/courseforge-backend/internal/apperr"
  "github.com/courseforge/courseforge-backend/internal/repos"
  "github.com/courseforge/courseforge-backend/internal/repos/testutil"
  "github.com/courseforge/courseforge-backend/internal/types"
)

func newTestQuizService(t *testing.T) (QuizService, *gorm.DB) {
  t.Helper()
  db := testutil.DB(t)
  tx := testutil.Tx(t, db)
  log := testutil.Logger(t)

  svc := NewQuizService(
    repos.NewLessonQuizRepo(tx, log),
    repos.NewQuizQuestionRepo(tx, log),
    repos.NewQuizOptionRepo(tx, log),
    repos.NewQuizAttemptRepo(tx, log),
    log,
  )
  return svc, tx
}

// seedScoredQuiz seeds a quiz with n questions; option "B" is always correct.
func seedScoredQuiz(t *testing.T, tx *gorm.DB, n int) (uuid.UUID, []uuid.UUID) {
  t.Helper()
  ctx := context.Background()

  course := testutil.SeedCourse(t, ctx, tx, "Scoring")
  part := testutil.SeedPart(t, ctx, tx, course.ID, 1)
  lesson := testutil.SeedLesson(t, ctx, tx, part.ID, 1)
  quiz := testutil.SeedQuiz(t, ctx, tx, lesson.ID)

  var questionIDs []uuid.UUID
  for i := 1; i <= n; i++ {
    q := &types.QuizQuestion{
      ID:             uuid.New(),
      QuizID:         quiz.ID,
      QuestionNumber: i,
      Question:       fmt.Sprintf("Q%d?", i),
    }
    if err := tx.WithContext(ctx).Create(q).Error; err != nil {
      t.Fatalf("seed question: %v", err)
    }
    questionIDs = append(questionIDs, q.ID)

    for o := 0; o < 4; o++ {
      opt := &types.QuizOption{
        ID:           uuid.New(),
        QuestionID:   q.ID,
        OptionLetter: string(rune('A' + o)),
        OptionText:   fmt.Sprintf("option %d", o),
        IsCorrect:    o == 1,
      }
      if err := tx.WithContext(ctx).Create(opt).Error; err != nil {
        t.Fatalf("seed option: %v", err)
      }
    }
  }
  return quiz.ID, questionIDs
}

func TestSubmitAttemptScoring(t *testing.T) {
  svc, tx := newTestQuizService(t)
  quizID, questionIDs := seedScoredQuiz(t, tx, 3)

  // two of three correct: passing score for 3 is ceil(2.1) = 3, so not passed
  answers := map[uuid.UUID]string{
    questionIDs[0]: "B",
    questionIDs[1]: "B",
    questionIDs[2]: "A",
  }
  attempt, err := svc.SubmitAttempt(context.Background(), quizID, nil, answers)
  if err != nil {
    t.Fatalf("SubmitAttempt: %v", err)
  }
  if attempt.Score != 2 || attempt.Total != 3 {
    t.Fatalf("score = %d/%d, want 2/3", attempt.Score, attempt.Total)
  }
  if attempt.Passed {
    t.Fatal("2/3 must not pass a 70% threshold")
  }

  // all correct passes
  answers[questionIDs[2]] = "B"
  attempt, err = svc.SubmitAttempt(context.Background(), quizID, nil, answers)
  if err != nil {
    t.Fatalf("SubmitAttempt: %v", err)
  }
  if attempt.Score != 3 || !attempt.Passed {
    t.Fatalf("score = %d passed = %v, want 3 true", attempt.Score, attempt.Passed)
  }
}

func TestSubmitAttemptIgnoresUnknownAnswers(t *testing.T) {
  svc, tx := newTestQuizService(t)
  quizID, questionIDs := seedScoredQuiz(t, tx, 2)

  answers := map[uuid.UUID]string{
    questionIDs[0]: "B",
    uuid.New():     "B", // not a question of this quiz
  }
  attempt, err := svc.SubmitAttempt(context.Background(), quizID, nil, answers)
  if err != nil {
    t.Fatalf("SubmitAttempt: %v", err)
  }
  if attempt.Score != 1 || attempt.Total != 2 {
    t.Fatalf("score = %d/%d, want 1/2", attempt.Score, attempt.Total)
  }
}

func TestSubmitAttemptMissingQuiz(t *testing.T) {
  svc, _ := newTestQuizService(t)

  _, err := svc.SubmitAttempt(context.Background(), uuid.New(), nil, nil)
  if !errors.Is(err, apperr.ErrNotFound) {
    t.Fatalf("error = %v, want ErrNotFound", err)
  }
}

func TestSubmitAttemptPersistsAttempts(t *testing.T) {
  svc, tx := newTestQuizService(t)
  quizID, questionIDs := seedScoredQuiz(t, tx, 2)

  userID := testutil.PtrUUID(uuid.New())
  if _, err := svc.SubmitAttempt(context.Background(), quizID, userID, map[uuid.UUID]string{questionIDs[0]: "B"}); err != nil {
    t.Fatalf("SubmitAttempt: %v", err)
  }

  attempts, err := svc.GetAttempts(context.Background(), quizID)
  if err != nil {
    t.Fatalf("GetAttempts: %v", err)
  }
  if len(attempts) != 1 {
    t.Fatalf("attempts = %d, want 1", len(attempts))
  }
  if attempts[0].UserID == nil || *attempts[0].UserID != *userID {
    t.Fatalf("attempt user id = %v, want %v", attempts[0].UserID, userID)
  }
}

func TestPassingScore(t *testing.T) {
  cases := []struct {
    total, want int
  }{
    {0, 0},
    {1, 1},
    {3, 3},
    {4, 3},
    {10, 7},
  }
  for _, c := range cases {
    if got := passingScore(c.total); got != c.want {
      t.Fatalf("passingScore(%d) = %d, want %d", c.total, got, c.want)
    }
  }
}
