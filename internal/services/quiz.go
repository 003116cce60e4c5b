package services

import (
  "context"
  "encoding/json"
  "math"

  "github.com/google/uuid"
  "gorm.io/datatypes"

  "github.com/courseforge/courseforge-backend/internal/apperr"
  "github.com/courseforge/courseforge-backend/internal/logger"
  "github.com/courseforge/courseforge-backend/internal/repos"
  "github.com/courseforge/courseforge-backend/internal/types"
)

// QuizService scores quiz attempts. An attempt maps question ids to the
// option letter the learner picked; unanswered questions score zero.
type QuizService interface {
  SubmitAttempt(ctx context.Context, quizID uuid.UUID, userID *uuid.UUID, answers map[uuid.UUID]string) (*types.QuizAttempt, error)
  GetAttempts(ctx context.Context, quizID uuid.UUID) ([]*types.QuizAttempt, error)
}

type quizService struct {
  quizRepo    repos.LessonQuizRepo
  qstnRepo    repos.QuizQuestionRepo
  optRepo     repos.QuizOptionRepo
  attemptRepo repos.QuizAttemptRepo
  log         *logger.Logger
}

func NewQuizService(
  quizRepo repos.LessonQuizRepo,
  qstnRepo repos.QuizQuestionRepo,
  optRepo repos.QuizOptionRepo,
  attemptRepo repos.QuizAttemptRepo,
  log *logger.Logger,
) QuizService {
  return &quizService{
    quizRepo:    quizRepo,
    qstnRepo:    qstnRepo,
    optRepo:     optRepo,
    attemptRepo: attemptRepo,
    log:         log.With("service", "QuizService"),
  }
}

// PassThreshold is the fraction of questions that must be answered correctly.
const PassThreshold = 0.7

func passingScore(total int) int {
  return int(math.Ceil(float64(total) * PassThreshold))
}

func (s *quizService) SubmitAttempt(ctx context.Context, quizID uuid.UUID, userID *uuid.UUID, answers map[uuid.UUID]string) (*types.QuizAttempt, error) {
  quizzes, err := s.quizRepo.GetByIDs(ctx, nil, []uuid.UUID{quizID})
  if err != nil {
    return nil, err
  }
  if len(quizzes) == 0 {
    return nil, apperr.ErrNotFound
  }

  questions, err := s.qstnRepo.GetByQuizIDs(ctx, nil, []uuid.UUID{quizID})
  if err != nil {
    return nil, err
  }

  questionIDs := make([]uuid.UUID, 0, len(questions))
  for _, q := range questions {
    questionIDs = append(questionIDs, q.ID)
  }
  options, err := s.optRepo.GetByQuestionIDs(ctx, nil, questionIDs)
  if err != nil {
    return nil, err
  }

  correctByQuestion := make(map[uuid.UUID]string, len(questions))
  for _, o := range options {
    if o.IsCorrect {
      correctByQuestion[o.QuestionID] = o.OptionLetter
    }
  }

  score := 0
  for _, q := range questions {
    if picked, ok := answers[q.ID]; ok && picked == correctByQuestion[q.ID] {
      score++
    }
  }

  total := len(questions)
  passed := score >= passingScore(total)

  answersJSON, err := json.Marshal(answers)
  if err != nil {
    return nil, err
  }

  attempt := &types.QuizAttempt{
    ID:      uuid.New(),
    QuizID:  quizID,
    UserID:  userID,
    Answers: datatypes.JSON(answersJSON),
    Score:   score,
    Total:   total,
    Passed:  passed,
  }
  if _, err := s.attemptRepo.Create(ctx, nil, []*types.QuizAttempt{attempt}); err != nil {
    return nil, &apperr.PersistenceError{Entity: "quiz_attempts", Parent: "lesson_quizzes", ParentID: quizID, Err: err}
  }

  s.log.Info("quiz attempt scored",
    "quiz_id", quizID.String(),
    "score", score,
    "total", total,
    "passed", passed,
  )
  return attempt, nil
}

func (s *quizService) GetAttempts(ctx context.Context, quizID uuid.UUID) ([]*types.QuizAttempt, error) {
  return s.attemptRepo.GetByQuizIDs(ctx, nil, []uuid.UUID{quizID})
}
