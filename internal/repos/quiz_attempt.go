package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/courseforge/courseforge-backend/internal/logger"
  "github.com/courseforge/courseforge-backend/internal/types"
)

type QuizAttemptRepo interface {
  Create(ctx context.Context, tx *gorm.DB, attempts []*types.QuizAttempt) ([]*types.QuizAttempt, error)
  GetByQuizIDs(ctx context.Context, tx *gorm.DB, quizIDs []uuid.UUID) ([]*types.QuizAttempt, error)
}

type quizAttemptRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewQuizAttemptRepo(db *gorm.DB, baseLog *logger.Logger) QuizAttemptRepo {
  return &quizAttemptRepo{db: db, log: baseLog.With("repo", "QuizAttemptRepo")}
}

func (r *quizAttemptRepo) Create(ctx context.Context, tx *gorm.DB, attempts []*types.QuizAttempt) ([]*types.QuizAttempt, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(attempts) == 0 {
    return []*types.QuizAttempt{}, nil
  }
  if err := transaction.WithContext(ctx).Create(&attempts).Error; err != nil {
    return nil, err
  }
  return attempts, nil
}

func (r *quizAttemptRepo) GetByQuizIDs(ctx context.Context, tx *gorm.DB, quizIDs []uuid.UUID) ([]*types.QuizAttempt, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.QuizAttempt
  if len(quizIDs) == 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("quiz_id IN ?", quizIDs).
    Order("quiz_id, created_at ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
