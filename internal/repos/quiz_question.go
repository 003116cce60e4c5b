package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/courseforge/courseforge-backend/internal/logger"
  "github.com/courseforge/courseforge-backend/internal/types"
)

type QuizQuestionRepo interface {
  Create(ctx context.Context, tx *gorm.DB, questions []*types.QuizQuestion) ([]*types.QuizQuestion, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) ([]*types.QuizQuestion, error)
  GetByQuizIDs(ctx context.Context, tx *gorm.DB, quizIDs []uuid.UUID) ([]*types.QuizQuestion, error)
  FullDeleteByQuizIDs(ctx context.Context, tx *gorm.DB, quizIDs []uuid.UUID) error
}

type quizQuestionRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewQuizQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuizQuestionRepo {
  return &quizQuestionRepo{db: db, log: baseLog.With("repo", "QuizQuestionRepo")}
}

func (r *quizQuestionRepo) Create(ctx context.Context, tx *gorm.DB, questions []*types.QuizQuestion) ([]*types.QuizQuestion, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(questions) == 0 {
    return []*types.QuizQuestion{}, nil
  }
  if err := transaction.WithContext(ctx).Create(&questions).Error; err != nil {
    return nil, err
  }
  return questions, nil
}

func (r *quizQuestionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) ([]*types.QuizQuestion, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.QuizQuestion
  if len(questionIDs) == 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("id IN ?", questionIDs).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *quizQuestionRepo) GetByQuizIDs(ctx context.Context, tx *gorm.DB, quizIDs []uuid.UUID) ([]*types.QuizQuestion, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.QuizQuestion
  if len(quizIDs) == 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("quiz_id IN ?", quizIDs).
    Order("quiz_id, question_number ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *quizQuestionRepo) FullDeleteByQuizIDs(ctx context.Context, tx *gorm.DB, quizIDs []uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(quizIDs) == 0 {
    return nil
  }
  return transaction.WithContext(ctx).
    Unscoped().
    Where("quiz_id IN ?", quizIDs).
    Delete(&types.QuizQuestion{}).Error
}
