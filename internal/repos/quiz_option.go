package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/courseforge/courseforge-backend/internal/logger"
  "github.com/courseforge/courseforge-backend/internal/types"
)

type QuizOptionRepo interface {
  Create(ctx context.Context, tx *gorm.DB, options []*types.QuizOption) ([]*types.QuizOption, error)
  GetByQuestionIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) ([]*types.QuizOption, error)
  FullDeleteByQuestionIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) error
}

type quizOptionRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewQuizOptionRepo(db *gorm.DB, baseLog *logger.Logger) QuizOptionRepo {
  return &quizOptionRepo{db: db, log: baseLog.With("repo", "QuizOptionRepo")}
}

func (r *quizOptionRepo) Create(ctx context.Context, tx *gorm.DB, options []*types.QuizOption) ([]*types.QuizOption, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(options) == 0 {
    return []*types.QuizOption{}, nil
  }
  if err := transaction.WithContext(ctx).Create(&options).Error; err != nil {
    return nil, err
  }
  return options, nil
}

func (r *quizOptionRepo) GetByQuestionIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) ([]*types.QuizOption, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.QuizOption
  if len(questionIDs) == 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("question_id IN ?", questionIDs).
    Order("question_id, option_letter ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *quizOptionRepo) FullDeleteByQuestionIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(questionIDs) == 0 {
    return nil
  }
  return transaction.WithContext(ctx).
    Unscoped().
    Where("question_id IN ?", questionIDs).
    Delete(&types.QuizOption{}).Error
}
