package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/courseforge/courseforge-backend/internal/logger"
  "github.com/courseforge/courseforge-backend/internal/types"
)

type LessonQuizRepo interface {
  Create(ctx context.Context, tx *gorm.DB, quizzes []*types.LessonQuiz) ([]*types.LessonQuiz, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, quizIDs []uuid.UUID) ([]*types.LessonQuiz, error)
  GetByLessonIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uuid.UUID) ([]*types.LessonQuiz, error)
  FullDeleteByLessonIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uuid.UUID) error
}

type lessonQuizRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewLessonQuizRepo(db *gorm.DB, baseLog *logger.Logger) LessonQuizRepo {
  return &lessonQuizRepo{db: db, log: baseLog.With("repo", "LessonQuizRepo")}
}

func (r *lessonQuizRepo) Create(ctx context.Context, tx *gorm.DB, quizzes []*types.LessonQuiz) ([]*types.LessonQuiz, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(quizzes) == 0 {
    return []*types.LessonQuiz{}, nil
  }
  if err := transaction.WithContext(ctx).Create(&quizzes).Error; err != nil {
    return nil, err
  }
  return quizzes, nil
}

func (r *lessonQuizRepo) GetByIDs(ctx context.Context, tx *gorm.DB, quizIDs []uuid.UUID) ([]*types.LessonQuiz, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.LessonQuiz
  if len(quizIDs) == 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("id IN ?", quizIDs).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *lessonQuizRepo) GetByLessonIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uuid.UUID) ([]*types.LessonQuiz, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.LessonQuiz
  if len(lessonIDs) == 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("lesson_id IN ?", lessonIDs).
    Order("lesson_id, created_at ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *lessonQuizRepo) FullDeleteByLessonIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(lessonIDs) == 0 {
    return nil
  }
  return transaction.WithContext(ctx).
    Unscoped().
    Where("lesson_id IN ?", lessonIDs).
    Delete(&types.LessonQuiz{}).Error
}
