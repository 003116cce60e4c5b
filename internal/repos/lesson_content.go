package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/courseforge/courseforge-backend/internal/logger"
  "github.com/courseforge/courseforge-backend/internal/types"
)

type LessonContentRepo interface {
  Create(ctx context.Context, tx *gorm.DB, contents []*types.LessonContent) ([]*types.LessonContent, error)
  GetByLessonIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uuid.UUID) ([]*types.LessonContent, error)
  FullDeleteByLessonIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uuid.UUID) error
}

type lessonContentRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewLessonContentRepo(db *gorm.DB, baseLog *logger.Logger) LessonContentRepo {
  return &lessonContentRepo{db: db, log: baseLog.With("repo", "LessonContentRepo")}
}

func (r *lessonContentRepo) Create(ctx context.Context, tx *gorm.DB, contents []*types.LessonContent) ([]*types.LessonContent, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(contents) == 0 {
    return []*types.LessonContent{}, nil
  }
  if err := transaction.WithContext(ctx).Create(&contents).Error; err != nil {
    return nil, err
  }
  return contents, nil
}

func (r *lessonContentRepo) GetByLessonIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uuid.UUID) ([]*types.LessonContent, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.LessonContent
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

func (r *lessonContentRepo) FullDeleteByLessonIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uuid.UUID) error {
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
    Delete(&types.LessonContent{}).Error
}
