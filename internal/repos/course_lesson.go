package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/courseforge/courseforge-backend/internal/logger"
  "github.com/courseforge/courseforge-backend/internal/types"
)

type CourseLessonRepo interface {
  Create(ctx context.Context, tx *gorm.DB, lessons []*types.CourseLesson) ([]*types.CourseLesson, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uuid.UUID) ([]*types.CourseLesson, error)
  GetByPartIDs(ctx context.Context, tx *gorm.DB, partIDs []uuid.UUID) ([]*types.CourseLesson, error)
  FullDeleteByPartIDs(ctx context.Context, tx *gorm.DB, partIDs []uuid.UUID) error
}

type courseLessonRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewCourseLessonRepo(db *gorm.DB, baseLog *logger.Logger) CourseLessonRepo {
  return &courseLessonRepo{db: db, log: baseLog.With("repo", "CourseLessonRepo")}
}

func (r *courseLessonRepo) Create(ctx context.Context, tx *gorm.DB, lessons []*types.CourseLesson) ([]*types.CourseLesson, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(lessons) == 0 {
    return []*types.CourseLesson{}, nil
  }
  if err := transaction.WithContext(ctx).Create(&lessons).Error; err != nil {
    return nil, err
  }
  return lessons, nil
}

func (r *courseLessonRepo) GetByIDs(ctx context.Context, tx *gorm.DB, lessonIDs []uuid.UUID) ([]*types.CourseLesson, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.CourseLesson
  if len(lessonIDs) == 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("id IN ?", lessonIDs).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *courseLessonRepo) GetByPartIDs(ctx context.Context, tx *gorm.DB, partIDs []uuid.UUID) ([]*types.CourseLesson, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.CourseLesson
  if len(partIDs) == 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("part_id IN ?", partIDs).
    Order("part_id, lesson_number ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *courseLessonRepo) FullDeleteByPartIDs(ctx context.Context, tx *gorm.DB, partIDs []uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(partIDs) == 0 {
    return nil
  }
  return transaction.WithContext(ctx).
    Unscoped().
    Where("part_id IN ?", partIDs).
    Delete(&types.CourseLesson{}).Error
}
