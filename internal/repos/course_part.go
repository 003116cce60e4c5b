package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/courseforge/courseforge-backend/internal/logger"
  "github.com/courseforge/courseforge-backend/internal/types"
)

type CoursePartRepo interface {
  Create(ctx context.Context, tx *gorm.DB, parts []*types.CoursePart) ([]*types.CoursePart, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, partIDs []uuid.UUID) ([]*types.CoursePart, error)
  GetByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*types.CoursePart, error)
  FullDeleteByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) error
}

type coursePartRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewCoursePartRepo(db *gorm.DB, baseLog *logger.Logger) CoursePartRepo {
  return &coursePartRepo{db: db, log: baseLog.With("repo", "CoursePartRepo")}
}

func (r *coursePartRepo) Create(ctx context.Context, tx *gorm.DB, parts []*types.CoursePart) ([]*types.CoursePart, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(parts) == 0 {
    return []*types.CoursePart{}, nil
  }
  if err := transaction.WithContext(ctx).Create(&parts).Error; err != nil {
    return nil, err
  }
  return parts, nil
}

func (r *coursePartRepo) GetByIDs(ctx context.Context, tx *gorm.DB, partIDs []uuid.UUID) ([]*types.CoursePart, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.CoursePart
  if len(partIDs) == 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("id IN ?", partIDs).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *coursePartRepo) GetByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*types.CoursePart, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.CoursePart
  if len(courseIDs) == 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("course_id IN ?", courseIDs).
    Order("course_id, part_number ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *coursePartRepo) FullDeleteByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(courseIDs) == 0 {
    return nil
  }
  return transaction.WithContext(ctx).
    Unscoped().
    Where("course_id IN ?", courseIDs).
    Delete(&types.CoursePart{}).Error
}
