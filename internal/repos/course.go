package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/courseforge/courseforge-backend/internal/logger"
  "github.com/courseforge/courseforge-backend/internal/types"
)

type CourseRepo interface {
  Create(ctx context.Context, tx *gorm.DB, courses []*types.Course) ([]*types.Course, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*types.Course, error)
  GetByOwnerIDs(ctx context.Context, tx *gorm.DB, ownerIDs []uuid.UUID) ([]*types.Course, error)
  SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) error
  FullDeleteByIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) error
}

type courseRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
  return &courseRepo{db: db, log: baseLog.With("repo", "CourseRepo")}
}

func (r *courseRepo) Create(ctx context.Context, tx *gorm.DB, courses []*types.Course) ([]*types.Course, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(courses) == 0 {
    return []*types.Course{}, nil
  }
  if err := transaction.WithContext(ctx).Create(&courses).Error; err != nil {
    return nil, err
  }
  return courses, nil
}

func (r *courseRepo) GetByIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*types.Course, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.Course
  if len(courseIDs) == 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("id IN ?", courseIDs).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *courseRepo) GetByOwnerIDs(ctx context.Context, tx *gorm.DB, ownerIDs []uuid.UUID) ([]*types.Course, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.Course
  if len(ownerIDs) == 0 {
    return results, nil
  }
  if err := transaction.WithContext(ctx).
    Where("owner_id IN ?", ownerIDs).
    Order("created_at DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *courseRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(courseIDs) == 0 {
    return nil
  }
  return transaction.WithContext(ctx).
    Where("id IN ?", courseIDs).
    Delete(&types.Course{}).Error
}

func (r *courseRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(courseIDs) == 0 {
    return nil
  }
  return transaction.WithContext(ctx).
    Unscoped().
    Where("id IN ?", courseIDs).
    Delete(&types.Course{}).Error
}
