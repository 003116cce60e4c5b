package db

import (
  "fmt"

  "gorm.io/driver/postgres"
  "gorm.io/gorm"

  "github.com/courseforge/courseforge-backend/internal/logger"
  "github.com/courseforge/courseforge-backend/internal/types"
  "github.com/courseforge/courseforge-backend/internal/utils"
)

type PostgresService struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
  serviceLog := log.With("service", "PostgresService")

  postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
  postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
  postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
  postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
  postgresName := utils.GetEnv("POSTGRES_NAME", "courseforge", log)

  dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

  serviceLog.Info("Connecting to Postgres...")
  gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
    DisableForeignKeyConstraintWhenMigrating: true,
  })
  if err != nil {
    serviceLog.Error("Failed to connect to Postgres", "error", err)
    return nil, fmt.Errorf("connect to postgres: %w", err)
  }

  return &PostgresService{db: gdb, log: serviceLog}, nil
}

// AutoMigrateAll creates the seven-table relational mirror plus the run and
// attempt tables. Identifiers are generated client-side, so no uuid extension
// or column defaults are required.
func (s *PostgresService) AutoMigrateAll() error {
  s.log.Info("Auto migrating postgres tables...")
  err := s.db.AutoMigrate(
    &types.Course{},
    &types.CoursePart{},
    &types.CourseLesson{},
    &types.LessonContent{},
    &types.LessonQuiz{},
    &types.QuizQuestion{},
    &types.QuizOption{},
    &types.CourseGenerationRun{},
    &types.QuizAttempt{},
  )
  if err != nil {
    s.log.Error("Auto migration failed for postgres tables", "error", err)
    return err
  }
  return nil
}

func (s *PostgresService) DB() *gorm.DB {
  return s.db
}

func (s *PostgresService) Close() error {
  sqlDB, err := s.db.DB()
  if err != nil {
    return err
  }
  return sqlDB.Close()
}
