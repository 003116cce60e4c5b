package testutil

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/courseforge/courseforge-backend/internal/logger"
	"github.com/courseforge/courseforge-backend/internal/types"
)

var (
	dbOnce sync.Once
	db     *gorm.DB
	dbErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB returns a process-shared in-memory sqlite database with the full schema
// migrated. Identifiers are generated client-side, so the schema carries no
// uuid defaults and the same models run unchanged against postgres.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dbOnce.Do(func() {
		db, dbErr = gorm.Open(sqlite.Open("file:courseforge_test?mode=memory&cache=shared"), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
			Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
		})
		if dbErr != nil {
			return
		}
		dbErr = autoMigrateAll(db)
	})
	if dbErr != nil {
		tb.Fatalf("failed to init test db: %v", dbErr)
	}
	return db
}

func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

func autoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
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
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }
