package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/courseforge/courseforge-backend/internal/types"
)

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, title string) *types.Course {
	tb.Helper()
	c := &types.Course{
		ID:            uuid.New(),
		Title:         title,
		Description:   "seeded",
		Prerequisites: datatypes.JSON([]byte("[]")),
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedPart(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, number int) *types.CoursePart {
	tb.Helper()
	p := &types.CoursePart{
		ID:            uuid.New(),
		CourseID:      courseID,
		PartNumber:    number,
		Title:         fmt.Sprintf("Part %d", number),
		LearningGoals: datatypes.JSON([]byte("[]")),
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed part: %v", err)
	}
	return p
}

func SeedLesson(tb testing.TB, ctx context.Context, tx *gorm.DB, partID uuid.UUID, number int) *types.CourseLesson {
	tb.Helper()
	l := &types.CourseLesson{
		ID:           uuid.New(),
		PartID:       partID,
		LessonNumber: number,
		Title:        fmt.Sprintf("Lesson %d", number),
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed lesson: %v", err)
	}
	return l
}

func SeedQuiz(tb testing.TB, ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) *types.LessonQuiz {
	tb.Helper()
	q := &types.LessonQuiz{
		ID:       uuid.New(),
		LessonID: lessonID,
	}
	if err := tx.WithContext(ctx).Create(q).Error; err != nil {
		tb.Fatalf("seed quiz: %v", err)
	}
	return q
}
