package services

import (
  "context"
  "encoding/json"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/courseforge/courseforge-backend/internal/apperr"
  "github.com/courseforge/courseforge-backend/internal/logger"
  "github.com/courseforge/courseforge-backend/internal/repos"
  "github.com/courseforge/courseforge-backend/internal/types"
)

// CoursePersistence maps the nested course tree onto the relational schema
// and back. Save is a single unit of work: either the full tree commits or
// nothing does. Load reconstructs a tree that is structurally identical to
// the one saved, with row ids populated at every level.
type CoursePersistence interface {
  Save(ctx context.Context, course *types.CourseStructure, ownerID *uuid.UUID) (uuid.UUID, error)
  Load(ctx context.Context, courseID uuid.UUID) (*types.CourseStructure, error)
  Delete(ctx context.Context, courseID uuid.UUID) error
}

type coursePersistence struct {
  db          *gorm.DB
  courseRepo  repos.CourseRepo
  partRepo    repos.CoursePartRepo
  lessonRepo  repos.CourseLessonRepo
  contentRepo repos.LessonContentRepo
  quizRepo    repos.LessonQuizRepo
  qstnRepo    repos.QuizQuestionRepo
  optRepo     repos.QuizOptionRepo
  log         *logger.Logger
}

func NewCoursePersistence(
  db *gorm.DB,
  courseRepo repos.CourseRepo,
  partRepo repos.CoursePartRepo,
  lessonRepo repos.CourseLessonRepo,
  contentRepo repos.LessonContentRepo,
  quizRepo repos.LessonQuizRepo,
  qstnRepo repos.QuizQuestionRepo,
  optRepo repos.QuizOptionRepo,
  log *logger.Logger,
) CoursePersistence {
  return &coursePersistence{
    db:          db,
    courseRepo:  courseRepo,
    partRepo:    partRepo,
    lessonRepo:  lessonRepo,
    contentRepo: contentRepo,
    quizRepo:    quizRepo,
    qstnRepo:    qstnRepo,
    optRepo:     optRepo,
    log:         log.With("service", "CoursePersistence"),
  }
}

func toJSON(v []string) datatypes.JSON {
  if v == nil {
    v = []string{}
  }
  raw, err := json.Marshal(v)
  if err != nil {
    return datatypes.JSON([]byte("[]"))
  }
  return datatypes.JSON(raw)
}

func idPtr(v uuid.UUID) *uuid.UUID { return &v }

func fromJSON(raw datatypes.JSON) []string {
  if len(raw) == 0 {
    return nil
  }
  var out []string
  if err := json.Unmarshal(raw, &out); err != nil {
    return nil
  }
  return out
}

func (s *coursePersistence) Save(ctx context.Context, course *types.CourseStructure, ownerID *uuid.UUID) (uuid.UUID, error) {
  courseID := uuid.New()
  if course.ID != nil && *course.ID != uuid.Nil {
    courseID = *course.ID
  }

  // flatten the tree into per-table batches, parent ids assigned client-side
  courseRow := &types.Course{
    ID:             courseID,
    OwnerID:        ownerID,
    Title:          course.Title,
    Description:    course.Description,
    TargetAudience: course.TargetAudience,
    Prerequisites:  toJSON(course.Prerequisites),
    TotalDuration:  course.TotalDuration,
  }

  var partRows []*types.CoursePart
  var lessonRows []*types.CourseLesson
  var contentRows []*types.LessonContent
  var quizRows []*types.LessonQuiz
  var questionRows []*types.QuizQuestion
  var optionRows []*types.QuizOption

  for i := range course.Parts {
    part := &course.Parts[i]
    partID := uuid.New()
    partRows = append(partRows, &types.CoursePart{
      ID:            partID,
      CourseID:      courseID,
      PartNumber:    part.PartNumber,
      Title:         part.Title,
      Description:   part.Description,
      LearningGoals: toJSON(part.LearningGoals),
    })

    for j := range part.Lessons {
      lesson := &part.Lessons[j]
      lessonID := uuid.New()
      lessonRows = append(lessonRows, &types.CourseLesson{
        ID:           lessonID,
        PartID:       partID,
        LessonNumber: lesson.LessonNumber,
        Title:        lesson.Title,
        Description:  lesson.Description,
      })

      if lesson.Content == nil {
        continue
      }
      contentRows = append(contentRows, &types.LessonContent{
        ID:                 uuid.New(),
        LessonID:           lessonID,
        Title:              lesson.Content.Title,
        LearningObjectives: toJSON(lesson.Content.LearningObjectives),
        Content:            lesson.Content.Content,
        KeyConcepts:        toJSON(lesson.Content.KeyConcepts),
        Examples:           toJSON(lesson.Content.Examples),
        Exercises:          toJSON(lesson.Content.Exercises),
        EstimatedDuration:  lesson.Content.EstimatedDuration,
      })

      if lesson.Content.Quiz == nil {
        continue
      }
      quizID := uuid.New()
      quizRows = append(quizRows, &types.LessonQuiz{ID: quizID, LessonID: lessonID})

      for k := range lesson.Content.Quiz.Questions {
        q := &lesson.Content.Quiz.Questions[k]
        questionID := uuid.New()
        questionRows = append(questionRows, &types.QuizQuestion{
          ID:             questionID,
          QuizID:         quizID,
          QuestionNumber: q.QuestionNumber,
          Question:       q.Question,
          Explanation:    q.Explanation,
        })
        for l := range q.Options {
          opt := &q.Options[l]
          optionRows = append(optionRows, &types.QuizOption{
            ID:           uuid.New(),
            QuestionID:   questionID,
            OptionLetter: opt.OptionLetter,
            OptionText:   opt.OptionText,
            IsCorrect:    opt.IsCorrect,
          })
        }
      }
    }
  }

  err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if _, err := s.courseRepo.Create(ctx, tx, []*types.Course{courseRow}); err != nil {
      return &apperr.PersistenceError{Entity: "courses", ParentID: courseID, Err: err}
    }
    if _, err := s.partRepo.Create(ctx, tx, partRows); err != nil {
      return &apperr.PersistenceError{Entity: "course_parts", Parent: "courses", ParentID: courseID, Err: err}
    }
    if _, err := s.lessonRepo.Create(ctx, tx, lessonRows); err != nil {
      return &apperr.PersistenceError{Entity: "course_lessons", Parent: "course_parts", ParentID: courseID, Err: err}
    }
    if _, err := s.contentRepo.Create(ctx, tx, contentRows); err != nil {
      return &apperr.PersistenceError{Entity: "lesson_content", Parent: "course_lessons", ParentID: courseID, Err: err}
    }
    if _, err := s.quizRepo.Create(ctx, tx, quizRows); err != nil {
      return &apperr.PersistenceError{Entity: "lesson_quizzes", Parent: "course_lessons", ParentID: courseID, Err: err}
    }
    if _, err := s.qstnRepo.Create(ctx, tx, questionRows); err != nil {
      return &apperr.PersistenceError{Entity: "quiz_questions", Parent: "lesson_quizzes", ParentID: courseID, Err: err}
    }
    if _, err := s.optRepo.Create(ctx, tx, optionRows); err != nil {
      return &apperr.PersistenceError{Entity: "quiz_options", Parent: "quiz_questions", ParentID: courseID, Err: err}
    }
    return nil
  })
  if err != nil {
    return uuid.Nil, err
  }

  s.log.Info("course saved",
    "course_id", courseID.String(),
    "parts", len(partRows),
    "lessons", len(lessonRows),
    "quizzes", len(quizRows),
  )
  return courseID, nil
}

// Load reconstructs the course tree level by level. Missing course returns
// (nil, nil). When duplicate content or quiz rows exist for a lesson, the
// oldest row wins.
func (s *coursePersistence) Load(ctx context.Context, courseID uuid.UUID) (*types.CourseStructure, error) {
  courseRows, err := s.courseRepo.GetByIDs(ctx, nil, []uuid.UUID{courseID})
  if err != nil {
    return nil, err
  }
  if len(courseRows) == 0 {
    return nil, nil
  }
  courseRow := courseRows[0]

  partRows, err := s.partRepo.GetByCourseIDs(ctx, nil, []uuid.UUID{courseID})
  if err != nil {
    return nil, err
  }

  partIDs := make([]uuid.UUID, 0, len(partRows))
  for _, p := range partRows {
    partIDs = append(partIDs, p.ID)
  }
  lessonRows, err := s.lessonRepo.GetByPartIDs(ctx, nil, partIDs)
  if err != nil {
    return nil, err
  }

  lessonIDs := make([]uuid.UUID, 0, len(lessonRows))
  for _, l := range lessonRows {
    lessonIDs = append(lessonIDs, l.ID)
  }
  contentRows, err := s.contentRepo.GetByLessonIDs(ctx, nil, lessonIDs)
  if err != nil {
    return nil, err
  }
  quizRows, err := s.quizRepo.GetByLessonIDs(ctx, nil, lessonIDs)
  if err != nil {
    return nil, err
  }

  quizIDs := make([]uuid.UUID, 0, len(quizRows))
  for _, q := range quizRows {
    quizIDs = append(quizIDs, q.ID)
  }
  questionRows, err := s.qstnRepo.GetByQuizIDs(ctx, nil, quizIDs)
  if err != nil {
    return nil, err
  }

  questionIDs := make([]uuid.UUID, 0, len(questionRows))
  for _, q := range questionRows {
    questionIDs = append(questionIDs, q.ID)
  }
  optionRows, err := s.optRepo.GetByQuestionIDs(ctx, nil, questionIDs)
  if err != nil {
    return nil, err
  }

  contentByLesson := make(map[uuid.UUID]*types.LessonContent, len(contentRows))
  for _, c := range contentRows {
    if _, ok := contentByLesson[c.LessonID]; !ok {
      contentByLesson[c.LessonID] = c
    }
  }
  quizByLesson := make(map[uuid.UUID]*types.LessonQuiz, len(quizRows))
  for _, q := range quizRows {
    if _, ok := quizByLesson[q.LessonID]; !ok {
      quizByLesson[q.LessonID] = q
    }
  }
  questionsByQuiz := make(map[uuid.UUID][]*types.QuizQuestion)
  for _, q := range questionRows {
    questionsByQuiz[q.QuizID] = append(questionsByQuiz[q.QuizID], q)
  }
  optionsByQuestion := make(map[uuid.UUID][]*types.QuizOption)
  for _, o := range optionRows {
    optionsByQuestion[o.QuestionID] = append(optionsByQuestion[o.QuestionID], o)
  }
  lessonsByPart := make(map[uuid.UUID][]*types.CourseLesson)
  for _, l := range lessonRows {
    lessonsByPart[l.PartID] = append(lessonsByPart[l.PartID], l)
  }

  course := &types.CourseStructure{
    ID:             idPtr(courseRow.ID),
    Title:          courseRow.Title,
    Description:    courseRow.Description,
    TargetAudience: courseRow.TargetAudience,
    Prerequisites:  fromJSON(courseRow.Prerequisites),
    TotalDuration:  courseRow.TotalDuration,
  }

  for _, partRow := range partRows {
    part := types.CoursePartV1{
      ID:            idPtr(partRow.ID),
      PartNumber:    partRow.PartNumber,
      Title:         partRow.Title,
      Description:   partRow.Description,
      LearningGoals: fromJSON(partRow.LearningGoals),
    }

    for _, lessonRow := range lessonsByPart[partRow.ID] {
      lesson := types.CourseLessonV1{
        ID:           idPtr(lessonRow.ID),
        LessonNumber: lessonRow.LessonNumber,
        Title:        lessonRow.Title,
        Description:  lessonRow.Description,
      }

      if contentRow, ok := contentByLesson[lessonRow.ID]; ok {
        content := &types.LessonContentV1{
          ID:                 idPtr(contentRow.ID),
          Title:              contentRow.Title,
          LearningObjectives: fromJSON(contentRow.LearningObjectives),
          Content:            contentRow.Content,
          KeyConcepts:        fromJSON(contentRow.KeyConcepts),
          Examples:           fromJSON(contentRow.Examples),
          Exercises:          fromJSON(contentRow.Exercises),
          EstimatedDuration:  contentRow.EstimatedDuration,
        }

        if quizRow, ok := quizByLesson[lessonRow.ID]; ok {
          quiz := &types.QuizV1{ID: idPtr(quizRow.ID)}
          for _, qRow := range questionsByQuiz[quizRow.ID] {
            question := types.QuizQuestionV1{
              ID:             idPtr(qRow.ID),
              QuestionNumber: qRow.QuestionNumber,
              Question:       qRow.Question,
              Explanation:    qRow.Explanation,
            }
            for _, oRow := range optionsByQuestion[qRow.ID] {
              question.Options = append(question.Options, types.QuizOptionV1{
                ID:           idPtr(oRow.ID),
                OptionLetter: oRow.OptionLetter,
                OptionText:   oRow.OptionText,
                IsCorrect:    oRow.IsCorrect,
              })
            }
            quiz.Questions = append(quiz.Questions, question)
          }
          content.Quiz = quiz
        }

        lesson.Content = content
      }

      part.Lessons = append(part.Lessons, lesson)
    }

    course.Parts = append(course.Parts, part)
  }

  return course, nil
}

func (s *coursePersistence) Delete(ctx context.Context, courseID uuid.UUID) error {
  return s.courseRepo.SoftDeleteByIDs(ctx, nil, []uuid.UUID{courseID})
}
