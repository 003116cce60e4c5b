package main

import (
  "context"
  "fmt"
  "os"
  "os/signal"
  "syscall"

  "github.com/joho/godotenv"

  "github.com/courseforge/courseforge-backend/internal/config"
  "github.com/courseforge/courseforge-backend/internal/db"
  "github.com/courseforge/courseforge-backend/internal/logger"
  "github.com/courseforge/courseforge-backend/internal/observability"
  "github.com/courseforge/courseforge-backend/internal/repos"
  "github.com/courseforge/courseforge-backend/internal/services"
  "github.com/courseforge/courseforge-backend/internal/sse"
  "github.com/courseforge/courseforge-backend/internal/utils"
)

func main() {
  _ = godotenv.Load()

  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
  defer stop()

  // Tracing
  shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
    ServiceName: "courseforge-backend",
    Environment: utils.GetEnv("ENVIRONMENT", "development", log),
  })
  defer func() {
    if err := shutdownOTel(context.Background()); err != nil {
      log.Warn("otel shutdown error", "error", err.Error())
    }
  }()

  // Pipeline config
  cfgPath := utils.GetEnv("PIPELINE_CONFIG_PATH", "", log)
  cfg, err := config.Load(cfgPath)
  if err != nil {
    log.Fatal("Failed to load pipeline config", "error", err.Error())
  }

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Fatal("Failed to init postgres", "error", err.Error())
  }
  defer postgresService.Close()
  if err := postgresService.AutoMigrateAll(); err != nil {
    log.Fatal("Failed to run migrations", "error", err.Error())
  }
  gormDB := postgresService.DB()

  // Repos
  courseRepo := repos.NewCourseRepo(gormDB, log)
  partRepo := repos.NewCoursePartRepo(gormDB, log)
  lessonRepo := repos.NewCourseLessonRepo(gormDB, log)
  contentRepo := repos.NewLessonContentRepo(gormDB, log)
  quizRepo := repos.NewLessonQuizRepo(gormDB, log)
  questionRepo := repos.NewQuizQuestionRepo(gormDB, log)
  optionRepo := repos.NewQuizOptionRepo(gormDB, log)
  runRepo := repos.NewCourseGenerationRunRepo(gormDB, log)

  // SSE hub + cross-instance bus
  hub := sse.NewSSEHub(log)
  var bus sse.Bus
  if os.Getenv("REDIS_ADDR") != "" {
    bus, err = sse.NewRedisBus(log)
    if err != nil {
      log.Fatal("Failed to init redis bus", "error", err.Error())
    }
    defer bus.Close()
    if err := bus.StartForwarder(ctx, hub.Broadcast); err != nil {
      log.Fatal("Failed to start bus forwarder", "error", err.Error())
    }
  }

  // AI + generation services
  aiClient, err := services.NewOpenAIClient(log)
  if err != nil {
    log.Fatal("Failed to init openai client", "error", err.Error())
  }

  var knowledge services.KnowledgeService
  if os.Getenv("GOOGLE_SEARCH_API_KEY") != "" {
    knowledge, err = services.NewGoogleKnowledgeService(ctx, log)
    if err != nil {
      log.Fatal("Failed to init google search", "error", err.Error())
    }
  } else {
    knowledge = services.NewAIKnowledgeService(aiClient, log)
  }

  prompts := services.NewPromptBuilder(&cfg)
  validator := services.NewSchemaValidator(&cfg)
  contentGen := services.NewContentGenerator(aiClient, prompts, validator, &cfg, log)
  pipeline := services.NewGenerationPipeline(aiClient, knowledge, prompts, validator, contentGen, &cfg, log)
  persistence := services.NewCoursePersistence(
    gormDB, courseRepo, partRepo, lessonRepo, contentRepo, quizRepo, questionRepo, optionRepo, log)
  generation := services.NewCourseGenerationService(pipeline, persistence, runRepo, hub, bus, log)

  // Optional one-shot enqueue for local runs
  if topic := os.Getenv("GENERATE_TOPIC"); topic != "" {
    webSearch := utils.GetEnvAsBool("GENERATE_WEB_SEARCH", false, log)
    run, err := generation.Enqueue(ctx, topic, webSearch, nil)
    if err != nil {
      log.Fatal("Failed to enqueue generation run", "error", err.Error())
    }
    log.Info("Enqueued generation run", "run_id", run.ID.String(), "topic", topic)
  }

  go generation.StartWorker(ctx)

  log.Info("courseforge-backend started")
  <-ctx.Done()
  log.Info("shutting down")
}
