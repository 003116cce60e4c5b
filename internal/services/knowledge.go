package services

import (
  "context"
  "fmt"
  "os"
  "strings"

  customsearch "google.golang.org/api/customsearch/v1"
  "google.golang.org/api/option"

  "github.com/courseforge/courseforge-backend/internal/apperr"
  "github.com/courseforge/courseforge-backend/internal/logger"
)

// KnowledgeService gathers background material on a subject before structure
// extraction. Implementations may call external search APIs; a failed gather
// degrades to empty knowledge rather than failing the pipeline.
type KnowledgeService interface {
  Gather(ctx context.Context, topic string) (string, error)
}

// ---- model web-search implementation ----

type aiKnowledgeService struct {
  ai  OpenAIClient
  log *logger.Logger
}

// NewAIKnowledgeService gathers knowledge through the model's own web-search
// tool. This is the default when no search API credentials are configured.
func NewAIKnowledgeService(ai OpenAIClient, log *logger.Logger) KnowledgeService {
  return &aiKnowledgeService{ai: ai, log: log.With("service", "AIKnowledgeService")}
}

func (s *aiKnowledgeService) Gather(ctx context.Context, topic string) (string, error) {
  system := strings.TrimSpace(`
You are a research assistant. Search the web for current, reliable material on
the given subject and summarize what a course on it should cover: main
subtopics, common learning paths, typical prerequisites, and notable recent
developments. Keep the summary under 800 words.
`)
  text, err := s.ai.GenerateWithWebSearch(ctx, system, "Subject: "+topic)
  if err != nil {
    return "", &apperr.ExternalCallError{Call: "openai.web_search", Err: err}
  }
  return text, nil
}

// ---- google custom search implementation ----

type googleKnowledgeService struct {
  svc      *customsearch.Service
  engineID string
  log      *logger.Logger
}

// NewGoogleKnowledgeService gathers knowledge through the Google Custom
// Search JSON API. Requires GOOGLE_SEARCH_API_KEY and GOOGLE_SEARCH_ENGINE_ID.
func NewGoogleKnowledgeService(ctx context.Context, log *logger.Logger) (KnowledgeService, error) {
  apiKey := os.Getenv("GOOGLE_SEARCH_API_KEY")
  engineID := os.Getenv("GOOGLE_SEARCH_ENGINE_ID")
  if apiKey == "" || engineID == "" {
    return nil, fmt.Errorf("missing GOOGLE_SEARCH_API_KEY or GOOGLE_SEARCH_ENGINE_ID")
  }

  svc, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
  if err != nil {
    return nil, fmt.Errorf("failed to init customsearch service: %w", err)
  }

  return &googleKnowledgeService{
    svc:      svc,
    engineID: engineID,
    log:      log.With("service", "GoogleKnowledgeService"),
  }, nil
}

func (s *googleKnowledgeService) Gather(ctx context.Context, topic string) (string, error) {
  resp, err := s.svc.Cse.List().
    Cx(s.engineID).
    Q(topic + " course curriculum topics").
    Num(8).
    Context(ctx).
    Do()
  if err != nil {
    return "", &apperr.ExternalCallError{Call: "google.customsearch", Err: err}
  }

  var b strings.Builder
  for _, item := range resp.Items {
    fmt.Fprintf(&b, "- %s\n  %s\n  %s\n", item.Title, item.Link, item.Snippet)
  }
  if b.Len() == 0 {
    s.log.Warn("custom search returned no results", "topic", topic)
  }
  return b.String(), nil
}

// ---- noop implementation ----

type noopKnowledgeService struct{}

// NewNoopKnowledgeService is used when web search is disabled for a run.
func NewNoopKnowledgeService() KnowledgeService {
  return &noopKnowledgeService{}
}

func (s *noopKnowledgeService) Gather(ctx context.Context, topic string) (string, error) {
  return "", nil
}
