package services

import (
  "context"
  "sync"
  "time"

  "github.com/courseforge/courseforge-backend/internal/logger"
  "github.com/courseforge/courseforge-backend/internal/sse"
)

// Progress event types emitted during course generation.
const (
  ProgressEventLog             = "log"
  ProgressEventProgress        = "progress"
  ProgressEventSuccess         = "success"
  ProgressEventError           = "error"
  ProgressEventCourseGenerated = "course_generated"
)

// ProgressEvent is the wire shape for generation progress. Data is optional
// structured payload keyed by event type (stage names, ids, counts).
type ProgressEvent struct {
  Type      string         `json:"type"`
  Message   string         `json:"message"`
  Data      map[string]any `json:"data,omitempty"`
  Timestamp time.Time      `json:"timestamp"`
}

// ProgressEmitter receives events from the pipeline as it runs. Emit must
// never block generation; slow consumers drop rather than stall.
type ProgressEmitter interface {
  Emit(event ProgressEvent)
}

// NewProgressEvent stamps the event with the current time.
func NewProgressEvent(eventType, message string, data map[string]any) ProgressEvent {
  return ProgressEvent{
    Type:      eventType,
    Message:   message,
    Data:      data,
    Timestamp: time.Now().UTC(),
  }
}

// ---- log emitter ----

type logEmitter struct {
  log *logger.Logger
}

func NewLogEmitter(log *logger.Logger) ProgressEmitter {
  return &logEmitter{log: log.With("service", "ProgressEmitter")}
}

func (e *logEmitter) Emit(event ProgressEvent) {
  switch event.Type {
  case ProgressEventError:
    e.log.Error("generation progress", "type", event.Type, "message", event.Message, "data", event.Data)
  default:
    e.log.Info("generation progress", "type", event.Type, "message", event.Message, "data", event.Data)
  }
}

// ---- hub emitter ----

type hubEmitter struct {
  hub     *sse.SSEHub
  channel string
}

// NewHubEmitter forwards events onto an SSE channel, typically keyed by the
// generation run id.
func NewHubEmitter(hub *sse.SSEHub, channel string) ProgressEmitter {
  return &hubEmitter{hub: hub, channel: channel}
}

func sseEventFor(eventType string) sse.SSEEvent {
  switch eventType {
  case ProgressEventError:
    return sse.SSEEventGenerationFailed
  case ProgressEventSuccess:
    return sse.SSEEventGenerationDone
  case ProgressEventCourseGenerated:
    return sse.SSEEventCourseGenerated
  default:
    return sse.SSEEventGenerationProgress
  }
}

func (e *hubEmitter) Emit(event ProgressEvent) {
  e.hub.Broadcast(sse.SSEMessage{
    Channel: e.channel,
    Event:   sseEventFor(event.Type),
    Data:    event,
  })
}

// ---- bus emitter ----

type busEmitter struct {
  bus     sse.Bus
  channel string
  log     *logger.Logger
}

// NewBusEmitter publishes events to the cross-instance bus so SSE hubs on
// other instances can forward them to their own subscribers.
func NewBusEmitter(bus sse.Bus, channel string, log *logger.Logger) ProgressEmitter {
  return &busEmitter{bus: bus, channel: channel, log: log.With("service", "BusEmitter")}
}

func (e *busEmitter) Emit(event ProgressEvent) {
  ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
  defer cancel()

  msg := sse.SSEMessage{
    Channel: e.channel,
    Event:   sseEventFor(event.Type),
    Data:    event,
  }
  if err := e.bus.Publish(ctx, msg); err != nil {
    e.log.Warn("failed to publish progress event", "error", err)
  }
}

// ---- multi emitter ----

type multiEmitter struct {
  emitters []ProgressEmitter
}

func NewMultiEmitter(emitters ...ProgressEmitter) ProgressEmitter {
  return &multiEmitter{emitters: emitters}
}

func (e *multiEmitter) Emit(event ProgressEvent) {
  for _, em := range e.emitters {
    em.Emit(event)
  }
}

// ---- capture emitter (tests) ----

// CaptureEmitter records every event it sees; safe for concurrent use.
type CaptureEmitter struct {
  mu     sync.Mutex
  events []ProgressEvent
}

func NewCaptureEmitter() *CaptureEmitter {
  return &CaptureEmitter{}
}

func (e *CaptureEmitter) Emit(event ProgressEvent) {
  e.mu.Lock()
  defer e.mu.Unlock()
  e.events = append(e.events, event)
}

func (e *CaptureEmitter) Events() []ProgressEvent {
  e.mu.Lock()
  defer e.mu.Unlock()
  out := make([]ProgressEvent, len(e.events))
  copy(out, e.events)
  return out
}

func (e *CaptureEmitter) EventsOfType(eventType string) []ProgressEvent {
  e.mu.Lock()
  defer e.mu.Unlock()
  var out []ProgressEvent
  for _, ev := range e.events {
    if ev.Type == eventType {
      out = append(out, ev)
    }
  }
  return out
}
