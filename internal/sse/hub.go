package sse

import (
  "strings"
  "sync"

  "github.com/google/uuid"

  "github.com/courseforge/courseforge-backend/internal/logger"
)

type SSEEvent string

const (
  SSEEventGenerationProgress SSEEvent = "CourseGenerationProgress"
  SSEEventGenerationFailed   SSEEvent = "CourseGenerationFailed"
  SSEEventGenerationDone     SSEEvent = "CourseGenerationDone"
  SSEEventCourseGenerated    SSEEvent = "CourseGenerated"
)

type SSEMessage struct {
  Channel string   `json:"channel"`
  Event   SSEEvent `json:"event"`
  Data    any      `json:"data,omitempty"`
}

// SSEClient is one subscriber. The transport that drains Outbound (HTTP
// handler, websocket bridge, test harness) lives outside this package.
type SSEClient struct {
  ID       uuid.UUID
  Channels map[string]bool
  Outbound chan SSEMessage
  done     chan struct{}
}

func (c *SSEClient) Done() <-chan struct{} { return c.done }

type SSEHub struct {
  mu            sync.RWMutex
  logger        *logger.Logger
  subscriptions map[string]map[*SSEClient]bool
}

func NewSSEHub(log *logger.Logger) *SSEHub {
  return &SSEHub{
    logger:        log.With("component", "SSEHub"),
    subscriptions: make(map[string]map[*SSEClient]bool),
  }
}

func (hub *SSEHub) NewSSEClient() *SSEClient {
  return &SSEClient{
    ID:       uuid.New(),
    Channels: make(map[string]bool),
    Outbound: make(chan SSEMessage, 32),
    done:     make(chan struct{}),
  }
}

func (hub *SSEHub) AddChannel(client *SSEClient, channel string) {
  hub.mu.Lock()
  defer hub.mu.Unlock()

  channel = strings.TrimSpace(channel)
  if channel == "" {
    return
  }
  client.Channels[channel] = true

  clients, exists := hub.subscriptions[channel]
  if !exists {
    clients = make(map[*SSEClient]bool)
    hub.subscriptions[channel] = clients
  }
  clients[client] = true

  hub.logger.Debug("SSE client subscribed", "clientID", client.ID, "channel", channel)
}

func (hub *SSEHub) RemoveClient(client *SSEClient) {
  hub.mu.Lock()
  defer hub.mu.Unlock()

  for ch := range client.Channels {
    if subMap, ok := hub.subscriptions[ch]; ok {
      delete(subMap, client)
      if len(subMap) == 0 {
        delete(hub.subscriptions, ch)
      }
    }
  }
  client.Channels = make(map[string]bool)
}

func (hub *SSEHub) Broadcast(msg SSEMessage) {
  hub.mu.RLock()
  defer hub.mu.RUnlock()

  if msg.Channel == "" {
    return
  }
  clientsMap, ok := hub.subscriptions[msg.Channel]
  if !ok {
    return
  }
  for c := range clientsMap {
    select {
    case c.Outbound <- msg:
    default:
      hub.logger.Warn("Dropping SSE message; outbound buffer full", "clientID", c.ID)
    }
  }
}

func (hub *SSEHub) CloseClient(client *SSEClient) {
  close(client.done)
  hub.RemoveClient(client)
  close(client.Outbound)
}
