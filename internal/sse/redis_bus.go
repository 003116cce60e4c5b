package sse

import (
  "context"
  "encoding/json"
  "fmt"
  "os"
  "strings"
  "time"

  goredis "github.com/redis/go-redis/v9"

  "github.com/courseforge/courseforge-backend/internal/logger"
)

// Bus fans progress messages out across processes. A forwarder on each node
// re-broadcasts received messages into the local hub.
type Bus interface {
  Publish(ctx context.Context, msg SSEMessage) error
  StartForwarder(ctx context.Context, onMsg func(m SSEMessage)) error
  Close() error
}

type redisBus struct {
  log     *logger.Logger
  rdb     *goredis.Client
  channel string
}

func NewRedisBus(log *logger.Logger) (Bus, error) {
  if log == nil {
    return nil, fmt.Errorf("logger required")
  }

  addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
  if addr == "" {
    return nil, fmt.Errorf("missing REDIS_ADDR")
  }
  ch := strings.TrimSpace(os.Getenv("REDIS_CHANNEL"))
  if ch == "" {
    ch = "coursegen"
  }

  rdb := goredis.NewClient(&goredis.Options{
    Addr:        addr,
    DialTimeout: 5 * time.Second,
  })

  ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
  defer cancel()
  if err := rdb.Ping(ctx).Err(); err != nil {
    _ = rdb.Close()
    return nil, fmt.Errorf("redis ping: %w", err)
  }

  return &redisBus{
    log:     log.With("service", "RedisBus"),
    rdb:     rdb,
    channel: ch,
  }, nil
}

func (b *redisBus) Publish(ctx context.Context, msg SSEMessage) error {
  if b == nil || b.rdb == nil {
    return fmt.Errorf("redis bus not initialized")
  }
  raw, err := json.Marshal(msg)
  if err != nil {
    return err
  }
  return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *redisBus) StartForwarder(ctx context.Context, onMsg func(m SSEMessage)) error {
  if b == nil || b.rdb == nil {
    return fmt.Errorf("redis bus not initialized")
  }
  if onMsg == nil {
    return fmt.Errorf("onMsg callback required")
  }

  sub := b.rdb.Subscribe(ctx, b.channel)
  // ensures the subscription actually started
  if _, err := sub.Receive(ctx); err != nil {
    _ = sub.Close()
    return fmt.Errorf("redis subscribe: %w", err)
  }

  go func() {
    defer func() { _ = sub.Close() }()
    ch := sub.Channel()
    for {
      select {
      case <-ctx.Done():
        return
      case m, ok := <-ch:
        if !ok {
          return
        }
        var msg SSEMessage
        if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
          b.log.Warn("Dropping malformed bus message", "error", err)
          continue
        }
        onMsg(msg)
      }
    }
  }()
  return nil
}

func (b *redisBus) Close() error {
  if b == nil || b.rdb == nil {
    return nil
  }
  return b.rdb.Close()
}
