// Package redisstream fans committed audit entries out to a Redis stream so
// other services can follow project activity.
package redisstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
	"workcore/pkg/domain"

	"github.com/redis/go-redis/v9"
)

// DefaultStream is used when no stream name is configured.
const DefaultStream = "workcore:audit"

// Config selects the Redis server and stream.
type Config struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Stream   string `yaml:"stream"`
	// MaxLen caps the stream with approximate trimming. Zero keeps everything.
	MaxLen int64 `yaml:"max_len"`
}

// Publisher appends audit entries with XADD.
type Publisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewClient builds a go-redis client for cfg.
func NewClient(cfg Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// New wraps an existing client.
func New(client *redis.Client, stream string, maxLen int64) (*Publisher, error) {
	if client == nil {
		return nil, errors.New("redisstream: client is required")
	}
	if stream == "" {
		stream = DefaultStream
	}
	return &Publisher{client: client, stream: stream, maxLen: maxLen}, nil
}

// Stream returns the stream key entries are written to.
func (p *Publisher) Stream() string { return p.stream }

// Publish writes every entry in one pipeline. Each stream message carries the
// action, project and the JSON encoded entry.
func (p *Publisher) Publish(ctx context.Context, entries []domain.AuditLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	pipe := p.client.Pipeline()
	for _, e := range entries {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal audit entry %s: %w", e.ID, err)
		}
		args := &redis.XAddArgs{
			Stream: p.stream,
			Values: map[string]any{
				"id":         e.ID,
				"action":     e.Action,
				"project_id": e.ProjectID,
				"actor_id":   e.ActorID,
				"created_at": strconv.FormatInt(e.CreatedAt.UnixMilli(), 10),
				"entry":      payload,
			},
		}
		if p.maxLen > 0 {
			args.MaxLen = p.maxLen
			args.Approx = true
		}
		pipe.XAdd(ctx, args)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("xadd %d entries to %s: %w", len(entries), p.stream, err)
	}
	return nil
}

// Message is one decoded stream record.
type Message struct {
	StreamID string
	Entry    domain.AuditLogEntry
}

// Tail returns up to count of the newest messages, oldest first.
func (p *Publisher) Tail(ctx context.Context, count int64) ([]Message, error) {
	if count <= 0 {
		count = 10
	}
	raw, err := p.client.XRevRangeN(ctx, p.stream, "+", "-", count).Result()
	if err != nil {
		return nil, fmt.Errorf("xrevrange %s: %w", p.stream, err)
	}
	out := make([]Message, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		msg, err := decode(raw[i])
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}

func decode(x redis.XMessage) (Message, error) {
	body, ok := x.Values["entry"].(string)
	if !ok {
		return Message{}, fmt.Errorf("stream message %s has no entry field", x.ID)
	}
	var entry domain.AuditLogEntry
	if err := json.Unmarshal([]byte(body), &entry); err != nil {
		return Message{}, fmt.Errorf("decode stream message %s: %w", x.ID, err)
	}
	return Message{StreamID: x.ID, Entry: entry}, nil
}

// Ping reports whether the server is reachable within timeout.
func (p *Publisher) Ping(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (p *Publisher) Close() error { return p.client.Close() }
