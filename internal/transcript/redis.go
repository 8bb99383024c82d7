package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// RedisStore keeps one Redis list per session; list order is append order.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStore pings the server before returning. A zero ttl keeps transcripts forever.
func NewRedisStore(ctx context.Context, client *redis.Client, ttl time.Duration) (*RedisStore, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{
		client: client,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *RedisStore) Append(ctx context.Context, sessionID string, role Role, text string) (Record, error) {
	if err := validate(sessionID, role, text); err != nil {
		return Record{}, err
	}

	key := s.sessionKey(sessionID)

	createdAt := s.now()
	last, err := s.client.LIndex(ctx, key, -1).Result()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return Record{}, fmt.Errorf("read last message: %w", err)
	default:
		var prev Record
		if err := json.Unmarshal([]byte(last), &prev); err == nil {
			createdAt = nextTimestamp(createdAt, prev.CreatedAt)
		}
	}

	rec := Record{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Text:      text,
		CreatedAt: createdAt,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return Record{}, err
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return Record{}, fmt.Errorf("append message: %w", err)
	}

	return rec, nil
}

func (s *RedisStore) FetchHistory(ctx context.Context, sessionID string) ([]Record, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}

	raw, err := s.client.LRange(ctx, s.sessionKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("get session messages: %w", err)
	}

	out := make([]Record, 0, len(raw))
	for _, item := range raw {
		var rec Record
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal message: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *RedisStore) sessionKey(sessionID string) string {
	return fmt.Sprintf("chat:session:%s:messages", sessionID)
}
