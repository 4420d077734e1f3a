package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisSessionPrefix = "moviestore:session:"
	redisUserPrefix    = "moviestore:user-sessions:"
)

// RedisStore keeps sessions as JSON values that expire with the session.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

type redisRecord struct {
	UserID    string  `json:"user_id,omitempty"`
	IsAdmin   bool    `json:"is_admin"`
	ExpiresAt int64   `json:"expires_at"`
	Data      Payload `json:"data"`
}

func (st *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := st.rdb.Get(ctx, redisSessionPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	var rec redisRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &Session{
		ID:        id,
		UserID:    rec.UserID,
		IsAdmin:   rec.IsAdmin,
		ExpiresAt: time.Unix(rec.ExpiresAt, 0),
		Data:      rec.Data,
	}, nil
}

func (st *RedisStore) Save(ctx context.Context, s *Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return st.Delete(ctx, s.ID)
	}
	raw, err := json.Marshal(redisRecord{
		UserID:    s.UserID,
		IsAdmin:   s.IsAdmin,
		ExpiresAt: s.ExpiresAt.Unix(),
		Data:      s.Data,
	})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	pipe := st.rdb.TxPipeline()
	pipe.Set(ctx, redisSessionPrefix+s.ID, raw, ttl)
	if s.UserID != "" {
		pipe.SAdd(ctx, redisUserPrefix+s.UserID, s.ID)
		pipe.Expire(ctx, redisUserPrefix+s.UserID, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (st *RedisStore) Delete(ctx context.Context, id string) error {
	return st.rdb.Del(ctx, redisSessionPrefix+id).Err()
}

func (st *RedisStore) DeleteByUser(ctx context.Context, userID string) error {
	ids, err := st.rdb.SMembers(ctx, redisUserPrefix+userID).Result()
	if err != nil {
		return fmt.Errorf("failed to list user sessions: %w", err)
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, redisSessionPrefix+id)
	}
	keys = append(keys, redisUserPrefix+userID)
	return st.rdb.Del(ctx, keys...).Err()
}

// PurgeExpired is a no-op: Redis expires session keys on its own.
func (st *RedisStore) PurgeExpired(context.Context) (int64, error) {
	return 0, nil
}
