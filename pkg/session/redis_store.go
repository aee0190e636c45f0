package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/windlogs/notifykit/pkg/redis"
)

// RedisStore keeps the context as a JSON document under a single key.
type RedisStore struct {
	storage *redis.Storage
	key     string
	ttl     time.Duration
}

// NewRedisStore creates a store backed by storage. A zero ttl keeps the key
// until it is deleted.
func NewRedisStore(storage *redis.Storage, key string, ttl time.Duration) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{storage: storage, key: key, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context) (Context, error) {
	raw, err := s.storage.Get(ctx, s.key)
	if err != nil {
		return Context{}, errors.Join(ErrStore, err)
	}
	if raw == nil {
		return Context{}, ErrNotFound
	}

	var c Context
	if err := json.Unmarshal(raw, &c); err != nil {
		return Context{}, errors.Join(ErrDecode, err)
	}
	return c, nil
}

func (s *RedisStore) Save(ctx context.Context, c Context) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return errors.Join(ErrStore, err)
	}
	if err := s.storage.Set(ctx, s.key, raw, s.ttl); err != nil {
		return errors.Join(ErrStore, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context) error {
	if err := s.storage.Delete(ctx, s.key); err != nil {
		return errors.Join(ErrStore, err)
	}
	return nil
}
