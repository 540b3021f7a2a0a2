package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "anima:memory:"

// RedisStore persists memory in Redis, one JSON value per persona. Useful
// when several runtime instances share the same personas.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisStoreFromAddr dials Redis and verifies the connection.
func NewRedisStoreFromAddr(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return &RedisStore{client: client}, nil
}

func (rs *RedisStore) key(personaID string) string {
	return redisKeyPrefix + personaID
}

func (rs *RedisStore) Load(ctx context.Context, personaID string) (map[string][]Entry, error) {
	raw, err := rs.client.Get(ctx, rs.key(personaID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return map[string][]Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load memory for %s: %w", personaID, err)
	}

	var days map[string][]Entry
	if err := json.Unmarshal(raw, &days); err != nil {
		return nil, fmt.Errorf("decode memory for %s: %w", personaID, err)
	}
	if days == nil {
		days = map[string][]Entry{}
	}
	return days, nil
}

func (rs *RedisStore) Save(ctx context.Context, personaID string, days map[string][]Entry) error {
	raw, err := json.Marshal(days)
	if err != nil {
		return fmt.Errorf("encode memory for %s: %w", personaID, err)
	}
	if err := rs.client.Set(ctx, rs.key(personaID), raw, 0).Err(); err != nil {
		return fmt.Errorf("save memory for %s: %w", personaID, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}
