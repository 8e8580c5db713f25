package token

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/plefebvre/task-api/internal"
)

const refreshKeyPrefix = "refresh:"

// RedisStore implements RefreshStore on Redis, keys expire together with the
// tokens they track.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore ...
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
	}
}

// Save records a refresh token identifier.
func (s *RedisStore) Save(ctx context.Context, jti string, userID int64, ttl time.Duration) error {
	if err := s.client.Set(ctx, refreshKeyPrefix+jti, userID, ttl).Err(); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "client.Set")
	}

	return nil
}

// Take consumes a refresh token identifier, reporting whether it was still
// outstanding. Deleting on read makes every refresh token single use.
func (s *RedisStore) Take(ctx context.Context, jti string) (bool, error) {
	deleted, err := s.client.Del(ctx, refreshKeyPrefix+jti).Result()
	if err != nil {
		return false, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "client.Del")
	}

	return deleted > 0, nil
}
