package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/dating-api/internal/domain"
)

// UsersListCacheKey holds the serialized user list.
const UsersListCacheKey = "dating-api:users:list"

// CachedUserRepository serves List from Redis and delegates everything else.
// Redis errors are logged and the call falls through to the wrapped repository.
type CachedUserRepository struct {
	UserRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedUserRepository wraps base with a read-through list cache.
func NewCachedUserRepository(base UserRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedUserRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedUserRepository{UserRepository: base, client: client, ttl: ttl, logger: logger}
}

// List returns the cached list or loads and stores it.
func (r *CachedUserRepository) List(ctx context.Context) ([]domain.User, error) {
	if r.client == nil || r.ttl <= 0 {
		return r.UserRepository.List(ctx)
	}

	raw, err := r.client.Get(ctx, UsersListCacheKey).Bytes()
	switch {
	case err == nil:
		var users []domain.User
		if err := json.Unmarshal(raw, &users); err == nil {
			return users, nil
		}
		r.logger.Warn("discarding corrupt users cache entry")
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("users cache read failed", zap.Error(err))
	}

	users, err := r.UserRepository.List(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(users)
	if err != nil {
		return users, nil
	}
	if err := r.client.Set(ctx, UsersListCacheKey, payload, r.ttl).Err(); err != nil {
		r.logger.Warn("users cache write failed", zap.Error(err))
	}
	return users, nil
}

// Invalidate drops the cached list.
func (r *CachedUserRepository) Invalidate(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Del(ctx, UsersListCacheKey).Err()
}
