package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rolliedev/ticketflow/internal/domain"
)

// CachedUserRepository is a read-through cache in front of the user
// directory. Identity and role are immutable once created, so cached entries
// only ever go stale on profile fields this service does not act on.
type CachedUserRepository struct {
	inner  UserRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedUserRepository wraps inner with a redis cache. A nil client
// disables caching and all calls pass through.
func NewCachedUserRepository(inner UserRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) UserRepository {
	if client == nil || ttl <= 0 {
		return inner
	}
	return &CachedUserRepository{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (r *CachedUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := r.inner.Create(ctx, user); err != nil {
		return err
	}
	r.store(ctx, user)
	return nil
}

func (r *CachedUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if cached, ok := r.lookup(ctx, id); ok {
		return cached, nil
	}
	user, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, user)
	return user, nil
}

func (r *CachedUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	// Email lookups happen only on login; not worth a second cache key.
	return r.inner.GetByEmail(ctx, email)
}

func (r *CachedUserRepository) lookup(ctx context.Context, id string) (*domain.User, bool) {
	raw, err := r.client.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("user cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		r.logger.Warn("user cache entry corrupt", zap.String("user_id", id), zap.Error(err))
		return nil, false
	}
	return &user, true
}

func (r *CachedUserRepository) store(ctx context.Context, user *domain.User) {
	raw, err := json.Marshal(user)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, cacheKey(user.ID), raw, r.ttl).Err(); err != nil {
		r.logger.Warn("user cache write failed", zap.Error(err))
	}
}

func cacheKey(id string) string {
	return "ticketflow:user:" + id
}
