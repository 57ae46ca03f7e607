package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/campus-fix/internal/domain"
)

const userCacheKeyPrefix = "campusfix:user:email:"

// cachedUser is the Redis representation of a user. Users are never
// mutated after registration, so entries only expire by TTL. The password
// hash is not cached; cached lookups only resolve token subjects.
type cachedUser struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	CollegeID string      `json:"college_id"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

type cachedUserRepository struct {
	UserRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedUserRepository wraps repo with a Redis read-through cache for
// email lookups, which back every authenticated request. A nil client or
// non-positive ttl disables caching.
func NewCachedUserRepository(repo UserRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) UserRepository {
	if client == nil || ttl <= 0 {
		return repo
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cachedUserRepository{UserRepository: repo, client: client, ttl: ttl, logger: logger}
}

func (r *cachedUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	key := userCacheKeyPrefix + email

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		user, decodeErr := decodeCachedUser(raw)
		if decodeErr == nil {
			return user, nil
		}
		r.logger.Warn("discarding corrupt user cache entry", zap.String("key", key), zap.Error(decodeErr))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("user cache read failed", zap.Error(err))
	}

	user, err := r.UserRepository.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if payload, encodeErr := encodeCachedUser(user); encodeErr == nil {
		if setErr := r.client.Set(ctx, key, payload, r.ttl).Err(); setErr != nil {
			r.logger.Warn("user cache write failed", zap.Error(setErr))
		}
	}
	return user, nil
}

func encodeCachedUser(user *domain.User) ([]byte, error) {
	return json.Marshal(cachedUser{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CollegeID: user.CollegeID,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	})
}

func decodeCachedUser(raw []byte) (*domain.User, error) {
	var entry cachedUser
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, err
	}
	if !entry.Role.Valid() || entry.ID == "" {
		return nil, errors.New("incomplete cache entry")
	}
	return &domain.User{
		ID:        entry.ID,
		Name:      entry.Name,
		Email:     entry.Email,
		CollegeID: entry.CollegeID,
		Role:      entry.Role,
		CreatedAt: entry.CreatedAt,
	}, nil
}
