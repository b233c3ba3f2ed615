package service

import (
	"context"
	"time"

	"github.com/hrcore/accounts/internal/constants"
	"github.com/hrcore/accounts/internal/model"
	ctxutil "github.com/hrcore/accounts/pkg/context"
	"github.com/hrcore/accounts/pkg/logger"
	"github.com/hrcore/accounts/pkg/redis"
)

const userCacheTTL = time.Hour

// CacheService is the read-through cache for user records, keyed by email.
// The cache is an optimization only: every mutation invalidates, and a miss
// or a redis failure falls back to the store.
type CacheService struct {
	redisClient *redis.Client
}

func NewCacheService(redisClient *redis.Client) *CacheService {
	return &CacheService{redisClient: redisClient}
}

func userCacheKey(email string) string {
	return constants.CacheKeyUser + email
}

// GetUser returns the cached user for email, or nil on a miss. Redis
// failures degrade to a miss.
func (s *CacheService) GetUser(ctx context.Context, email string) *model.User {
	if s.redisClient == nil {
		return nil
	}
	ctx = ctxutil.WithOperation(ctx, "cache", "GetUser")

	var user model.User
	found, err := s.redisClient.GetJSON(ctx, userCacheKey(email), &user)
	if err != nil || !found {
		return nil
	}

	logger.DebugWithContext(ctx, "User cache hit").
		String("email", email).
		Log()

	return &user
}

// SetUser stores the user under its email key. Failures are logged and
// swallowed; the store remains the source of truth.
func (s *CacheService) SetUser(ctx context.Context, user *model.User) {
	if s.redisClient == nil || user == nil {
		return
	}
	ctx = ctxutil.WithOperation(ctx, "cache", "SetUser")

	if err := s.redisClient.SetJSON(ctx, userCacheKey(user.Email), user, userCacheTTL); err != nil {
		logger.WarnWithContext(ctx, "Failed to cache user").
			String("email", user.Email).
			Err(err).
			Log()
	}
}

// InvalidateUser drops the cached record for email. Called on every user
// mutation before the new state is read back.
func (s *CacheService) InvalidateUser(ctx context.Context, email string) {
	if s.redisClient == nil {
		return
	}
	ctx = ctxutil.WithOperation(ctx, "cache", "InvalidateUser")

	if err := s.redisClient.Delete(ctx, userCacheKey(email)); err != nil {
		logger.WarnWithContext(ctx, "Failed to invalidate user cache").
			String("email", email).
			Err(err).
			Log()
	}
}
