package service

import (
	"context"
	"strconv"
	"time"

	"github.com/hrcore/accounts/config"
	"github.com/hrcore/accounts/internal/constants"
	ctxutil "github.com/hrcore/accounts/pkg/context"
	"github.com/hrcore/accounts/pkg/logger"
	"github.com/hrcore/accounts/pkg/redis"
)

// AttemptTracker counts failed password checks per email in redis. The
// counter is windowed: every failure refreshes the TTL, and an untouched
// counter evaporates when it runs out. The tracker only counts; the lock
// itself lives on the user row.
type AttemptTracker struct {
	redis       *redis.Client
	maxAttempts int
	window      time.Duration
}

func NewAttemptTracker(client *redis.Client, cfg config.LockoutConfig) *AttemptTracker {
	return &AttemptTracker{
		redis:       client,
		maxAttempts: cfg.MaxAttempts,
		window:      cfg.Window,
	}
}

func attemptKey(email string) string {
	return constants.KeyLoginAttempts + email
}

// RecordFailure increments the counter for email and reports whether the
// threshold has been reached. Each failure refreshes the TTL, so the counter
// only expires after a full quiet window. Increment and expiry run in one
// transaction; a counter without a TTL would soft-lock the identity for good.
func (t *AttemptTracker) RecordFailure(ctx context.Context, email string) (int64, bool, error) {
	ctx = ctxutil.WithOperation(ctx, "attempts", "RecordFailure")

	count, err := t.redis.IncrExpire(ctx, attemptKey(email), t.window)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to record login failure").
			String("email", email).
			Err(err).
			Log()
		return 0, false, err
	}

	if count >= int64(t.maxAttempts) {
		logger.WarnWithContext(ctx, "Login attempt threshold reached").
			String("email", email).
			Int64("attempt_count", count).
			Log()
		return count, true, nil
	}

	return count, false, nil
}

// Remaining reports how many failures are left before lockout.
func (t *AttemptTracker) Remaining(ctx context.Context, email string) (int, error) {
	value, found, err := t.redis.Get(ctx, attemptKey(email))
	if err != nil {
		return 0, err
	}
	if !found {
		return t.maxAttempts, nil
	}

	count, err := strconv.Atoi(value)
	if err != nil {
		return t.maxAttempts, nil
	}

	remaining := t.maxAttempts - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Reset clears the counter after a successful authentication.
func (t *AttemptTracker) Reset(ctx context.Context, email string) error {
	return t.redis.Delete(ctx, attemptKey(email))
}
