package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hrcore/accounts/config"
	"github.com/hrcore/accounts/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return mr, redis.NewFromClient(rdb)
}

func newTestTracker(t *testing.T) (*miniredis.Miniredis, *AttemptTracker) {
	t.Helper()

	mr, client := newTestRedis(t)
	tracker := NewAttemptTracker(client, config.LockoutConfig{
		MaxAttempts: 5,
		Window:      time.Hour,
	})
	return mr, tracker
}

func TestRecordFailureLocksAtThreshold(t *testing.T) {
	_, tracker := newTestTracker(t)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		count, locked, err := tracker.RecordFailure(ctx, "user@example.com")
		if err != nil {
			t.Fatalf("RecordFailure #%d: %v", i, err)
		}
		if locked {
			t.Fatalf("locked after %d failures, want threshold 5", i)
		}
		if count != int64(i) {
			t.Errorf("count = %d, want %d", count, i)
		}
	}

	_, locked, err := tracker.RecordFailure(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("RecordFailure #5: %v", err)
	}
	if !locked {
		t.Error("not locked after 5 failures")
	}
}

func TestAttemptWindowExpires(t *testing.T) {
	mr, tracker := newTestTracker(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if _, _, err := tracker.RecordFailure(ctx, "user@example.com"); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}

	// The whole window passes without another failure
	mr.FastForward(time.Hour + time.Minute)

	count, locked, err := tracker.RecordFailure(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("RecordFailure after window: %v", err)
	}
	if locked {
		t.Error("locked after window expiry")
	}
	if count != 1 {
		t.Errorf("count = %d, want fresh counter at 1", count)
	}
}

func TestEachFailureRefreshesWindow(t *testing.T) {
	mr, tracker := newTestTracker(t)
	ctx := context.Background()

	if _, _, err := tracker.RecordFailure(ctx, "user@example.com"); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	mr.FastForward(45 * time.Minute)
	if _, _, err := tracker.RecordFailure(ctx, "user@example.com"); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}

	// Past the first failure's window, but the second refreshed it
	mr.FastForward(45 * time.Minute)

	count, _, err := tracker.RecordFailure(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3: each failure refreshes the window", count)
	}
}

func TestFailureCounterAlwaysExpires(t *testing.T) {
	mr, tracker := newTestTracker(t)
	ctx := context.Background()

	// A counter key without a TTL would lock the identity out until a
	// successful login; every failure must leave the expiry in place.
	for i := 1; i <= 3; i++ {
		if _, _, err := tracker.RecordFailure(ctx, "user@example.com"); err != nil {
			t.Fatalf("RecordFailure #%d: %v", i, err)
		}
		ttl := mr.TTL(attemptKey("user@example.com"))
		if ttl <= 0 || ttl > time.Hour {
			t.Fatalf("TTL after failure #%d = %v, want within the hour window", i, ttl)
		}
	}
}

func TestResetClearsCounter(t *testing.T) {
	_, tracker := newTestTracker(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, _, err := tracker.RecordFailure(ctx, "user@example.com"); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}

	if err := tracker.Reset(ctx, "user@example.com"); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	remaining, err := tracker.Remaining(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	if remaining != 5 {
		t.Errorf("remaining = %d, want 5 after reset", remaining)
	}

	count, _, err := tracker.RecordFailure(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1 after reset", count)
	}
}

func TestRemainingCountsDown(t *testing.T) {
	_, tracker := newTestTracker(t)
	ctx := context.Background()

	remaining, err := tracker.Remaining(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	if remaining != 5 {
		t.Errorf("remaining = %d, want 5 with no failures", remaining)
	}

	for i := 0; i < 2; i++ {
		if _, _, err := tracker.RecordFailure(ctx, "user@example.com"); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}

	remaining, err = tracker.Remaining(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	if remaining != 3 {
		t.Errorf("remaining = %d, want 3", remaining)
	}
}
