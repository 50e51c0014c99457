package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Throttle limits login attempts per tenant/email/IP using a redis counter
// with a sliding TTL window. It fails open when redis is unreachable so an
// outage never locks everyone out.
type Throttle struct {
	client *redis.Client
	limit  int64
	window time.Duration
	logger *slog.Logger
}

// NewThrottle constructs a Throttle.
func NewThrottle(client *redis.Client, limit int64, window time.Duration, logger *slog.Logger) *Throttle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Throttle{client: client, limit: limit, window: window, logger: logger}
}

func (t *Throttle) key(tenantID int64, email, ip string) string {
	return fmt.Sprintf("login_attempts:%d:%s:%s", tenantID, email, ip)
}

// Allow reports whether another attempt is permitted.
func (t *Throttle) Allow(ctx context.Context, tenantID int64, email, ip string) bool {
	if t == nil || t.client == nil {
		return true
	}
	key := t.key(tenantID, email, ip)
	count, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		t.logger.Warn("login throttle unavailable", slog.Any("error", err))
		return true
	}
	if count == 1 {
		if err := t.client.Expire(ctx, key, t.window).Err(); err != nil {
			t.logger.Warn("login throttle expire", slog.Any("error", err))
		}
	}
	return count <= t.limit
}

// Reset clears the attempt counter after a successful login.
func (t *Throttle) Reset(ctx context.Context, tenantID int64, email, ip string) {
	if t == nil || t.client == nil {
		return
	}
	if err := t.client.Del(ctx, t.key(tenantID, email, ip)).Err(); err != nil {
		t.logger.Warn("login throttle reset", slog.Any("error", err))
	}
}
