package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TouchLoginJob stamps last_login off the request path so the login response
// never waits on, or fails because of, the bookkeeping write.
type TouchLoginJob struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger
}

// NewTouchLoginJob wires dependencies for the touch handler.
func NewTouchLoginJob(pool *pgxpool.Pool, logger *slog.Logger) *TouchLoginJob {
	return &TouchLoginJob{Pool: pool, Logger: logger}
}

// Handle processes last_login touch tasks.
func (j *TouchLoginJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("touch login: handler not configured")
	}
	var payload TouchLoginPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.UserID <= 0 {
		return asynq.SkipRetry
	}
	_, err := j.Pool.Exec(ctx, `UPDATE users SET last_login = NOW() WHERE id = $1`, payload.UserID)
	if err != nil && j.Logger != nil {
		j.Logger.Warn("touch last_login", slog.Int64("user_id", payload.UserID), slog.Any("error", err))
	}
	return err
}
