package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/chatlift/chatlift/internal/shared"
)

// AuditPruneJob trims audit_logs down to the retention window.
type AuditPruneJob struct {
	Audit  *shared.AuditLogger
	Logger *slog.Logger
}

// NewAuditPruneJob wires dependencies for the prune handler.
func NewAuditPruneJob(audit *shared.AuditLogger, logger *slog.Logger) *AuditPruneJob {
	return &AuditPruneJob{Audit: audit, Logger: logger}
}

// Handle processes audit prune tasks.
func (j *AuditPruneJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Audit == nil {
		return errors.New("audit prune: handler not configured")
	}
	var payload AuditPrunePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.RetentionSeconds <= 0 {
		return asynq.SkipRetry
	}
	removed, err := j.Audit.Prune(ctx, payload.Retention())
	if err != nil {
		return err
	}
	if j.Logger != nil {
		j.Logger.Info("audit prune", slog.Int64("removed", removed))
	}
	return nil
}
