package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuthTouchLogin stamps users.last_login after a successful login.
	TaskAuthTouchLogin = "auth:touch_last_login"
	// TaskAuditPrune removes audit records past the retention window.
	TaskAuditPrune = "audit:prune"
)

// TouchLoginPayload identifies the user whose last_login gets stamped.
type TouchLoginPayload struct {
	UserID int64 `json:"user_id"`
}

// NewTouchLoginTask constructs the last_login touch task.
func NewTouchLoginTask(userID int64) (*asynq.Task, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("jobs: invalid user id %d", userID)
	}
	data, err := json.Marshal(TouchLoginPayload{UserID: userID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuthTouchLogin, data), nil
}

// AuditPrunePayload carries the retention window for an audit prune run.
type AuditPrunePayload struct {
	RetentionSeconds int64 `json:"retention_seconds"`
}

// Retention returns the payload's window as a duration.
func (p AuditPrunePayload) Retention() time.Duration {
	return time.Duration(p.RetentionSeconds) * time.Second
}

// NewAuditPruneTask constructs the nightly audit prune task.
func NewAuditPruneTask(retention time.Duration) (*asynq.Task, error) {
	if retention <= 0 {
		return nil, fmt.Errorf("jobs: invalid retention %s", retention)
	}
	data, err := json.Marshal(AuditPrunePayload{RetentionSeconds: int64(retention.Seconds())})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditPrune, data), nil
}
