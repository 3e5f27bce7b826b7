package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskOutboxPush drains pending sync records to the remote mirror.
	TaskOutboxPush = "outbox:push"
)

// OutboxPushPayload selects the tenant to push. An empty tenant pushes all.
type OutboxPushPayload struct {
	TenantID string `json:"tenantId,omitempty"`
}

// NewOutboxPushTask constructs an Asynq task.
func NewOutboxPushTask(tenantID string) (*asynq.Task, error) {
	data, err := json.Marshal(OutboxPushPayload{TenantID: tenantID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOutboxPush, data), nil
}
