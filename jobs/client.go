package jobs

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
)

// Client enqueues sync work from outside the worker, for example the CLI.
type Client struct {
	client *asynq.Client
}

// NewClient connects a Client to redis.
func NewClient(redis asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redis)}
}

// EnqueueOutboxPush asks the worker to push tenantID, or every tenant with
// pending records when empty. A positive dedupe collapses repeated requests
// inside that window into one task.
func (c *Client) EnqueueOutboxPush(ctx context.Context, tenantID string, dedupe time.Duration) (*asynq.TaskInfo, error) {
	task, err := NewOutboxPushTask(tenantID)
	if err != nil {
		return nil, err
	}
	opts := []asynq.Option{asynq.Queue(QueueDefault), asynq.MaxRetry(5)}
	if dedupe > 0 {
		opts = append(opts, asynq.Unique(dedupe))
	}
	return c.client.EnqueueContext(ctx, task, opts...)
}

func (c *Client) Close() error {
	return c.client.Close()
}
