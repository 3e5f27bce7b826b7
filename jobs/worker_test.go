package jobs

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSyncWorkerNeedsPushJob(t *testing.T) {
	_, err := NewSyncWorker(SyncWorkerConfig{})
	require.Error(t, err)

	_, err = NewSyncWorker(SyncWorkerConfig{Push: &OutboxPushJob{}, PushEvery: -time.Second})
	require.Error(t, err)
}

func TestNewSyncWorkerSchedulesPush(t *testing.T) {
	mr := miniredis.RunT(t)
	redis := asynq.RedisClientOpt{Addr: mr.Addr()}

	manual, err := NewSyncWorker(SyncWorkerConfig{Redis: redis, Push: &OutboxPushJob{}})
	require.NoError(t, err)
	assert.Nil(t, manual.scheduler)

	scheduled, err := NewSyncWorker(SyncWorkerConfig{Redis: redis, Push: &OutboxPushJob{}, PushEvery: time.Minute})
	require.NoError(t, err)
	assert.NotNil(t, scheduled.scheduler)
	assert.Equal(t, "@every 1m0s", pushSchedule(time.Minute))
}

func TestOutboxPushTaskPayload(t *testing.T) {
	task, err := NewOutboxPushTask("tenant-a")
	require.NoError(t, err)
	assert.Equal(t, TaskOutboxPush, task.Type())

	var payload OutboxPushPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "tenant-a", payload.TenantID)
}
