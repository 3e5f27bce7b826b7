package shared

import "fmt"

// OutboxPushLockKey builds the redis key guarding one tenant's outbox push.
func OutboxPushLockKey(tenantID string) string {
	return fmt.Sprintf("retail:outbox:%s:push-lock", tenantID)
}
