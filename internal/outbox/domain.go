// Package outbox is the append-only log of local writes waiting to be pushed to the remote service.
package outbox

import (
	"encoding/json"
	"time"
)

// EntityType tags the kind of entity a record refers to.
type EntityType string

const (
	EntityCustomer      EntityType = "customer"
	EntityProduct       EntityType = "product"
	EntitySalesOrder    EntityType = "sales_order"
	EntityPurchaseOrder EntityType = "purchase_order"
	// EntityProductStock records carry a StockDelta to be applied additively, never as an overwrite.
	EntityProductStock EntityType = "product_stock"
)

// Action is the intended remote mutation.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// SyncRecord is one outbox entry. SyncedAt stays nil until the remote acknowledges it.
type SyncRecord struct {
	ID        int64           `json:"id"`
	TenantID  string          `json:"tenantId"`
	Entity    EntityType      `json:"entity"`
	EntityID  string          `json:"entityId"`
	Action    Action          `json:"action"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
	SyncedAt  *time.Time      `json:"syncedAt"`
}

// Pending reports whether the record still awaits acknowledgement.
func (r SyncRecord) Pending() bool {
	return r.SyncedAt == nil
}

// StockDelta is the payload of an EntityProductStock record.
type StockDelta struct {
	ProductID string `json:"productId"`
	Delta     int64  `json:"delta"`
}

// Stats summarises queue depth for one tenant.
type Stats struct {
	Pending int `json:"pending"`
	Synced  int `json:"synced"`
}
