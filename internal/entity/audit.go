package entity

import "time"

// Audit actions recorded for platform mutations
const (
	AuditActionCreate = "create"
	AuditActionUpdate = "update"
	AuditActionDelete = "delete"
)

// AuditEntry records one mutation performed through the connector
type AuditEntry struct {
	ID          string    `json:"id"`
	Action      string    `json:"action"`
	Kind        ItemKind  `json:"kind"`
	ItemID      string    `json:"itemId"`
	EntityValue string    `json:"entityValue"`
	EntityType  string    `json:"entityType"`
	PerformedBy string    `json:"performedBy"`
	Detail      string    `json:"detail,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
