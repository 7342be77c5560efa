package model

import "time"

// AuditEntry is append-only and never updated after creation.
type AuditEntry struct {
	ID            string        `bson:"_id" json:"id"`
	OperationID   string        `bson:"operation_id" json:"operation_id"`
	OperationType OperationType `bson:"operation_type" json:"operation_type"`
	Action        string        `bson:"action" json:"action"`
	TenantID      string        `bson:"tenant_id" json:"tenant_id"`
	ActorID       string        `bson:"actor_id" json:"actor_id"`
	TargetID      string        `bson:"target_id" json:"target_id"`
	Status        TargetStatus  `bson:"status" json:"status"`
	Message       string        `bson:"message,omitempty" json:"message,omitempty"`
	PriorState    FieldPatch    `bson:"prior_state,omitempty" json:"prior_state,omitempty"`
	NewState      FieldPatch    `bson:"new_state,omitempty" json:"new_state,omitempty"`
	Sequence      int           `bson:"sequence" json:"sequence"`
	CreatedAt     time.Time     `bson:"created_at" json:"created_at"`
}

// NotificationEvent is pushed to an external consumer per affected target.
type NotificationEvent struct {
	Type          string        `json:"type"`
	OperationID   string        `json:"operation_id"`
	OperationType OperationType `json:"operation_type"`
	TenantID      string        `json:"tenant_id"`
	TargetID      string        `json:"target_id"`
	ActorID       string        `json:"actor_id"`
	OccurredAt    time.Time     `json:"occurred_at"`
}
