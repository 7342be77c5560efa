package model

import "time"

// TargetRecord is the tenant-scoped user record a bulk operation mutates.
type TargetRecord struct {
	ID          string    `json:"id" bson:"_id"`
	TenantID    string    `json:"tenant_id" bson:"tenant_id"`
	Email       string    `json:"email,omitempty" bson:"email,omitempty"`
	Name        string    `json:"name,omitempty" bson:"name,omitempty"`
	Role        string    `json:"role" bson:"role"`
	Status      string    `json:"status" bson:"status"`
	TeamID      string    `json:"team_id,omitempty" bson:"team_id,omitempty"`
	Permissions []string  `json:"permissions,omitempty" bson:"permissions,omitempty"`
	Version     int64     `json:"version" bson:"version"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
	UpdatedBy   string    `json:"updated_by,omitempty" bson:"updated_by,omitempty"`
}

// ErrorResponse for consistent error handling
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func (e *ErrorDetail) Error() string {
	return e.Message
}
