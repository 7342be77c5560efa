package model

import (
	"strings"
	"time"
)

// BatchOperationRequest is an intent to mutate many targets. It only lives for
// the duration of a preview or execute call.
type BatchOperationRequest struct {
	ID            string        `json:"id" validate:"omitempty,max=128"`
	OperationType OperationType `json:"operation_type" validate:"required,operation_type"`
	TargetIDs     []string      `json:"target_ids" validate:"required,min=1,max=1000,dive,required,max=128"`
	TargetValue   TargetValue   `json:"target_value"`
	ActorID       string        `json:"actor_id" validate:"required,max=128"`
	TenantID      string        `json:"tenant_id" validate:"required,max=128"`
	RequestedAt   time.Time     `json:"requested_at"`
}

// Normalize trims identifiers and deduplicates TargetIDs keeping first-seen order.
func (r *BatchOperationRequest) Normalize() {
	r.ID = strings.TrimSpace(r.ID)
	r.ActorID = strings.TrimSpace(r.ActorID)
	r.TenantID = strings.TrimSpace(r.TenantID)
	r.TargetIDs = dedupe(r.TargetIDs)

	switch r.OperationType {
	case OpRoleChange, OpStatusUpdate:
		r.TargetValue = StringValue(strings.ToUpper(strings.TrimSpace(r.TargetValue.Value)))
	case OpTeamTransfer:
		r.TargetValue = StringValue(strings.TrimSpace(r.TargetValue.Value))
	case OpPermissionGrant, OpPermissionRevoke:
		perms := r.TargetValue.Strings()
		for i, p := range perms {
			perms[i] = strings.ToUpper(strings.TrimSpace(p))
		}
		r.TargetValue = ListValue(dedupe(perms)...)
	case OpDeactivate:
		r.TargetValue = TargetValue{}
	}
}

func (r *BatchOperationRequest) Validate() error {
	r.Normalize()

	// 1. Basic Struct Validation
	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}

	// 2. Operation specific payload
	switch r.OperationType {
	case OpRoleChange:
		if _, ok := RoleRank[r.TargetValue.Value]; !ok {
			return &ErrorDetail{Code: "bad_request", Message: "invalid role: " + r.TargetValue.Value}
		}
	case OpStatusUpdate:
		if !AllowedStatuses[r.TargetValue.Value] {
			return &ErrorDetail{Code: "bad_request", Message: "invalid status: " + r.TargetValue.Value}
		}
	case OpTeamTransfer:
		if r.TargetValue.Value == "" {
			return &ErrorDetail{Code: "bad_request", Message: "target_value must name the destination team"}
		}
	case OpPermissionGrant, OpPermissionRevoke:
		if len(r.TargetValue.Values) == 0 {
			return &ErrorDetail{Code: "bad_request", Message: "target_value must list at least one permission"}
		}
	}

	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
