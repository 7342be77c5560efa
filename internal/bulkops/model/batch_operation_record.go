package model

import "time"

type TargetResult struct {
	TargetID   string       `json:"target_id" bson:"target_id"`
	Status     TargetStatus `json:"status" bson:"status"`
	Message    string       `json:"message,omitempty" bson:"message,omitempty"`
	PriorState FieldPatch   `json:"prior_state,omitempty" bson:"prior_state,omitempty"`
	NewState   FieldPatch   `json:"new_state,omitempty" bson:"new_state,omitempty"`
}

// BatchOperationRecord is the durable result of an executed batch. It is
// written once at execution and updated once more when reversed.
type BatchOperationRecord struct {
	ID              string         `json:"id" bson:"_id"`
	OperationType   OperationType  `json:"operation_type" bson:"operation_type"`
	TargetValue     TargetValue    `json:"target_value" bson:"target_value"`
	TenantID        string         `json:"tenant_id" bson:"tenant_id"`
	ActorID         string         `json:"actor_id" bson:"actor_id"`
	ExecutedAt      time.Time      `json:"executed_at" bson:"executed_at"`
	Status          RecordStatus   `json:"status" bson:"status"`
	PerTargetResult []TargetResult `json:"per_target_result" bson:"per_target_result"`
	MutatedTargets  []string       `json:"-" bson:"mutated_target_ids"`
	SuccessCount    int            `json:"success_count" bson:"success_count"`
	FailureCount    int            `json:"failure_count" bson:"failure_count"`
	UndoDeadline    time.Time      `json:"undo_deadline" bson:"undo_deadline"`
	ReversedAt      *time.Time     `json:"reversed_at,omitempty" bson:"reversed_at,omitempty"`
	ReversedBy      string         `json:"reversed_by,omitempty" bson:"reversed_by,omitempty"`
}

// DeriveStatus sets the counters and the outcome from the per-target results.
func (r *BatchOperationRecord) DeriveStatus() {
	r.SuccessCount, r.FailureCount = 0, 0
	r.MutatedTargets = make([]string, 0, len(r.PerTargetResult))
	for _, res := range r.PerTargetResult {
		if res.Status == TargetSuccess {
			r.SuccessCount++
			r.MutatedTargets = append(r.MutatedTargets, res.TargetID)
		} else {
			r.FailureCount++
		}
	}
	switch {
	case r.FailureCount == 0:
		r.Status = RecordSuccess
	case r.SuccessCount == 0:
		r.Status = RecordFailed
	default:
		r.Status = RecordPartial
	}
}

// Unresolved reports whether the batch can still be undone at now, which
// makes its targets off limits for another batch.
func (r *BatchOperationRecord) Unresolved(now time.Time) bool {
	if r.Status == RecordReversed || r.Status == RecordFailed {
		return false
	}
	return !now.After(r.UndoDeadline)
}
