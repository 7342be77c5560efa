package model

import "time"

type TargetOutcome struct {
	TargetID    string `json:"target_id"`
	WillSucceed bool   `json:"will_succeed"`
	Message     string `json:"message"`
}

// BatchPreview is the dry-run result. It is never persisted.
type BatchPreview struct {
	RequestID         string          `json:"request_id,omitempty"`
	OperationType     OperationType   `json:"operation_type"`
	Status            string          `json:"status"`
	PerTargetOutcome  []TargetOutcome `json:"per_target_outcome"`
	RiskAssessment    RiskAssessment  `json:"risk_assessment"`
	OverallMessage    string          `json:"overall_message"`
	CanProceed        bool            `json:"can_proceed"`
	RollbackAvailable bool            `json:"rollback_available"`
	GeneratedAt       time.Time       `json:"generated_at"`
}

// SucceedingTargets returns the ids marked WillSucceed, in request order.
func (p *BatchPreview) SucceedingTargets() []string {
	var ids []string
	for _, o := range p.PerTargetOutcome {
		if o.WillSucceed {
			ids = append(ids, o.TargetID)
		}
	}
	return ids
}
