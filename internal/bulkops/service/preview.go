package service

import (
	"context"
	"fmt"

	"bulkops/internal/bulkops/metrics"
	"bulkops/internal/bulkops/model"
)

// Preview simulates req against current state without writing anything.
// RequestID echoes the caller's id and stays empty when none was given, so
// repeated previews of the same request against unchanged state are equal
// apart from GeneratedAt.
func (s *Service) Preview(ctx context.Context, req model.BatchOperationRequest) (*model.BatchPreview, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}
	now := s.now()

	byID, err := s.resolveTargets(ctx, &req)
	if err != nil {
		return nil, s.readError("preview", err)
	}
	inFlight, err := s.Ledger.FindUnresolved(ctx, req.TenantID, req.TargetIDs, now)
	if err != nil {
		return nil, s.readError("preview", err)
	}

	targets := ordered(&req, byID)
	assessment := s.Analyzer.Assess(&req, targets, inFlight)

	outcomes := make([]model.TargetOutcome, 0, len(targets))
	willSucceed := 0
	for _, t := range targets {
		plan := planMutation(&req, t)
		if plan.OK {
			willSucceed++
		}
		outcomes = append(outcomes, model.TargetOutcome{
			TargetID:    t.ID,
			WillSucceed: plan.OK,
			Message:     plan.Message,
		})
	}

	metrics.RiskLevelsTotal.WithLabelValues(string(assessment.RiskLevel)).Inc()

	return &model.BatchPreview{
		RequestID:         req.ID,
		OperationType:     req.OperationType,
		Status:            model.PreviewStatus,
		PerTargetOutcome:  outcomes,
		RiskAssessment:    assessment,
		OverallMessage:    overallMessage(willSucceed, len(targets), assessment.RiskLevel),
		CanProceed:        willSucceed > 0 && assessment.RiskLevel != model.RiskCritical,
		RollbackAvailable: willSucceed > 0,
		GeneratedAt:       now,
	}, nil
}

func overallMessage(willSucceed, total int, level model.RiskLevel) string {
	switch {
	case willSucceed == 0:
		return fmt.Sprintf("No target would change (0 of %d)", total)
	case level == model.RiskCritical:
		return fmt.Sprintf("%d of %d targets would change; critical risks need review before executing", willSucceed, total)
	case willSucceed < total:
		return fmt.Sprintf("%d of %d targets would change; the rest would be skipped", willSucceed, total)
	default:
		return fmt.Sprintf("All %d targets would change", total)
	}
}

// readError maps a failure outside a transaction.
func (s *Service) readError(op string, err error) error {
	if isServiceError(err) {
		return err
	}
	s.Logger.Error("store read failed", "op", op, "error", err)
	metrics.ErrorsTotal.WithLabelValues(metrics.ErrTypeStore).Inc()
	return fmt.Errorf("%w: %s: %w", ErrServer, op, err)
}
