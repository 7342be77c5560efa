package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bulkops/internal/bulkops/config"
	"bulkops/internal/bulkops/metrics"
	"bulkops/internal/bulkops/model"
	"bulkops/internal/bulkops/repository"
)

const msgConcurrentModification = "concurrent modification"

// Execute applies req to every target in one transaction. Targets that fail
// the mutation rules are recorded as Failed and do not abort the batch.
func (s *Service) Execute(ctx context.Context, req model.BatchOperationRequest) (*model.BatchOperationRecord, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}
	if req.ID == "" {
		req.ID = s.newID()
	}
	log := s.Logger.With("operation_id", req.ID, "operation_type", req.OperationType, "tenant_id", req.TenantID)

	started := time.Now()
	var record *model.BatchOperationRecord
	var entries []*model.AuditEntry

	err := s.Store.WithTransaction(ctx, func(tx repository.Tx) error {
		txCtx := tx.Context()

		// Preview is advisory; the authoritative state is read here.
		byID, err := s.resolveTargets(txCtx, &req)
		if err != nil {
			return err
		}

		now := s.now()
		results := make([]model.TargetResult, 0, len(req.TargetIDs))
		for _, id := range req.TargetIDs {
			target := byID[id]
			plan := planMutation(&req, target)
			if !plan.OK {
				results = append(results, model.TargetResult{TargetID: id, Status: model.TargetFailed, Message: plan.Message})
				continue
			}

			prior := target.Snapshot(plan.Patch.Fields())
			err := s.Store.UpdateInTransaction(tx, req.TenantID, id, target.Version, plan.Patch, req.ActorID)
			switch {
			case errors.Is(err, repository.ErrStaleRecord), errors.Is(err, repository.ErrRecordNotFound):
				results = append(results, model.TargetResult{TargetID: id, Status: model.TargetFailed, Message: msgConcurrentModification})
				continue
			case err != nil:
				return fmt.Errorf("update %s: %w", id, err)
			}

			results = append(results, model.TargetResult{
				TargetID:   id,
				Status:     model.TargetSuccess,
				Message:    plan.Message,
				PriorState: prior,
				NewState:   plan.Patch,
			})
		}

		record = &model.BatchOperationRecord{
			ID:              req.ID,
			OperationType:   req.OperationType,
			TargetValue:     req.TargetValue,
			TenantID:        req.TenantID,
			ActorID:         req.ActorID,
			ExecutedAt:      now,
			PerTargetResult: results,
			UndoDeadline:    now.Add(s.Config.UndoWindow),
		}
		record.DeriveStatus()

		if err := s.Ledger.Save(txCtx, record); err != nil {
			return err
		}

		entries = executionAudit(record)
		if s.Config.AuditMode == config.AuditModeTransactional {
			return s.appendAudit(txCtx, entries)
		}
		return nil
	})
	metrics.BatchDuration.WithLabelValues("execute").Observe(time.Since(started).Seconds())

	if err != nil {
		mapped := mapTxError(req.ID, err)
		if errors.Is(mapped, ErrServer) {
			log.Error("execute aborted", "error", err)
			metrics.ErrorsTotal.WithLabelValues(metrics.ErrTypeTransaction).Inc()
		} else {
			log.Warn("execute rejected", "error", mapped)
		}
		return nil, mapped
	}

	if s.Config.AuditMode != config.AuditModeTransactional {
		s.appendAuditAfterCommit(ctx, log, entries)
	}
	s.notify(ctx, log, record, model.EventOperationExecuted, record.MutatedTargets)

	metrics.OperationsTotal.WithLabelValues(string(record.OperationType), string(record.Status)).Inc()
	metrics.TargetsTotal.WithLabelValues(string(record.OperationType), string(model.TargetSuccess)).Add(float64(record.SuccessCount))
	metrics.TargetsTotal.WithLabelValues(string(record.OperationType), string(model.TargetFailed)).Add(float64(record.FailureCount))

	log.Info("bulk operation executed",
		"status", record.Status,
		"success_count", record.SuccessCount,
		"failure_count", record.FailureCount,
	)
	return record, nil
}

func executionAudit(record *model.BatchOperationRecord) []*model.AuditEntry {
	entries := make([]*model.AuditEntry, 0, len(record.PerTargetResult))
	for i, res := range record.PerTargetResult {
		entries = append(entries, &model.AuditEntry{
			OperationID:   record.ID,
			OperationType: record.OperationType,
			Action:        model.AuditActionExecute,
			TenantID:      record.TenantID,
			ActorID:       record.ActorID,
			TargetID:      res.TargetID,
			Status:        res.Status,
			Message:       res.Message,
			PriorState:    res.PriorState,
			NewState:      res.NewState,
			Sequence:      i,
			CreatedAt:     record.ExecutedAt,
		})
	}
	return entries
}
