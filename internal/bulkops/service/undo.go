package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bulkops/internal/bulkops/config"
	"bulkops/internal/bulkops/metrics"
	"bulkops/internal/bulkops/model"
	"bulkops/internal/bulkops/repository"
)

// Undo restores the prior state of every successfully mutated target of an
// operation and marks it Reversed. Either all targets are restored or none.
func (s *Service) Undo(ctx context.Context, tenantID, operationID, actorID string) (*model.BatchOperationRecord, error) {
	tenantID = strings.TrimSpace(tenantID)
	operationID = strings.TrimSpace(operationID)
	actorID = strings.TrimSpace(actorID)
	if tenantID == "" || operationID == "" || actorID == "" {
		return nil, fmt.Errorf("%w: tenant, operation and actor are required", ErrValidation)
	}
	log := s.Logger.With("operation_id", operationID, "tenant_id", tenantID)

	record, err := s.GetOperation(ctx, tenantID, operationID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := checkUndoable(record, now); err != nil {
		return nil, err
	}

	started := time.Now()
	var entries []*model.AuditEntry
	err = s.Store.WithTransaction(ctx, func(tx repository.Tx) error {
		txCtx := tx.Context()

		// Re-check against the ledger as seen by this transaction.
		current, err := s.Ledger.Get(txCtx, operationID)
		if err != nil {
			return err
		}
		if current == nil || current.TenantID != tenantID {
			return fmt.Errorf("%w: operation %s", ErrNotFound, operationID)
		}
		if err := checkUndoable(current, now); err != nil {
			return err
		}

		for _, res := range current.PerTargetResult {
			if res.Status != model.TargetSuccess {
				continue
			}
			err := s.Store.UpdateInTransaction(tx, tenantID, res.TargetID, repository.AnyVersion, res.PriorState, actorID)
			if errors.Is(err, repository.ErrRecordNotFound) {
				return fmt.Errorf("%w: target %s no longer exists", ErrConflict, res.TargetID)
			}
			if err != nil {
				return fmt.Errorf("restore %s: %w", res.TargetID, err)
			}
		}

		if err := s.Ledger.MarkReversed(txCtx, operationID, now, actorID); err != nil {
			return err
		}

		entries = reversalAudit(current, actorID, now)
		if s.Config.AuditMode == config.AuditModeTransactional {
			return s.appendAudit(txCtx, entries)
		}
		return nil
	})
	metrics.BatchDuration.WithLabelValues("undo").Observe(time.Since(started).Seconds())

	if err != nil {
		mapped := mapTxError(operationID, err)
		if errors.Is(mapped, ErrServer) {
			log.Error("undo aborted", "error", err)
			metrics.ErrorsTotal.WithLabelValues(metrics.ErrTypeTransaction).Inc()
		} else {
			log.Warn("undo rejected", "error", mapped)
		}
		return nil, mapped
	}

	reversedAt := now
	record.Status = model.RecordReversed
	record.ReversedAt = &reversedAt
	record.ReversedBy = actorID

	if s.Config.AuditMode != config.AuditModeTransactional {
		s.appendAuditAfterCommit(ctx, log, entries)
	}
	s.notify(ctx, log, record, model.EventOperationReversed, record.MutatedTargets)

	metrics.OperationsTotal.WithLabelValues(string(record.OperationType), string(model.RecordReversed)).Inc()
	log.Info("bulk operation reversed", "restored_count", record.SuccessCount, "actor_id", actorID)
	return record, nil
}

// checkUndoable reports why record cannot be undone at now. Past the deadline
// the answer is always Expired, whatever the status.
func checkUndoable(record *model.BatchOperationRecord, now time.Time) error {
	if now.After(record.UndoDeadline) {
		return fmt.Errorf("%w: deadline was %s", ErrExpired, record.UndoDeadline.UTC().Format(time.RFC3339))
	}
	if record.Status == model.RecordReversed {
		return fmt.Errorf("%w: already reversed", ErrConflict)
	}
	if record.SuccessCount == 0 && len(record.MutatedTargets) == 0 {
		return fmt.Errorf("%w: nothing to undo", ErrConflict)
	}
	return nil
}

func reversalAudit(record *model.BatchOperationRecord, actorID string, now time.Time) []*model.AuditEntry {
	var entries []*model.AuditEntry
	for _, res := range record.PerTargetResult {
		if res.Status != model.TargetSuccess {
			continue
		}
		entries = append(entries, &model.AuditEntry{
			OperationID:   record.ID,
			OperationType: record.OperationType,
			Action:        model.AuditActionUndo,
			TenantID:      record.TenantID,
			ActorID:       actorID,
			TargetID:      res.TargetID,
			Status:        model.TargetSuccess,
			Message:       "restored prior state",
			PriorState:    res.NewState,
			NewState:      res.PriorState,
			Sequence:      len(entries),
			CreatedAt:     now,
		})
	}
	return entries
}
