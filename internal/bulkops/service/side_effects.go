package service

import (
	"context"
	"fmt"
	"log/slog"

	"bulkops/internal/bulkops/metrics"
	"bulkops/internal/bulkops/model"
	"bulkops/internal/bulkops/notify"
)

// appendAudit writes entries in order and stops at the first failure.
func (s *Service) appendAudit(ctx context.Context, entries []*model.AuditEntry) error {
	if s.Audit == nil {
		return nil
	}
	for _, e := range entries {
		if err := s.Audit.Append(ctx, e); err != nil {
			return fmt.Errorf("audit %s/%s: %w", e.OperationID, e.TargetID, err)
		}
	}
	return nil
}

// appendAuditAfterCommit is the best-effort mode: a failed entry is logged and
// counted, the remaining entries are still attempted.
func (s *Service) appendAuditAfterCommit(ctx context.Context, log *slog.Logger, entries []*model.AuditEntry) {
	if s.Audit == nil {
		return
	}
	auditCtx, cancel := detached(ctx)
	defer cancel()

	for _, e := range entries {
		if err := s.Audit.Append(auditCtx, e); err != nil {
			log.Error("audit append failed", "target_id", e.TargetID, "action", e.Action, "error", err)
			metrics.ErrorsTotal.WithLabelValues(metrics.ErrTypeAudit).Inc()
		}
	}
}

// notify sends one event per target. Failures never propagate.
func (s *Service) notify(ctx context.Context, log *slog.Logger, record *model.BatchOperationRecord, eventType string, targetIDs []string) {
	if s.Notifier == nil || len(targetIDs) == 0 {
		return
	}
	now := s.now()
	events := make([]model.NotificationEvent, 0, len(targetIDs))
	for _, id := range targetIDs {
		events = append(events, model.NotificationEvent{
			Type:          eventType,
			OperationID:   record.ID,
			OperationType: record.OperationType,
			TenantID:      record.TenantID,
			TargetID:      id,
			ActorID:       record.ActorID,
			OccurredAt:    now,
		})
	}

	notifyCtx, cancel := detached(ctx)
	defer cancel()
	notify.Fanout(notifyCtx, s.Notifier, events, s.Config.NotifyConcurrency, func(ev model.NotificationEvent, err error) {
		log.Warn("notification failed", "target_id", ev.TargetID, "event", ev.Type, "error", err)
		metrics.ErrorsTotal.WithLabelValues(metrics.ErrTypeNotify).Inc()
	})
}
