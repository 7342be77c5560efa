package service

import (
	"context"
	"log/slog"
	"time"

	"bulkops/internal/bulkops/config"
	"bulkops/internal/bulkops/model"
	"bulkops/internal/bulkops/notify"
	"bulkops/internal/bulkops/repository"
	"bulkops/internal/bulkops/util"

	"github.com/google/uuid"
)

type BulkService interface {
	Preview(ctx context.Context, req model.BatchOperationRequest) (*model.BatchPreview, error)
	Execute(ctx context.Context, req model.BatchOperationRequest) (*model.BatchOperationRecord, error)
	Undo(ctx context.Context, tenantID, operationID, actorID string) (*model.BatchOperationRecord, error)
	GetOperation(ctx context.Context, tenantID, operationID string) (*model.BatchOperationRecord, error)
	// Ledger browsing
	ListOperations(ctx context.Context, tenantID string, req model.ListOperationsReq) (*model.OperationList, error)
	GetOperationAudit(ctx context.Context, tenantID, operationID string) ([]*model.AuditEntry, error)
}

type Service struct {
	Store    repository.RecordStore
	Ledger   repository.OperationLedger
	Audit    repository.AuditSink
	Notifier notify.Notifier
	Analyzer *Analyzer
	Config   config.EngineConfig
	Logger   *slog.Logger

	now   func() time.Time
	newID func() string
}

func NewService(store repository.RecordStore, ledger repository.OperationLedger, audit repository.AuditSink, notifier notify.Notifier, cfg config.EngineConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = util.GetLogger()
	}
	return &Service{
		Store:    store,
		Ledger:   ledger,
		Audit:    audit,
		Notifier: notifier,
		Analyzer: NewAnalyzer(cfg),
		Config:   cfg,
		Logger:   logger.With("component", "bulk_service"),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// WithClock replaces the wall clock, mainly for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// sideEffectTimeout bounds audit and notification work done after commit.
const sideEffectTimeout = 5 * time.Second

// detached returns a context that survives the caller's cancellation, for
// work that must run after a transaction committed.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
}
