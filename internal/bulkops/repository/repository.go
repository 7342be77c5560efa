package repository

import (
	"context"
	"errors"
	"time"

	"bulkops/internal/bulkops/model"
)

var (
	ErrDuplicate       = errors.New("duplicate record")
	ErrRecordNotFound  = errors.New("record not found")
	ErrStaleRecord     = errors.New("record was modified concurrently")
	ErrAlreadyReversed = errors.New("operation already reversed")
	ErrWriteConflict   = errors.New("transaction write conflict")
)

// AnyVersion disables the optimistic version guard on an update.
const AnyVersion int64 = -1

// Tx is a unit of work opened by RecordStore.WithTransaction. Store, ledger
// and audit calls made with Tx.Context() join the transaction.
type Tx interface {
	Context() context.Context
}

// RecordStore is the tenant-scoped store of the records bulk operations mutate.
type RecordStore interface {
	// Fetch the records of one tenant by id in a single read. Ids that do not
	// resolve inside the tenant are simply absent from the result.
	FetchByIDs(ctx context.Context, tenantID string, ids []string) ([]*model.TargetRecord, error)
	// Resolve which tenant owns each id, across tenants. Used to tell a
	// cross-tenant id apart from an unknown one.
	ResolveTenants(ctx context.Context, ids []string) (map[string]string, error)
	// Apply a field-level patch inside tx. expectedVersion guards against a
	// concurrent writer; pass AnyVersion to skip the guard.
	UpdateInTransaction(tx Tx, tenantID, id string, expectedVersion int64, patch model.FieldPatch, updatedBy string) error
	// Run fn in one transaction. fn's error aborts; nil commits.
	WithTransaction(ctx context.Context, fn func(tx Tx) error) error
}

// OperationLedger stores executed batches keyed by operation id.
type OperationLedger interface {
	Get(ctx context.Context, operationID string) (*model.BatchOperationRecord, error)
	Save(ctx context.Context, record *model.BatchOperationRecord) error
	// MarkReversed only succeeds for a record that is not yet reversed.
	MarkReversed(ctx context.Context, operationID string, reversedAt time.Time, reversedBy string) error
	// FindUnresolved maps each given target id to the id of an unresolved
	// operation touching it.
	FindUnresolved(ctx context.Context, tenantID string, targetIDs []string, now time.Time) (map[string]string, error)
	List(ctx context.Context, filter model.OperationFilter) ([]*model.BatchOperationRecord, int64, error)
	EnsureLedgerIndexes(ctx context.Context) error
}

// AuditSink is append-only and never rejects entries that look like duplicates.
type AuditSink interface {
	Append(ctx context.Context, entry *model.AuditEntry) error
	FindByOperation(ctx context.Context, tenantID, operationID string) ([]*model.AuditEntry, error)
	EnsureAuditIndexes(ctx context.Context) error
}
