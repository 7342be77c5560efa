package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"bulkops/internal/bulkops/model"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process implementation of RecordStore,
// OperationLedger and AuditSink. Transactions are serialised; writes made
// inside one are staged and applied together on commit.
type MemoryRepository struct {
	// OnCommit runs before staged writes are applied. A non-nil error aborts
	// the transaction.
	OnCommit func() error

	txMu       sync.Mutex
	mu         sync.RWMutex
	records    map[string]*model.TargetRecord
	operations map[string]*model.BatchOperationRecord
	audit      []*model.AuditEntry
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		records:    make(map[string]*model.TargetRecord),
		operations: make(map[string]*model.BatchOperationRecord),
	}
}

type memTxKey struct{}

type memTx struct {
	ctx        context.Context
	records    map[string]*model.TargetRecord
	operations map[string]*model.BatchOperationRecord
	audit      []*model.AuditEntry
}

func (t *memTx) Context() context.Context {
	return t.ctx
}

func txFrom(ctx context.Context) *memTx {
	tx, _ := ctx.Value(memTxKey{}).(*memTx)
	return tx
}

// Seed stores records as-is, replacing any with the same id.
func (r *MemoryRepository) Seed(records ...*model.TargetRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range records {
		r.records[rec.ID] = rec.Clone()
	}
}

// Record returns a copy of the committed record, or nil.
func (r *MemoryRepository) Record(id string) *model.TargetRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rec, ok := r.records[id]; ok {
		return rec.Clone()
	}
	return nil
}

func (r *MemoryRepository) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, id)
}

func (r *MemoryRepository) WithTransaction(ctx context.Context, fn func(tx Tx) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	tx := &memTx{
		records:    make(map[string]*model.TargetRecord),
		operations: make(map[string]*model.BatchOperationRecord),
	}
	tx.ctx = context.WithValue(ctx, memTxKey{}, tx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.OnCommit != nil {
		if err := r.OnCommit(); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, rec := range tx.records {
		r.records[id] = rec
	}
	for id, op := range tx.operations {
		r.operations[id] = op
	}
	r.audit = append(r.audit, tx.audit...)
	return nil
}

// lookupRecord reads through the transaction's staged writes.
func (r *MemoryRepository) lookupRecord(tx *memTx, id string) (*model.TargetRecord, bool) {
	if tx != nil {
		if rec, ok := tx.records[id]; ok {
			return rec, true
		}
	}
	rec, ok := r.records[id]
	return rec, ok
}

func (r *MemoryRepository) FetchByIDs(ctx context.Context, tenantID string, ids []string) ([]*model.TargetRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tx := txFrom(ctx)

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.TargetRecord, 0, len(ids))
	for _, id := range ids {
		rec, ok := r.lookupRecord(tx, id)
		if !ok || rec.TenantID != tenantID {
			continue
		}
		out = append(out, rec.Clone())
	}
	return out, nil
}

func (r *MemoryRepository) ResolveTenants(ctx context.Context, ids []string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tx := txFrom(ctx)

	r.mu.RLock()
	defer r.mu.RUnlock()

	owners := make(map[string]string, len(ids))
	for _, id := range ids {
		if rec, ok := r.lookupRecord(tx, id); ok {
			owners[id] = rec.TenantID
		}
	}
	return owners, nil
}

func (r *MemoryRepository) UpdateInTransaction(tx Tx, tenantID, id string, expectedVersion int64, patch model.FieldPatch, updatedBy string) error {
	mtx, ok := tx.(*memTx)
	if !ok {
		return ErrRecordNotFound
	}
	if err := mtx.ctx.Err(); err != nil {
		return err
	}

	r.mu.RLock()
	current, found := r.lookupRecord(mtx, id)
	r.mu.RUnlock()

	if !found || current.TenantID != tenantID {
		return ErrRecordNotFound
	}
	if expectedVersion != AnyVersion && current.Version != expectedVersion {
		return ErrStaleRecord
	}

	next := current.Clone()
	if err := next.Apply(patch); err != nil {
		return err
	}
	next.Version++
	next.UpdatedAt = time.Now()
	next.UpdatedBy = updatedBy
	mtx.records[id] = next
	return nil
}

func (r *MemoryRepository) EnsureLedgerIndexes(ctx context.Context) error {
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, operationID string) (*model.BatchOperationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tx := txFrom(ctx)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if op, ok := r.lookupOperation(tx, operationID); ok {
		return cloneOperation(op), nil
	}
	return nil, nil
}

func (r *MemoryRepository) lookupOperation(tx *memTx, id string) (*model.BatchOperationRecord, bool) {
	if tx != nil {
		if op, ok := tx.operations[id]; ok {
			return op, true
		}
	}
	op, ok := r.operations[id]
	return op, ok
}

func (r *MemoryRepository) Save(ctx context.Context, record *model.BatchOperationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := txFrom(ctx)

	if tx == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, exists := r.operations[record.ID]; exists {
			return ErrDuplicate
		}
		r.operations[record.ID] = cloneOperation(record)
		return nil
	}

	r.mu.RLock()
	_, exists := r.lookupOperation(tx, record.ID)
	r.mu.RUnlock()
	if exists {
		return ErrDuplicate
	}
	tx.operations[record.ID] = cloneOperation(record)
	return nil
}

func (r *MemoryRepository) MarkReversed(ctx context.Context, operationID string, reversedAt time.Time, reversedBy string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := txFrom(ctx)

	if tx == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
	} else {
		r.mu.RLock()
		defer r.mu.RUnlock()
	}

	op, ok := r.lookupOperation(tx, operationID)
	if !ok {
		return ErrRecordNotFound
	}
	if op.Status == model.RecordReversed {
		return ErrAlreadyReversed
	}

	next := cloneOperation(op)
	next.Status = model.RecordReversed
	at := reversedAt
	next.ReversedAt = &at
	next.ReversedBy = reversedBy

	if tx == nil {
		r.operations[operationID] = next
	} else {
		tx.operations[operationID] = next
	}
	return nil
}

func (r *MemoryRepository) FindUnresolved(ctx context.Context, tenantID string, targetIDs []string, now time.Time) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]struct{}, len(targetIDs))
	for _, id := range targetIDs {
		wanted[id] = struct{}{}
	}

	inFlight := make(map[string]string)
	for _, op := range sortedOperations(r.operations) {
		if op.TenantID != tenantID || !op.Unresolved(now) {
			continue
		}
		for _, t := range op.MutatedTargets {
			if _, ok := wanted[t]; !ok {
				continue
			}
			if _, seen := inFlight[t]; !seen {
				inFlight[t] = op.ID
			}
		}
	}
	return inFlight, nil
}

func (r *MemoryRepository) List(ctx context.Context, filter model.OperationFilter) ([]*model.BatchOperationRecord, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*model.BatchOperationRecord
	for _, op := range sortedOperations(r.operations) {
		if op.TenantID != filter.TenantID {
			continue
		}
		if filter.Status != "" && op.Status != filter.Status {
			continue
		}
		if filter.OperationType != "" && op.OperationType != filter.OperationType {
			continue
		}
		matched = append(matched, op)
	}

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Size
	if start < 0 {
		start = 0
	}
	if start >= len(matched) {
		return []*model.BatchOperationRecord{}, total, nil
	}
	end := start + filter.Size
	if filter.Size <= 0 || end > len(matched) {
		end = len(matched)
	}

	page := make([]*model.BatchOperationRecord, 0, end-start)
	for _, op := range matched[start:end] {
		page = append(page, cloneOperation(op))
	}
	return page, total, nil
}

func (r *MemoryRepository) EnsureAuditIndexes(ctx context.Context) error {
	return nil
}

func (r *MemoryRepository) Append(ctx context.Context, entry *model.AuditEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e := *entry
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	if tx := txFrom(ctx); tx != nil {
		tx.audit = append(tx.audit, &e)
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.audit = append(r.audit, &e)
	return nil
}

func (r *MemoryRepository) FindByOperation(ctx context.Context, tenantID, operationID string) ([]*model.AuditEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*model.AuditEntry
	for _, e := range r.audit {
		if e.TenantID == tenantID && e.OperationID == operationID {
			c := *e
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		if out[i].Action != out[j].Action {
			return out[i].Action < out[j].Action
		}
		return out[i].Sequence < out[j].Sequence
	})
	return out, nil
}

// sortedOperations returns operations newest first.
func sortedOperations(ops map[string]*model.BatchOperationRecord) []*model.BatchOperationRecord {
	out := make([]*model.BatchOperationRecord, 0, len(ops))
	for _, op := range ops {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExecutedAt.Equal(out[j].ExecutedAt) {
			return out[i].ExecutedAt.After(out[j].ExecutedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func cloneOperation(op *model.BatchOperationRecord) *model.BatchOperationRecord {
	c := *op
	c.PerTargetResult = append([]model.TargetResult{}, op.PerTargetResult...)
	c.MutatedTargets = append([]string{}, op.MutatedTargets...)
	if op.ReversedAt != nil {
		at := *op.ReversedAt
		c.ReversedAt = &at
	}
	return &c
}
