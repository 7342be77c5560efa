package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"bulkops/internal/bulkops/config"
	"bulkops/internal/bulkops/model"
	"bulkops/internal/bulkops/repository"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const tenant = "t1"

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, event model.NotificationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockAuditSink struct {
	mock.Mock
}

func (m *MockAuditSink) Append(ctx context.Context, entry *model.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditSink) FindByOperation(ctx context.Context, tenantID, operationID string) ([]*model.AuditEntry, error) {
	args := m.Called(ctx, tenantID, operationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.AuditEntry), args.Error(1)
}

func (m *MockAuditSink) EnsureAuditIndexes(ctx context.Context) error {
	return nil
}

// staleStore simulates a concurrent writer that won the race for one target.
type staleStore struct {
	*repository.MemoryRepository
	staleID string
}

func (s *staleStore) UpdateInTransaction(tx repository.Tx, tenantID, id string, expectedVersion int64, patch model.FieldPatch, updatedBy string) error {
	if id == s.staleID {
		return repository.ErrStaleRecord
	}
	return s.MemoryRepository.UpdateInTransaction(tx, tenantID, id, expectedVersion, patch, updatedBy)
}

type fixture struct {
	svc      *Service
	repo     *repository.MemoryRepository
	notifier *MockNotifier
	clock    *fakeClock
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T, records ...*model.TargetRecord) *fixture {
	t.Helper()
	return newFixtureWithConfig(t, config.DefaultEngineConfig(), records...)
}

func newFixtureWithConfig(t *testing.T, cfg config.EngineConfig, records ...*model.TargetRecord) *fixture {
	t.Helper()
	require.NoError(t, cfg.Validate())

	repo := repository.NewMemoryRepository()
	repo.Seed(records...)

	notifier := new(MockNotifier)
	notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

	clock := &fakeClock{now: t0}
	svc := NewService(repo, repo, repo, notifier, cfg, discardLogger()).WithClock(clock.Now)
	return &fixture{svc: svc, repo: repo, notifier: notifier, clock: clock}
}

func user(id, role, status string, perms ...string) *model.TargetRecord {
	if perms == nil {
		perms = []string{}
	}
	return &model.TargetRecord{
		ID:          id,
		TenantID:    tenant,
		Email:       id + "@example.com",
		Role:        role,
		Status:      status,
		TeamID:      "team-a",
		Permissions: perms,
		Version:     1,
		UpdatedAt:   t0.Add(-time.Hour),
	}
}

func request(id string, op model.OperationType, value model.TargetValue, targets ...string) model.BatchOperationRequest {
	return model.BatchOperationRequest{
		ID:            id,
		OperationType: op,
		TargetIDs:     targets,
		TargetValue:   value,
		ActorID:       "a1",
		TenantID:      tenant,
		RequestedAt:   t0,
	}
}

// state captures every mutable field of a stored record.
func state(t *testing.T, repo *repository.MemoryRepository, id string) model.FieldPatch {
	t.Helper()
	rec := repo.Record(id)
	require.NotNil(t, rec, "record %s", id)
	return rec.Snapshot([]string{model.FieldRole, model.FieldStatus, model.FieldTeamID, model.FieldPermissions})
}

func kinds(findings []model.RiskFinding) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.Kind)
	}
	return out
}
