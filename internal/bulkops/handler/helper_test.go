package handler_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"bulkops/internal/bulkops/handler"
	"bulkops/internal/bulkops/model"
	"bulkops/internal/bulkops/policy"
	"bulkops/internal/bulkops/repository"
	"bulkops/internal/bulkops/router"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBulkService struct {
	mock.Mock
}

func (m *MockBulkService) Preview(ctx context.Context, req model.BatchOperationRequest) (*model.BatchPreview, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BatchPreview), args.Error(1)
}

func (m *MockBulkService) Execute(ctx context.Context, req model.BatchOperationRequest) (*model.BatchOperationRecord, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BatchOperationRecord), args.Error(1)
}

func (m *MockBulkService) Undo(ctx context.Context, tenantID, operationID, actorID string) (*model.BatchOperationRecord, error) {
	args := m.Called(ctx, tenantID, operationID, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BatchOperationRecord), args.Error(1)
}

func (m *MockBulkService) GetOperation(ctx context.Context, tenantID, operationID string) (*model.BatchOperationRecord, error) {
	args := m.Called(ctx, tenantID, operationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BatchOperationRecord), args.Error(1)
}

func (m *MockBulkService) ListOperations(ctx context.Context, tenantID string, req model.ListOperationsReq) (*model.OperationList, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OperationList), args.Error(1)
}

func (m *MockBulkService) GetOperationAudit(ctx context.Context, tenantID, operationID string) ([]*model.AuditEntry, error) {
	args := m.Called(ctx, tenantID, operationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.AuditEntry), args.Error(1)
}

// actors seeded into every test server, all in tenant t1
var actors = []*model.TargetRecord{
	{ID: "admin_1", TenantID: "t1", Role: model.RoleAdmin, Status: model.StatusActive, Version: 1},
	{ID: "lead_1", TenantID: "t1", Role: model.RoleTeamLead, Status: model.StatusActive, Version: 1},
	{ID: "member_1", TenantID: "t1", Role: model.RoleTeamMember, Status: model.StatusActive, Version: 1},
	{ID: "gone_1", TenantID: "t1", Role: model.RoleAdmin, Status: model.StatusInactive, Version: 1},
}

func SetupServer(t *testing.T, svc *MockBulkService) *echo.Echo {
	t.Helper()
	engine, err := policy.NewEngine()
	require.NoError(t, err)

	store := repository.NewMemoryRepository()
	store.Seed(actors...)

	e := echo.New()
	router.RegisterRoutes(e, handler.NewBulkHandler(svc), engine, store, store)
	return e
}

func headers(userID string) map[string]string {
	return map[string]string{handler.HeaderUserID: userID, handler.HeaderTenantID: "t1"}
}

func PerformRequest(e *echo.Echo, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var bodyReader *strings.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		bodyReader = strings.NewReader(string(b))
	} else {
		bodyReader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
