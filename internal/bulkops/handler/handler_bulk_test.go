package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"bulkops/internal/bulkops/model"
	"bulkops/internal/bulkops/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPostPreview(t *testing.T) {
	apiPath := "/api/v1/bulk_operations/preview"
	body := map[string]interface{}{
		"id":             "req-1",
		"operation_type": "RoleChange",
		"target_ids":     []string{"u1", "u2", "u1"},
		"target_value":   "admin",
	}

	t.Run("preview success uses identity headers", func(t *testing.T) {
		svc := new(MockBulkService)
		e := SetupServer(t, svc)

		svc.On("Preview", mock.Anything, mock.MatchedBy(func(req model.BatchOperationRequest) bool {
			return req.ActorID == "member_1" && req.TenantID == "t1" &&
				len(req.TargetIDs) == 2 && req.TargetValue.Value == "ADMIN"
		})).Return(&model.BatchPreview{
			RequestID: "req-1",
			Status:    model.PreviewStatus,
			RiskAssessment: model.RiskAssessment{
				AffectedCount: 2,
				RiskLevel:     model.RiskCritical,
				Risks:         []model.RiskFinding{{Kind: model.FindingPrivilegeEscalation, Severity: model.SeverityCritical}},
			},
		}, nil)

		withSpoofedActor := map[string]interface{}{}
		for k, v := range body {
			withSpoofedActor[k] = v
		}
		withSpoofedActor["actor_id"] = "someone_else"

		rec := PerformRequest(e, http.MethodPost, apiPath, withSpoofedActor, headers("member_1"))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var preview model.BatchPreview
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
		assert.Equal(t, model.RiskCritical, preview.RiskAssessment.RiskLevel)
		assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
		svc.AssertExpectations(t)
	})

	t.Run("missing user header", func(t *testing.T) {
		svc := new(MockBulkService)
		e := SetupServer(t, svc)

		rec := PerformRequest(e, http.MethodPost, apiPath, body, map[string]string{"x-tenant-id": "t1"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		svc.AssertNotCalled(t, "Preview", mock.Anything, mock.Anything)
	})

	t.Run("missing tenant header", func(t *testing.T) {
		svc := new(MockBulkService)
		e := SetupServer(t, svc)

		rec := PerformRequest(e, http.MethodPost, apiPath, body, map[string]string{"x-user-id": "member_1"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("validation error empty targets", func(t *testing.T) {
		svc := new(MockBulkService)
		e := SetupServer(t, svc)

		rec := PerformRequest(e, http.MethodPost, apiPath, map[string]interface{}{
			"operation_type": "RoleChange",
			"target_ids":     []string{},
			"target_value":   "ADMIN",
		}, headers("member_1"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "Preview", mock.Anything, mock.Anything)
	})

	t.Run("malformed target value", func(t *testing.T) {
		svc := new(MockBulkService)
		e := SetupServer(t, svc)

		rec := PerformRequest(e, http.MethodPost, apiPath, map[string]interface{}{
			"operation_type": "RoleChange",
			"target_ids":     []string{"u1"},
			"target_value":   42,
		}, headers("member_1"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not found from service", func(t *testing.T) {
		svc := new(MockBulkService)
		e := SetupServer(t, svc)
		svc.On("Preview", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("%w: targets u9", service.ErrNotFound))

		rec := PerformRequest(e, http.MethodPost, apiPath, body, headers("member_1"))
		assert.Equal(t, http.StatusNotFound, rec.Code)

		var resp model.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "not_found", resp.Error.Code)
		assert.NotEmpty(t, resp.Error.RequestID)
	})
}

func TestPostExecute(t *testing.T) {
	apiPath := "/api/v1/bulk_operations"

	t.Run("admin executes role change", func(t *testing.T) {
		svc := new(MockBulkService)
		e := SetupServer(t, svc)
		svc.On("Execute", mock.Anything, mock.MatchedBy(func(req model.BatchOperationRequest) bool {
			return req.OperationType == model.OpRoleChange && req.ActorID == "admin_1"
		})).Return(&model.BatchOperationRecord{ID: "op-1", Status: model.RecordSuccess}, nil)

		rec := PerformRequest(e, http.MethodPost, apiPath, map[string]interface{}{
			"operation_type": "RoleChange",
			"target_ids":     []string{"u1"},
			"target_value":   "TEAM_LEAD",
		}, headers("admin_1"))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var record model.BatchOperationRecord
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
		assert.Equal(t, "op-1", record.ID)
	})

	t.Run("team lead cannot change roles", func(t *testing.T) {
		svc := new(MockBulkService)
		e := SetupServer(t, svc)

		rec := PerformRequest(e, http.MethodPost, apiPath, map[string]interface{}{
			"operation_type": "RoleChange",
			"target_ids":     []string{"u1"},
			"target_value":   "TEAM_LEAD",
		}, headers("lead_1"))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		svc.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	})

	t.Run("team lead transfers teams", func(t *testing.T) {
		svc := new(MockBulkService)
		e := SetupServer(t, svc)
		svc.On("Execute", mock.Anything, mock.Anything).Return(&model.BatchOperationRecord{ID: "op-2", Status: model.RecordPartial}, nil)

		rec := PerformRequest(e, http.MethodPost, apiPath, map[string]interface{}{
			"operation_type": "TeamTransfer",
			"target_ids":     []string{"u1", "u2"},
			"target_value":   "team-b",
		}, headers("lead_1"))
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("inactive actor is forbidden", func(t *testing.T) {
		svc := new(MockBulkService)
		e := SetupServer(t, svc)

		rec := PerformRequest(e, http.MethodPost, apiPath, map[string]interface{}{
			"operation_type": "TeamTransfer",
			"target_ids":     []string{"u1"},
			"target_value":   "team-b",
		}, headers("gone_1"))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown actor is forbidden", func(t *testing.T) {
		svc := new(MockBulkService)
		e := SetupServer(t, svc)

		rec := PerformRequest(e, http.MethodPost, apiPath, map[string]interface{}{
			"operation_type": "TeamTransfer",
			"target_ids":     []string{"u1"},
			"target_value":   "team-b",
		}, map[string]string{"x-user-id": "admin_1", "x-tenant-id": "t2"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("duplicate id conflict", func(t *testing.T) {
		svc := new(MockBulkService)
		e := SetupServer(t, svc)
		svc.On("Execute", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("%w: operation op-1 already exists", service.ErrConflict))

		rec := PerformRequest(e, http.MethodPost, apiPath, map[string]interface{}{
			"id":             "op-1",
			"operation_type": "Deactivate",
			"target_ids":     []string{"u1"},
		}, headers("admin_1"))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("server error", func(t *testing.T) {
		svc := new(MockBulkService)
		e := SetupServer(t, svc)
		svc.On("Execute", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("%w: connection reset", service.ErrServer))

		rec := PerformRequest(e, http.MethodPost, apiPath, map[string]interface{}{
			"operation_type": "Deactivate",
			"target_ids":     []string{"u1"},
		}, headers("admin_1"))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestPostUndo(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"success", nil, http.StatusOK},
		{"not found", service.ErrNotFound, http.StatusNotFound},
		{"already reversed", fmt.Errorf("%w: already reversed", service.ErrConflict), http.StatusConflict},
		{"expired", service.ErrExpired, http.StatusGone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockBulkService)
			e := SetupServer(t, svc)
			if tt.err != nil {
				svc.On("Undo", mock.Anything, "t1", "op-1", "lead_1").Return(nil, tt.err)
			} else {
				now := time.Now()
				svc.On("Undo", mock.Anything, "t1", "op-1", "lead_1").Return(&model.BatchOperationRecord{ID: "op-1", Status: model.RecordReversed, ReversedAt: &now}, nil)
			}

			rec := PerformRequest(e, http.MethodPost, "/api/v1/bulk_operations/op-1/undo", nil, headers("lead_1"))
			assert.Equal(t, tt.wantStatus, rec.Code)
			svc.AssertExpectations(t)
		})
	}

	t.Run("team member cannot undo", func(t *testing.T) {
		svc := new(MockBulkService)
		e := SetupServer(t, svc)

		rec := PerformRequest(e, http.MethodPost, "/api/v1/bulk_operations/op-1/undo", nil, headers("member_1"))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestGetOperations(t *testing.T) {
	t.Run("get by id", func(t *testing.T) {
		svc := new(MockBulkService)
		e := SetupServer(t, svc)
		svc.On("GetOperation", mock.Anything, "t1", "op-1").Return(&model.BatchOperationRecord{ID: "op-1", Status: model.RecordSuccess}, nil)

		rec := PerformRequest(e, http.MethodGet, "/api/v1/bulk_operations/op-1", nil, headers("member_1"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("list with filters", func(t *testing.T) {
		svc := new(MockBulkService)
		e := SetupServer(t, svc)
		svc.On("ListOperations", mock.Anything, "t1", model.ListOperationsReq{Status: "Partial", Page: 2, Size: 20}).
			Return(&model.OperationList{Items: []*model.BatchOperationRecord{}, Total: 21, Page: 2, Size: 20}, nil)

		rec := PerformRequest(e, http.MethodGet, "/api/v1/bulk_operations?status=Partial&page=2", nil, headers("member_1"))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var list model.OperationList
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		assert.Equal(t, int64(21), list.Total)
	})

	t.Run("list rejects bad status", func(t *testing.T) {
		svc := new(MockBulkService)
		e := SetupServer(t, svc)

		rec := PerformRequest(e, http.MethodGet, "/api/v1/bulk_operations?status=Pending", nil, headers("member_1"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("audit trail", func(t *testing.T) {
		svc := new(MockBulkService)
		e := SetupServer(t, svc)
		svc.On("GetOperationAudit", mock.Anything, "t1", "op-1").Return([]*model.AuditEntry{
			{ID: "a", OperationID: "op-1", TargetID: "u1", Action: model.AuditActionExecute},
		}, nil)

		rec := PerformRequest(e, http.MethodGet, "/api/v1/bulk_operations/op-1/audit", nil, headers("member_1"))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data []*model.AuditEntry `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Data, 1)
	})

	t.Run("health needs no identity", func(t *testing.T) {
		e := SetupServer(t, new(MockBulkService))
		rec := PerformRequest(e, http.MethodGet, "/health", nil, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
