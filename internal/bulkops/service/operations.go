package service

import (
	"context"
	"fmt"
	"strings"

	"bulkops/internal/bulkops/model"
)

// GetOperation returns the ledger record of an operation in the tenant.
// Operations of other tenants are reported as not found.
func (s *Service) GetOperation(ctx context.Context, tenantID, operationID string) (*model.BatchOperationRecord, error) {
	operationID = strings.TrimSpace(operationID)
	if operationID == "" {
		return nil, fmt.Errorf("%w: operation id is required", ErrValidation)
	}

	record, err := s.Ledger.Get(ctx, operationID)
	if err != nil {
		return nil, s.readError("get operation", err)
	}
	if record == nil || record.TenantID != tenantID {
		return nil, fmt.Errorf("%w: operation %s", ErrNotFound, operationID)
	}
	return record, nil
}

func (s *Service) ListOperations(ctx context.Context, tenantID string, req model.ListOperationsReq) (*model.OperationList, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, fmt.Errorf("%w: tenant is required", ErrValidation)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	items, total, err := s.Ledger.List(ctx, model.OperationFilter{
		TenantID:      tenantID,
		Status:        model.RecordStatus(req.Status),
		OperationType: model.OperationType(req.OperationType),
		Page:          req.Page,
		Size:          req.Size,
	})
	if err != nil {
		return nil, s.readError("list operations", err)
	}
	if items == nil {
		items = []*model.BatchOperationRecord{}
	}

	return &model.OperationList{
		Items: items,
		Total: total,
		Page:  req.Page,
		Size:  req.Size,
	}, nil
}

// GetOperationAudit returns the audit trail of an operation, execution
// entries first.
func (s *Service) GetOperationAudit(ctx context.Context, tenantID, operationID string) ([]*model.AuditEntry, error) {
	if _, err := s.GetOperation(ctx, tenantID, operationID); err != nil {
		return nil, err
	}
	entries, err := s.Audit.FindByOperation(ctx, tenantID, operationID)
	if err != nil {
		return nil, s.readError("get operation audit", err)
	}
	if entries == nil {
		entries = []*model.AuditEntry{}
	}
	return entries, nil
}
