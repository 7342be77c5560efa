package model

import "strings"

type ListOperationsReq struct {
	Status        string `query:"status" validate:"omitempty,oneof=Success Partial Failed Reversed"`
	OperationType string `query:"operation_type" validate:"omitempty,operation_type"`
	Page          int    `query:"page" validate:"omitempty,min=1"`
	Size          int    `query:"size" validate:"omitempty,min=1,max=100"`
}

func (r *ListOperationsReq) Validate() error {
	r.Status = strings.TrimSpace(r.Status)
	r.OperationType = strings.TrimSpace(r.OperationType)

	if err := GetValidator().Struct(r); err != nil {
		return FormatValidationError(err)
	}

	if r.Page == 0 {
		r.Page = 1
	}
	if r.Size == 0 {
		r.Size = 20
	}
	return nil
}

// OperationFilter is the repository-level query for the ledger.
type OperationFilter struct {
	TenantID      string
	Status        RecordStatus
	OperationType OperationType
	Page          int
	Size          int
}

type OperationList struct {
	Items []*BatchOperationRecord `json:"items"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Size  int                     `json:"size"`
}
