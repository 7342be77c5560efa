package handler

import (
	"net/http"

	"bulkops/internal/bulkops/model"

	"github.com/labstack/echo/v4"
)

// bindBatchRequest reads a batch request body. Actor and tenant always come
// from the identity headers, never from the body.
func bindBatchRequest(c echo.Context) (model.BatchOperationRequest, error) {
	var req model.BatchOperationRequest

	callerID, tenantID, err := extractIdentity(c)
	if err != nil {
		return req, err
	}
	if err := c.Bind(&req); err != nil {
		return req, &model.ErrorDetail{Code: "bad_request", Message: "Invalid body"}
	}
	req.ActorID = callerID
	req.TenantID = tenantID
	return req, nil
}

func (h *BulkHandler) respondBindError(c echo.Context, err error) error {
	if detail, ok := err.(*model.ErrorDetail); ok {
		return c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: *detail})
	}
	return respondError(c, err)
}

// PostPreview handles POST /bulk_operations/preview
func (h *BulkHandler) PostPreview(c echo.Context) error {
	req, err := bindBatchRequest(c)
	if err != nil {
		return h.respondBindError(c, err)
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, validationError(err))
	}

	preview, err := h.Service.Preview(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, preview)
}

// PostExecute handles POST /bulk_operations
func (h *BulkHandler) PostExecute(c echo.Context) error {
	req, err := bindBatchRequest(c)
	if err != nil {
		return h.respondBindError(c, err)
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, validationError(err))
	}

	record, err := h.Service.Execute(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, record)
}

// PostUndo handles POST /bulk_operations/:id/undo
func (h *BulkHandler) PostUndo(c echo.Context) error {
	callerID, tenantID, err := extractIdentity(c)
	if err != nil {
		return respondError(c, err)
	}

	record, err := h.Service.Undo(c.Request().Context(), tenantID, c.Param("id"), callerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

// GetOperation handles GET /bulk_operations/:id
func (h *BulkHandler) GetOperation(c echo.Context) error {
	_, tenantID, err := extractIdentity(c)
	if err != nil {
		return respondError(c, err)
	}

	record, err := h.Service.GetOperation(c.Request().Context(), tenantID, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, record)
}

// ListOperations handles GET /bulk_operations
func (h *BulkHandler) ListOperations(c echo.Context) error {
	_, tenantID, err := extractIdentity(c)
	if err != nil {
		return respondError(c, err)
	}

	var req model.ListOperationsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error: model.ErrorDetail{Code: "bad_request", Message: "Invalid parameters"},
		})
	}
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, validationError(err))
	}

	list, err := h.Service.ListOperations(c.Request().Context(), tenantID, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

// GetOperationAudit handles GET /bulk_operations/:id/audit
func (h *BulkHandler) GetOperationAudit(c echo.Context) error {
	_, tenantID, err := extractIdentity(c)
	if err != nil {
		return respondError(c, err)
	}

	entries, err := h.Service.GetOperationAudit(c.Request().Context(), tenantID, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": entries})
}
