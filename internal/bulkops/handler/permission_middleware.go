package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"bulkops/internal/bulkops/model"
	"bulkops/internal/bulkops/policy"
	"bulkops/internal/bulkops/repository"

	"github.com/labstack/echo/v4"
)

// ContextKeyActorRole holds the caller's role once the permission check passed.
const ContextKeyActorRole = "actor_role"

// PermissionMiddleware checks the caller's role against the bulk operation
// policy before any engine call.
type PermissionMiddleware struct {
	policyEngine *policy.Engine
	store        repository.RecordStore
	ledger       repository.OperationLedger
}

func NewPermissionMiddleware(engine *policy.Engine, store repository.RecordStore, ledger repository.OperationLedger) *PermissionMiddleware {
	return &PermissionMiddleware{
		policyEngine: engine,
		store:        store,
		ledger:       ledger,
	}
}

// Middleware returns the Echo middleware function
func (m *PermissionMiddleware) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// 1. Find the route policy
			route := m.policyEngine.Route(c.Request().Method, c.Path())
			if route == nil {
				// No policy for this path, pass through
				return next(c)
			}

			// 2. Identity
			callerID, tenantID, err := extractIdentity(c)
			if err != nil {
				return respondError(c, err)
			}

			// 3. Operation type from the body or the stored operation
			opType, err := m.operationType(c, route.OperationTypeSource, tenantID)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, model.ErrorResponse{
					Error: model.ErrorDetail{Code: "internal_error", Message: err.Error()},
				})
			}

			// 4. Resolve the caller inside the tenant
			actors, err := m.store.FetchByIDs(c.Request().Context(), tenantID, []string{callerID})
			if err != nil {
				return c.JSON(http.StatusInternalServerError, model.ErrorResponse{
					Error: model.ErrorDetail{Code: "internal_error", Message: err.Error()},
				})
			}
			if len(actors) == 0 || actors[0].Status != model.StatusActive {
				return forbidden(c)
			}
			actor := actors[0]

			// 5. Check permission
			if !m.policyEngine.CheckPermission(actor.Role, route.Action, opType) {
				return forbidden(c)
			}
			for _, action := range route.AlsoRequires {
				if !m.policyEngine.CheckPermission(actor.Role, action, opType) {
					return forbidden(c)
				}
			}

			c.Set(ContextKeyActorRole, actor.Role)
			return next(c)
		}
	}
}

// operationType resolves the operation type a route acts on. A
// "ledger.operation_type" source reads the stored operation named by the :id
// path param; an operation outside the tenant resolves to no type and the
// handler reports it as not found.
func (m *PermissionMiddleware) operationType(c echo.Context, source, tenantID string) (model.OperationType, error) {
	if source == "" {
		return "", nil
	}
	if !strings.HasPrefix(source, "ledger.") {
		return model.OperationType(extractValue(c, source)), nil
	}

	record, err := m.ledger.Get(c.Request().Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		return "", err
	}
	if record == nil || record.TenantID != tenantID {
		return "", nil
	}
	return record.OperationType, nil
}

func forbidden(c echo.Context) error {
	return c.JSON(http.StatusForbidden, model.ErrorResponse{
		Error: model.ErrorDetail{
			Code:      "forbidden",
			Message:   "You do not have permission to perform this action",
			RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
		},
	})
}

// extractValue extracts a value from the request based on source specification
// e.g., "body.operation_type", "query.status", "path.id", "header.x-tenant-id"
func extractValue(c echo.Context, source string) string {
	parts := strings.SplitN(source, ".", 2)
	if len(parts) != 2 {
		return ""
	}

	field := parts[1]
	switch parts[0] {
	case "body":
		bodyBytes, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return ""
		}
		// Restore body for handler
		c.Request().Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		var bodyData map[string]interface{}
		if len(bodyBytes) == 0 || json.Unmarshal(bodyBytes, &bodyData) != nil {
			return ""
		}
		if str, ok := bodyData[field].(string); ok {
			return str
		}
	case "query":
		return c.QueryParam(field)
	case "path":
		return c.Param(field)
	case "header":
		return c.Request().Header.Get(field)
	}

	return ""
}
