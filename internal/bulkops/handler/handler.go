package handler

import (
	"net/http"
	"strings"

	"bulkops/internal/bulkops/service"

	"github.com/labstack/echo/v4"
)

// Identity headers set by the upstream auth layer.
const (
	HeaderUserID   = "x-user-id"
	HeaderTenantID = "x-tenant-id"
)

type BulkHandler struct {
	Service service.BulkService
}

func NewBulkHandler(s service.BulkService) *BulkHandler {
	return &BulkHandler{Service: s}
}

// extractIdentity returns the caller and tenant from the request headers.
func extractIdentity(c echo.Context) (callerID, tenantID string, err error) {
	callerID = strings.TrimSpace(c.Request().Header.Get(HeaderUserID))
	if callerID == "" {
		return "", "", errUnauthorized
	}
	tenantID = strings.TrimSpace(c.Request().Header.Get(HeaderTenantID))
	if tenantID == "" {
		return "", "", errNoTenant
	}
	return callerID, tenantID, nil
}

func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
