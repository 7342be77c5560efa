package router

import (
	"bulkops/internal/bulkops/handler"
	"bulkops/internal/bulkops/policy"
	"bulkops/internal/bulkops/repository"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(e *echo.Echo, h *handler.BulkHandler, policyEngine *policy.Engine, store repository.RecordStore, ledger repository.OperationLedger) {
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.OPTIONS},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, handler.HeaderUserID, handler.HeaderTenantID},
	}))

	// Health Check
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/api/v1")
	v1.Use(handler.RequestIDMiddleware)
	v1.Use(handler.MetricsMiddleware)

	permissions := handler.NewPermissionMiddleware(policyEngine, store, ledger)
	v1.Use(permissions.Middleware())

	v1.POST("/bulk_operations/preview", h.PostPreview)
	v1.POST("/bulk_operations", h.PostExecute)
	v1.POST("/bulk_operations/:id/undo", h.PostUndo)
	v1.GET("/bulk_operations", h.ListOperations)
	v1.GET("/bulk_operations/:id", h.GetOperation)
	v1.GET("/bulk_operations/:id/audit", h.GetOperationAudit)
}
