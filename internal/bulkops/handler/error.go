package handler

import (
	"errors"
	"net/http"

	"bulkops/internal/bulkops/model"
	"bulkops/internal/bulkops/service"

	"github.com/labstack/echo/v4"
)

var (
	errUnauthorized = errors.New("x-user-id header is required")
	errNoTenant     = errors.New("x-tenant-id header is required")
)

// Helper to map errors to HTTP status and body
func httpError(err error) (int, model.ErrorResponse) {
	var code string
	var status int

	switch {
	case errors.Is(err, errUnauthorized), errors.Is(err, errNoTenant):
		status = http.StatusUnauthorized
		code = "unauthorized"
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
		code = "bad_request"
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
		code = "not_found"
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
		code = "conflict"
	case errors.Is(err, service.ErrExpired):
		status = http.StatusGone
		code = "expired"
	default:
		status = http.StatusInternalServerError
		code = "internal_error"
	}

	return status, model.ErrorResponse{
		Error: model.ErrorDetail{Code: code, Message: err.Error()},
	}
}

func validationError(err error) model.ErrorResponse {
	var detail *model.ErrorDetail
	if errors.As(err, &detail) {
		return model.ErrorResponse{Error: *detail}
	}
	return model.ErrorResponse{
		Error: model.ErrorDetail{Code: "bad_request", Message: err.Error()},
	}
}

// respondError writes the mapped error with the request id attached.
func respondError(c echo.Context, err error) error {
	status, body := httpError(err)
	body.Error.RequestID = c.Response().Header().Get(echo.HeaderXRequestID)
	return c.JSON(status, body)
}
