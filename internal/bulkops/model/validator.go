package model

import (
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

func GetValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("operation_type", func(fl validator.FieldLevel) bool {
			return OperationType(fl.Field().String()).Valid()
		})
	})
	return validate
}

// FormatValidationError converts validator errors to ErrorDetail.
// Only the first field error is reported.
func FormatValidationError(err error) *ErrorDetail {
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		e := validationErrors[0]
		return &ErrorDetail{
			Code:    "bad_request",
			Message: "Field validation for '" + e.Field() + "' failed on the '" + e.Tag() + "' tag",
		}
	}

	return &ErrorDetail{
		Code:    "bad_request",
		Message: err.Error(),
	}
}
