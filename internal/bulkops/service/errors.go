package service

import (
	"context"
	"errors"
	"fmt"

	"bulkops/internal/bulkops/repository"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrExpired    = errors.New("undo window expired")
	ErrServer     = errors.New("server error")
)

func isServiceError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrServer)
}

// mapTxError classifies an error that aborted a transaction. Errors already
// raised by the service pass through unchanged.
func mapTxError(operationID string, err error) error {
	switch {
	case err == nil:
		return nil
	case isServiceError(err):
		return err
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: operation %s already exists", ErrConflict, operationID)
	case errors.Is(err, repository.ErrAlreadyReversed):
		return fmt.Errorf("%w: already reversed", ErrConflict)
	case errors.Is(err, repository.ErrWriteConflict):
		return fmt.Errorf("%w: a concurrent transaction touched the same targets, preview again and retry", ErrConflict)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: operation %s aborted: %w", ErrServer, operationID, err)
	default:
		return fmt.Errorf("%w: operation %s: %w", ErrServer, operationID, err)
	}
}
