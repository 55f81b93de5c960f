package database

import (
	"errors"

	"github.com/lib/pq"
	apperrors "github.com/tastefull/backend/pkg/errors"
)

const uniqueViolation = "23505"

// writeError maps unique violations to conflicts and everything else to internal errors
func writeError(message string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return apperrors.NewConflictError(message + ": already exists")
	}
	return apperrors.NewInternalError(message, err)
}
