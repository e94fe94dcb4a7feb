package repository

import (
	"errors"
	"strings"
)

// Common repository errors
var (
	ErrNotFound         = errors.New("record not found")
	ErrUnknownRecipient = errors.New("unknown recipient")
	ErrNotInFolder      = errors.New("message not in folder")
	ErrConflict         = errors.New("concurrent transition conflict")
	ErrDuplicateEntry   = errors.New("duplicate entry")
	ErrInvalidInput     = errors.New("invalid input")
)

// isDuplicateKeyError checks if the error is a duplicate key violation
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "duplicate key") ||
		strings.Contains(errStr, "UNIQUE constraint") ||
		strings.Contains(errStr, "23505") // PostgreSQL unique violation code
}
