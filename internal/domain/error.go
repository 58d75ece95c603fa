package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound                = errors.New("entity not found")
	ErrDuplicateTransaction    = errors.New("transaction id already processed")
	ErrInvalidTransition       = errors.New("payment status transition not allowed")
	ErrGatewayUnavailable      = errors.New("payment gateway unavailable")
	ErrEnrollmentInconsistency = errors.New("completed payment has missing enrollment grants")
	ErrInvalidArgument         = errors.New("invalid argument")
	ErrOperationFailed         = errors.New("operation failed")
	ErrInvalidExecContext      = errors.New("invalid execution context")
	ErrReadDatabaseRow         = errors.New("failed reading database row")
)
