package types

import "errors"

// Error kinds surfaced by every operation. Callers match them with errors.Is;
// the returned errors wrap these values with the offending identifier.
var (
	ErrAlreadyInitialized = errors.New("RSU registry already initialized")
	ErrNotInitialized     = errors.New("RSU registry not initialized")
	ErrDuplicateRSU       = errors.New("RSU already registered")
	ErrRSUNotFound        = errors.New("RSU not found in registry")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrDuplicateVehicle   = errors.New("vehicle already exists")
	ErrVehicleNotFound    = errors.New("vehicle does not exist")
	ErrDuplicateReport    = errors.New("report already exists")
	ErrReportNotFound     = errors.New("report does not exist")
	ErrAlreadyValidated   = errors.New("report has already been validated")

	// ErrInvalidTx is returned for input that fails stateless validation.
	ErrInvalidTx = errors.New("invalid transaction")
)
