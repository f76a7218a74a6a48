package models

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrBadRequest     = errors.New("bad request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInternalServer = errors.New("internal server error")

	// ErrNoLastAction is returned when a retry is requested before any action
	// has been recorded for the session.
	ErrNoLastAction = errors.New("no action recorded to retry")

	// ErrRetryInFlight reports expected contention: another retry for the same
	// session is already running. Handlers map it to 409, not 500.
	ErrRetryInFlight = errors.New("a retry is already in flight")
)
