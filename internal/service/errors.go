package service

import "errors"

// Client side.
var (
	ErrOffline        = errors.New("server is not reachable")
	ErrSyncInProgress = errors.New("synchronization already in progress")

	ErrTaskNotFound  = errors.New("task not found in sync queue")
	ErrDuplicateTask = errors.New("task already queued")
	ErrInvalidAction = errors.New("invalid action")

	// ErrForceRejected is returned when the server reports a conflict for a
	// force-update request.
	ErrForceRejected = errors.New("force update rejected by server")

	// ErrTaskPanicked wraps a panic recovered while processing one task.
	ErrTaskPanicked = errors.New("task processing panicked")
)

// Server side.
var (
	ErrInvalidDataProvided     = errors.New("invalid data provided")
	ErrTokenIsExpiredOrInvalid = errors.New("token is expired or invalid")
	ErrTokenCreationFailed     = errors.New("token creation failed")
	ErrVersionIsNotSpecified   = errors.New("app version is not specified")
)
