// Package services defines the business logic for lead assignment, contact
// history, and progress reporting. This file centralizes common service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the
// handler layer.
package services

import "errors"

// Validation errors (bad input shape or range).
var (
	// ErrCountOutOfRange is returned when a bulk-assignment count is outside
	// the accepted [1, 1000] window.
	ErrCountOutOfRange = errors.New("count must be between 1 and 1000")

	// ErrEmptyContent is returned when a history entry is submitted with
	// blank content.
	ErrEmptyContent = errors.New("content is empty")

	// ErrInvalidEntityType is returned when a request names an unknown
	// tracked-entity type.
	ErrInvalidEntityType = errors.New("unknown entity type")

	// ErrInvalidStatus is returned when a lead status update names an
	// unknown status value.
	ErrInvalidStatus = errors.New("unknown lead status")

	// ErrInvalidPeriod is returned when a progress query has end <= start.
	ErrInvalidPeriod = errors.New("period end must be after period start")
)

// Not-found errors.
var (
	// ErrAssigneeNotFound indicates the requested representative does not
	// exist or is not active.
	ErrAssigneeNotFound = errors.New("assignee not found or inactive")

	// ErrEntityNotFound indicates the tracked entity does not exist.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrHistoryNotFound indicates no history entry exists at the requested
	// round.
	ErrHistoryNotFound = errors.New("history entry not found")

	// ErrLeadNotFound indicates the requested lead does not exist.
	ErrLeadNotFound = errors.New("lead not found")
)

// Authorization, conflict, and timeout errors.
var (
	// ErrForbiddenHistory is returned when a caller who is neither the owner
	// of a tracked entity nor an admin attempts to mutate its history.
	ErrForbiddenHistory = errors.New("only the owner or an admin may modify history")

	// ErrRoundConflict is returned when a round reservation keeps losing the
	// insert race after the internal retry budget is exhausted. Callers
	// should re-fetch the next round and resubmit.
	ErrRoundConflict = errors.New("round allocation conflict, retry the request")

	// ErrAssignConflict is returned when a bulk claim keeps losing contested
	// leads after the internal retry budget is exhausted.
	ErrAssignConflict = errors.New("assignment conflict, retry the request")

	// ErrLockTimeout is returned when a lock wait exceeds the store's
	// statement timeout.
	ErrLockTimeout = errors.New("lock wait timed out")
)
