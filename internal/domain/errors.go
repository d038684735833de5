package domain

import "errors"

// Error kinds. Every error produced by poll rules wraps exactly one of them,
// so callers classify with errors.Is and show Error() to the client.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
)

type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

func NewValidationError(msg string) error { return &Error{kind: ErrValidation, msg: msg} }

func NewNotFoundError(msg string) error { return &Error{kind: ErrNotFound, msg: msg} }

func NewConflictError(msg string) error { return &Error{kind: ErrConflict, msg: msg} }

func NewForbiddenError(msg string) error { return &Error{kind: ErrForbidden, msg: msg} }

var (
	ErrNoActivePoll = NewNotFoundError("No active poll found")
	ErrRoomNotFound = NewNotFoundError("Room not found")

	ErrMissingPollFields = NewValidationError("Missing required fields: question, options, createdBy")
	ErrEmptyOptions      = NewValidationError("Options must be a non-empty array")
	ErrDuplicateOptions  = NewValidationError("Options must be distinct")
	ErrInvalidRoomCode   = NewValidationError("Room code must be 6 characters of A-Z or 0-9")
	ErrRoomCodeRequired  = NewValidationError("Room code is required")
	ErrMissingVoteFields = NewValidationError("Missing required fields: name, value")
	ErrInvalidOption     = NewValidationError("Invalid option value")
	ErrCloserRequired    = NewValidationError("User name is required to close the poll")
	ErrInvalidDuration   = NewValidationError("Timer duration must be a positive number of seconds")

	ErrPollAlreadyClosed = NewConflictError("Poll is already closed")
	ErrPollClosed        = NewConflictError("Poll is closed. Voting is not allowed.")
	ErrPollStillOpen     = NewConflictError("Poll is still open. Results available only when closed.")
	ErrTimerNotStarted   = NewConflictError("Timer has not been started yet. Voting is not allowed.")
	ErrTimerExpired      = NewConflictError("Timer has expired. Voting is no longer allowed.")
	ErrTimerRunning      = NewConflictError("Timer is already running")
	ErrTimerPollClosed   = NewConflictError("Cannot start timer on a closed poll")

	ErrNotPollCreator = NewForbiddenError("Only the creator can start the timer")
)
