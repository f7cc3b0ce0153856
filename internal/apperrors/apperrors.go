package apperrors

import (
	"errors"
	"fmt"
)

// Categories. Handlers map errors to responses by category, never by the
// concrete sentinel.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict with current state")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrDispatch           = errors.New("notification dispatch failed")

	ErrInvalidRequest = errors.New("invalid request body")
)

var (
	ErrMissingConflictDetails     = &categorized{msg: "conflict details are required when a conflict is declared", category: ErrValidation}
	ErrMissingDeclineReason       = &categorized{msg: "decline reason is required", category: ErrValidation}
	ErrConflictPreventsAcceptance = &categorized{msg: "a declared conflict of interest prevents acceptance", category: ErrValidation}
	ErrUnknownAction              = &categorized{msg: "unknown response action", category: ErrValidation}

	ErrAlreadyResponded  = &categorized{msg: "invitation has already been responded to", category: ErrConflict}
	ErrExpired           = &categorized{msg: "response deadline has passed", category: ErrConflict}
	ErrInvalidTransition = &categorized{msg: "invalid workflow transition", category: ErrConflict}
	ErrEditorRequired    = &categorized{msg: "manuscript has no editor", category: ErrConflict}
	ErrStaleWrite        = &categorized{msg: "row was changed by another writer", category: ErrConflict}
	ErrAssignmentPending = &categorized{msg: "manuscript already has a pending editor assignment", category: ErrConflict}
	ErrReviewNotAccepted = &categorized{msg: "review can only be submitted for an accepted invitation", category: ErrConflict}
	ErrSweepInProgress   = &categorized{msg: "a deadline sweep is already running", category: ErrConflict}
)

type categorized struct {
	msg      string
	category error
}

func (e *categorized) Error() string { return e.msg }

func (e *categorized) Is(target error) bool { return target == e.category }

// TransitionError reports an event the state machine does not accept in the
// current status.
type TransitionError struct {
	From  string
	Event string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event '%s' is not allowed in status '%s'", e.Event, e.From)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition || target == ErrConflict
}

// DispatchError wraps a failed or timed-out notification send.
type DispatchError struct {
	TemplateID string
	Recipient  string
	Err        error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch '%s' to '%s': %v", e.TemplateID, e.Recipient, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

func (e *DispatchError) Is(target error) bool { return target == ErrDispatch }
