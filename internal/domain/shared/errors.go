// Package shared holds the types every JobQuest domain package agrees on:
// error kinds, events and small value objects. It imports nothing outside
// the standard library.
package shared

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrNotFound         = errors.New("entity not found")
	ErrAlreadyExists    = errors.New("entity already exists")
	ErrInvalidEntity    = errors.New("invalid entity")
	ErrValidation       = errors.New("validation error")
	ErrInvalidID        = errors.New("invalid ID")
	ErrInvalidInput     = errors.New("invalid input")
	ErrEmptyValue       = errors.New("value cannot be empty")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrStateTransition  = errors.New("invalid state transition")
	ErrAlreadyProcessed = errors.New("already processed")
)

// DomainError ties an error kind to the domain operation that produced it.
type DomainError struct {
	Domain  string
	Op      string
	Kind    error
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	msg := e.Domain + "." + e.Op + ": " + e.Message
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the cause, or the kind when there is none.
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is matches either the kind or anything the cause matches.
func (e *DomainError) Is(target error) bool {
	return (e.Kind != nil && errors.Is(e.Kind, target)) ||
		(e.Err != nil && errors.Is(e.Err, target))
}

// NewDomainError builds a DomainError without a cause.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message}
}

// WrapError builds a DomainError around cause.
func WrapError(domain, op string, kind error, message string, cause error) *DomainError {
	return &DomainError{Domain: domain, Op: op, Kind: kind, Message: message, Err: cause}
}

// Progress.
var (
	ErrAlreadyCheckedIn        = NewDomainError("progress", "CheckIn", ErrAlreadyProcessed, "already checked in today")
	ErrAlreadySubmitted        = NewDomainError("progress", "SubmitJob", ErrAlreadyExists, "job already submitted")
	ErrInvalidMissionID        = NewDomainError("progress", "CompleteMission", ErrInvalidID, "unknown mission id")
	ErrUnknownApplication      = NewDomainError("progress", "FindApplication", ErrNotFound, "no application for job")
	ErrInvalidStatus           = NewDomainError("progress", "ParseStatus", ErrInvalidInput, "unknown application status")
	ErrInvalidStatusTransition = NewDomainError("progress", "UpdateApplication", ErrStateTransition, "invalid application status transition")
)

// Quest catalog and profiles.
var (
	ErrUnknownJob      = NewDomainError("quest", "Find", ErrNotFound, "job not in catalog")
	ErrInvalidAction   = NewDomainError("quest", "AddJob", ErrInvalidInput, "action must be save or submit")
	ErrProfileNotFound = NewDomainError("quest", "FindProfile", ErrNotFound, "profile not found")
	ErrProfileExists   = NewDomainError("quest", "CreateProfile", ErrAlreadyExists, "profile already exists")
	ErrInvalidProfile  = NewDomainError("quest", "ValidateProfile", ErrInvalidEntity, "invalid profile")
)

// Follow-ups.
var ErrUnknownFollowUp = NewDomainError("followup", "Find", ErrNotFound, "follow-up not found")

// IsNotFound reports errors of kind ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsWarning reports the errors shown as a warning toast instead of a
// failure. Neither changes state.
func IsWarning(err error) bool {
	return errors.Is(err, ErrAlreadyCheckedIn) || errors.Is(err, ErrAlreadySubmitted)
}
