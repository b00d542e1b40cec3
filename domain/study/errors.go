package study

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// ErrValidation covers malformed input: out-of-order or duplicate
	// times, negative times or values, missing identifiers.
	ErrValidation = errors.New("invalid measurement data")

	// ErrInsufficientData is returned when an operation needs more
	// measurements than the subject has.
	ErrInsufficientData = errors.New("insufficient measurements")

	// ErrEmptyGroup is returned when group statistics or a survival curve
	// is requested for a group with zero subjects.
	ErrEmptyGroup = errors.New("empty group")
)

// Error constructors with context
func NewValidationError(subject SubjectID, reason string) error {
	return fmt.Errorf("%w: subject %s: %s", ErrValidation, subject, reason)
}

func NewInsufficientDataError(subject SubjectID, have, need int) error {
	return fmt.Errorf("%w: subject %s has %d measurements, need %d", ErrInsufficientData, subject, have, need)
}

func NewEmptyGroupError(group GroupID) error {
	return fmt.Errorf("%w: %s", ErrEmptyGroup, group)
}

// Error checking helpers
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsInsufficientDataError(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

func IsEmptyGroupError(err error) bool {
	return errors.Is(err, ErrEmptyGroup)
}
