// Package services defines the application logic for message triage. This
// file centralizes the service-level error values so that handlers can map
// them to HTTP results consistently.
package services

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is the family of input errors. Every input error wraps it,
// so callers can test with errors.Is(err, ErrInvalidInput).
var ErrInvalidInput = errors.New("invalid input")

// Input errors. They are returned before any analysis runs.
var (
	// ErrEmptyInput is returned when the message text is blank.
	ErrEmptyInput = fmt.Errorf("%w: message text is empty", ErrInvalidInput)

	// ErrInputTooLong is returned when the message exceeds MaxInputRunes.
	ErrInputTooLong = fmt.Errorf("%w: message text too long", ErrInvalidInput)

	// ErrMissingUser is returned when no user id is supplied.
	ErrMissingUser = fmt.Errorf("%w: user id is required", ErrInvalidInput)

	// ErrUnknownPlatform is returned for a platform outside domain.Platforms.
	ErrUnknownPlatform = fmt.Errorf("%w: unknown platform", ErrInvalidInput)
)

// ErrSessionNotFound indicates that no context exists for the requested
// session.
var ErrSessionNotFound = errors.New("session not found")
