// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are stable, lowercase snake_case strings carried in the ErrorResponse
// envelope next to the HTTP status. Clients branch on the code; the message is
// for humans.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "input_too_long",
//	  "message": "message text too long: max 4000 characters"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeUnavailable      = "unavailable"

	// Domain-specific:
	ErrCodeMissingUser     = "missing_user"
	ErrCodeEmptyInput      = "empty_input"
	ErrCodeInputTooLong    = "input_too_long"
	ErrCodeUnknownPlatform = "unknown_platform"
	ErrCodeListFailed      = "list_failed"
)
