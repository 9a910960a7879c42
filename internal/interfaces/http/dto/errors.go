package dto

import "net/http"

// Error codes shared between the domain layer and the API surface.
// Domain errors carry these codes directly; the map below decides the
// HTTP status each one translates to.
const (
	// ErrCodeValidation is used for invalid input
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeInvalidTransition is used when a status move is not on the graph
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	// ErrCodePolicyViolation is used when an operation falls outside policy
	ErrCodePolicyViolation = "POLICY_VIOLATION"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeAlreadyExists is used when creating a duplicate resource
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
	// ErrCodeUnauthorized is used when the actor role may not perform the action
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeChannelUnavailable is used when the real-time channel is down
	ErrCodeChannelUnavailable = "CHANNEL_UNAVAILABLE"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
)

// errorCodeHTTPStatus maps error codes to HTTP status codes
var errorCodeHTTPStatus = map[string]int{
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeBadRequest:          http.StatusBadRequest,
	ErrCodeUnauthorized:        http.StatusForbidden,
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeInvalidTransition:   http.StatusUnprocessableEntity,
	ErrCodePolicyViolation:     http.StatusUnprocessableEntity,
	ErrCodeChannelUnavailable:  http.StatusServiceUnavailable,
	ErrCodeInternal:            http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
