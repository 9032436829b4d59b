package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified error type of the module. Wiring failures, stage
// faults and configuration problems are all reported as *AppError so callers
// can branch on Code instead of on message text.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is reports whether target is an *AppError carrying the same code, so that
// package-level sentinels match freshly built errors of the same kind.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// --- Pipeline construction ---

// DirectionNotSupported reports a pipe end asked to run in a direction it has
// no worker function for. action is "sucking from" or "blowing into".
func DirectionNotSupported(action, end string) *AppError {
	return &AppError{
		Code: ErrCodeDirectionNotSupported, Message: fmt.Sprintf("%s %s is not supported", action, end),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"end": end},
	}
}

// NoActiveWorker reports a unit of work scheduled before any worker checkpoint.
func NoActiveWorker(verb string) *AppError {
	return &AppError{
		Code: ErrCodeNoActiveWorker, Message: "can't schedule work without a worker part",
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"verb": verb},
	}
}

// AlreadyScheduled reports a second unit of work attached to one worker.
func AlreadyScheduled(worker string) *AppError {
	return &AppError{
		Code: ErrCodeAlreadyScheduled, Message: fmt.Sprintf("worker %s already has a unit of work", worker),
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"worker": worker},
	}
}

// --- Pipeline execution ---

// StageFailed wraps the fault of a single worker.
func StageFailed(worker, verb string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeStageFailed, Message: fmt.Sprintf("%s failed while %s", worker, verb),
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"worker": worker, "verb": verb},
		Cause:      cause,
	}
}

// Panicked converts a recovered panic value into an error.
func Panicked(value any) *AppError {
	if err, ok := value.(error); ok {
		return &AppError{
			Code: ErrCodePanic, Message: "panic", HTTPStatus: http.StatusInternalServerError, Cause: err,
		}
	}
	return &AppError{
		Code: ErrCodePanic, Message: fmt.Sprintf("panic: %v", value),
		HTTPStatus: http.StatusInternalServerError,
	}
}

// --- Common Error Constructors ---

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Details: details,
	}
}

// AlreadyExists creates a new AppError for a resource that already exists.
func AlreadyExists(resource string) *AppError {
	return &AppError{
		Code: ErrCodeAlreadyExists, Message: fmt.Sprintf("A %s with these details already exists.", resource),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"resource": resource},
	}
}

// Conflict creates a new AppError for a request the resource's current
// state does not allow.
func Conflict(message string) *AppError {
	return &AppError{
		Code: ErrCodeConflict, Message: message,
		HTTPStatus: http.StatusConflict,
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// Internal creates a new AppError for an internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
	}
}

// ExternalServiceError creates a new AppError for an error from an external service.
func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeExternalService, Message: fmt.Sprintf("The %s service encountered an error.", service),
		HTTPStatus: http.StatusBadGateway,
		Details:    map[string]any{"service": service}, Cause: cause,
	}
}
