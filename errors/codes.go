package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Pipeline construction errors, raised while wiring and before any work starts.
const (
	// ErrCodeDirectionNotSupported indicates a pipe end used in a direction it can't serve.
	ErrCodeDirectionNotSupported ErrorCode = "DIRECTION_NOT_SUPPORTED"
	// ErrCodeNoActiveWorker indicates work scheduled before a worker checkpoint.
	ErrCodeNoActiveWorker ErrorCode = "NO_ACTIVE_WORKER"
	// ErrCodeAlreadyScheduled indicates a worker checkpoint got a second unit of work.
	ErrCodeAlreadyScheduled ErrorCode = "ALREADY_SCHEDULED"
)

// Pipeline execution errors
const (
	// ErrCodeStageFailed indicates a worker faulted.
	ErrCodeStageFailed ErrorCode = "STAGE_FAILED"
	// ErrCodePanic indicates a worker panicked.
	ErrCodePanic ErrorCode = "PANIC"
	// ErrCodeBufferCompleted indicates an add to a buffer after completion.
	ErrCodeBufferCompleted ErrorCode = "BUFFER_COMPLETED"
	// ErrCodeBufferAborted indicates buffer I/O interrupted by an abort.
	ErrCodeBufferAborted ErrorCode = "BUFFER_ABORTED"
	// ErrCodeSchedulerClosed indicates work handed to a joined scheduler.
	ErrCodeSchedulerClosed ErrorCode = "SCHEDULER_CLOSED"
	// ErrCodeInlineRefused indicates a request to run queued work inline.
	ErrCodeInlineRefused ErrorCode = "INLINE_REFUSED"
)

// Resource errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeAlreadyExists indicates the resource already exists.
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
	// ErrCodeConflict indicates the request conflicts with the resource state.
	ErrCodeConflict ErrorCode = "CONFLICT"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Internal errors
const (
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeExternalService indicates an error from an external service.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)
