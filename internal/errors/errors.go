package errors

import "fmt"

// ErrorCode represents a Tally error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"    // 400
	ErrNotFound         ErrorCode = "NOT_FOUND"          // 404
	ErrNoOpenClock      ErrorCode = "NO_OPEN_CLOCK"      // 409
	ErrClockAlreadyOpen ErrorCode = "CLOCK_ALREADY_OPEN" // 409
	ErrBlockInvalid     ErrorCode = "BLOCK_INVALID"      // 422
	ErrInternal         ErrorCode = "INTERNAL"           // 500
)

// TallyError represents a structured error with code, status, and details.
type TallyError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *TallyError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *TallyError {
	return &TallyError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a note or activity that cannot be found.
func NewNotFound(identifier string) *TallyError {
	return &TallyError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewNoOpenClock creates a 409 error for clock-out/cancel with nothing running.
func NewNoOpenClock(target string) *TallyError {
	msg := "no open clock"
	var details map[string]any
	if target != "" {
		msg = fmt.Sprintf("no open clock for %q", target)
		details = map[string]any{"target": target}
	}
	return &TallyError{
		Code:    ErrNoOpenClock,
		Status:  409,
		Message: msg,
		Details: details,
	}
}

// NewClockAlreadyOpen creates a 409 error for a double clock-in.
func NewClockAlreadyOpen(target string) *TallyError {
	return &TallyError{
		Code:    ErrClockAlreadyOpen,
		Status:  409,
		Message: fmt.Sprintf("clock already open for %q", target),
		Details: map[string]any{"target": target},
	}
}

// NewBlockInvalid creates a 422 error for a malformed activities block.
// The line number is 1-based within the containing note.
func NewBlockInvalid(path string, line int, msg string) *TallyError {
	return &TallyError{
		Code:    ErrBlockInvalid,
		Status:  422,
		Message: fmt.Sprintf("%s:%d: %s", path, line, msg),
		Details: map[string]any{"path": path, "line": line},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *TallyError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &TallyError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a TallyError with the given code.
func Is(err error, code ErrorCode) bool {
	if tErr, ok := err.(*TallyError); ok {
		return tErr.Code == code
	}
	return false
}
