package errs

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrEmptyCode           = errors.New("source code is empty")
	ErrMissingQuestion     = errors.New("question is required")
	ErrExecutionTimeout    = errors.New("execution deadline exceeded")
	ErrQuestionNotFound    = errors.New("question not found")
	ErrSessionNotFound     = errors.New("clock session not found")
)

// ExecutionTransportError is a network or non-2xx failure of the execution backend.
// StatusCode is zero when no response was received.
type ExecutionTransportError struct {
	StatusCode int
	Err        error
}

func (e *ExecutionTransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("execution backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("execution backend unreachable: %v", e.Err)
}

func (e *ExecutionTransportError) Unwrap() error { return e.Err }

// ExpirationTransportError is a failed expire-timer call.
type ExpirationTransportError struct {
	AssessmentID string
	StatusCode   int
	Err          error
}

func (e *ExpirationTransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to expire attempts for assessment %s: status %d", e.AssessmentID, e.StatusCode)
	}
	return fmt.Sprintf("failed to expire attempts for assessment %s: %v", e.AssessmentID, e.Err)
}

func (e *ExpirationTransportError) Unwrap() error { return e.Err }

// FetchError is a failed read of an assessment from the LMS backend.
type FetchError struct {
	Resource   string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch %s: status %d", e.Resource, e.StatusCode)
	}
	return fmt.Sprintf("failed to fetch %s: %v", e.Resource, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
