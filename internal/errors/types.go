package errors

import "errors"

// The launcher's failure taxonomy. Every failure is terminal; there are
// no retries and no degraded modes.
var (
	ErrBuildFailed        = errors.New("image build failed")
	ErrRuntimeUnavailable = errors.New("container runtime unavailable")
	ErrLaunchFailed       = errors.New("container launch failed")
	ErrConfigInvalid      = errors.New("configuration invalid")
	ErrFileSystemFailed   = errors.New("filesystem operation failed")
)

// LaunchError wraps an underlying error with the failure class and
// user-facing context.
type LaunchError struct {
	Type        error
	Context     string
	Cause       string
	Suggestion  string
	OriginalErr error
}

func (e *LaunchError) Error() string {
	return e.OriginalErr.Error()
}

func (e *LaunchError) Unwrap() error {
	return e.OriginalErr
}

func NewLaunchError(errorType error, context, cause, suggestion string, originalErr error) *LaunchError {
	return &LaunchError{
		Type:        errorType,
		Context:     context,
		Cause:       cause,
		Suggestion:  suggestion,
		OriginalErr: originalErr,
	}
}

func NewBuildError(context, cause, suggestion string, originalErr error) *LaunchError {
	return NewLaunchError(ErrBuildFailed, context, cause, suggestion, originalErr)
}

func NewRuntimeUnavailableError(context, cause, suggestion string, originalErr error) *LaunchError {
	return NewLaunchError(ErrRuntimeUnavailable, context, cause, suggestion, originalErr)
}

func NewRunError(context, cause, suggestion string, originalErr error) *LaunchError {
	return NewLaunchError(ErrLaunchFailed, context, cause, suggestion, originalErr)
}

func NewConfigError(context, cause, suggestion string, originalErr error) *LaunchError {
	return NewLaunchError(ErrConfigInvalid, context, cause, suggestion, originalErr)
}

func NewFileSystemError(context, cause, suggestion string, originalErr error) *LaunchError {
	return NewLaunchError(ErrFileSystemFailed, context, cause, suggestion, originalErr)
}
