package app

import (
	"errors"
	"fmt"

	"ragdash/internal/apiclient"
)

var (
	ErrFileTooLarge         = errors.New("file exceeds the maximum upload size")
	ErrFileType             = errors.New("file type is not allowed")
	ErrEmptyName            = errors.New("session name is required")
	ErrUnknownProvider      = errors.New("unknown llm provider")
	ErrInvalidSort          = errors.New("invalid sort option")
	ErrEmptyQuestion        = errors.New("question is empty")
	ErrNoActiveSession      = errors.New("no chat session is selected")
	ErrSubmissionInProgress = errors.New("a question is already being answered")
	ErrSessionNotFound      = errors.New("chat session not found")
	ErrViewChanged          = errors.New("the conversation changed before the answer arrived")
	ErrUploadCancelled      = errors.New("upload cancelled")
)

// ValidationError rejects input before any network call is made.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// StateError rejects an operation the current view state does not allow.
type StateError struct {
	Err error
}

func (e *StateError) Error() string {
	return e.Err.Error()
}

func (e *StateError) Unwrap() error {
	return e.Err
}

type UploadError struct {
	FileName string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s failed: %v", e.FileName, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// UserMessage returns text suitable for a notification.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var uploadErr *UploadError
	if errors.As(err, &uploadErr) {
		return uploadErr.FileName + ": " + UserMessage(uploadErr.Err)
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Error()
	}
	var stateErr *StateError
	if errors.As(err, &stateErr) {
		return stateErr.Error()
	}
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return apiclient.FallbackMessage
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsState(err error) bool {
	var s *StateError
	return errors.As(err, &s)
}
