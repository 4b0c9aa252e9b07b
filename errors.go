package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// genericErrorMessage is shown when a failure carries no API detail.
const genericErrorMessage = "Something went wrong, please try again"

// ErrLoggedOut is returned when the API rejects the configured credentials.
var ErrLoggedOut = errors.New("session is not authenticated")

// APIError is a non-2xx response from the school API.
// Detail is the API's own message for the user; Status is whatever a non-JSON
// error page called itself, kept for diagnostics only.
type APIError struct {
	Path   string
	Code   int
	Detail string
	Status string
}

func (e APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Status != "" {
		return fmt.Sprintf("unexpected status %d from %s: %s", e.Code, e.Path, e.Status)
	}
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.Path)
}

type Phase string

const (
	AddPhase  Phase = "ADD_PHASE"
	DropPhase Phase = "DROP_PHASE"
	Done      Phase = "DONE"
	Failed    Phase = "FAILED"
)

// PhaseError reports the reconciliation phase a request failed in.
// Adds committed before a DropPhase failure are not rolled back.
type PhaseError struct {
	Phase    Phase
	CourseId *int
	Err      error
}

func (e PhaseError) Error() string {
	course := "null"
	if e.CourseId != nil {
		course = fmt.Sprint(*e.CourseId)
	}
	return fmt.Sprintf("%s: course %s: %v", strings.ToLower(string(e.Phase)), course, e.Err)
}

func (e PhaseError) Unwrap() error {
	return e.Err
}

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// UserMessage collapses any error into the single line shown to an operator.
// The API's detail text is passed through verbatim.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) && len(validationErr.Fields) > 0 {
		parts := make([]string, 0, len(validationErr.Fields))
		for _, field := range validationErr.Fields {
			parts = append(parts, fmt.Sprintf("%s: %s", field.Field, field.Error))
		}
		return strings.Join(parts, "; ")
	}

	if errors.Is(err, ErrLoggedOut) {
		return "Your session has expired, please log in again"
	}

	return genericErrorMessage
}
