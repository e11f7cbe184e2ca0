package services

import (
	"errors"
	"fmt"
)

// ErrGenerationFailed wraps every transport or provider failure from a Generator.
var ErrGenerationFailed = errors.New("failed to query model")

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		for f, msg := range e.Fields {
			return fmt.Sprintf("validation error: %s: %s", f, msg)
		}
	}
	return "validation error"
}

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type RateLimitError struct{ Message string }

func (e *RateLimitError) Error() string { return e.Message }

// ErrUnexpectedShape means the response parsed but lacks the section the
// request asked for. It travels inside a *ParseError.
var ErrUnexpectedShape = errors.New("unexpected AI response format")

// ParseError is the failure half of Normalized. Raw is the untouched generator output.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse AI response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func notFound(what string, id int64) error {
	return &NotFoundError{Message: fmt.Sprintf("%s %d not found", what, id)}
}
