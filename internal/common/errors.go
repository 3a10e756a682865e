package common

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds surfaced by the parsing pipeline. Wrap them with NewError so
// callers can match with errors.Is and still reach the underlying cause.
var (
	ErrUnsupportedFormat            = errors.New("unsupported format")
	ErrExtractionFailure            = errors.New("extraction failure")
	ErrEmptyDocument                = errors.New("empty document")
	ErrExtractionValidationFailure  = errors.New("extraction validation failure")
	ErrExtractionServiceUnavailable = errors.New("extraction service unavailable")
	ErrExtractionTimeout            = errors.New("extraction timeout")
	ErrPersistence                  = errors.New("persistence error")
	ErrNotFound                     = errors.New("not found")
)

var kindCodes = []struct {
	kind error
	code string
}{
	{ErrUnsupportedFormat, "UNSUPPORTED_FORMAT"},
	{ErrExtractionFailure, "EXTRACTION_FAILURE"},
	{ErrEmptyDocument, "EMPTY_DOCUMENT"},
	{ErrExtractionValidationFailure, "EXTRACTION_VALIDATION_FAILURE"},
	{ErrExtractionServiceUnavailable, "EXTRACTION_SERVICE_UNAVAILABLE"},
	{ErrExtractionTimeout, "EXTRACTION_TIMEOUT"},
	{ErrPersistence, "PERSISTENCE_ERROR"},
	{ErrNotFound, "NOT_FOUND"},
}

// FieldError names one schema violation in an LLM response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError carries an error kind, a human message and the root cause.
type AppError struct {
	Kind    error
	Message string
	Cause   error
	Fields  []FieldError
}

func NewError(kind error, message string, cause error) *AppError {
	return &AppError{Kind: kind, Message: message, Cause: cause}
}

func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// WithFields attaches field-level validation errors.
func (e *AppError) WithFields(fields []FieldError) *AppError {
	e.Fields = fields
	return e
}

// Code returns the stable machine-readable code for err, or "INTERNAL_ERROR"
// when err does not belong to the taxonomy.
func Code(err error) string {
	return CodeOf(Kind(err))
}

// Kind returns the taxonomy sentinel err belongs to, or nil. The outermost
// AppError wins when kinds are nested.
func Kind(err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	for _, kc := range kindCodes {
		if errors.Is(err, kc.kind) {
			return kc.kind
		}
	}
	return nil
}

// CodeOf maps a taxonomy sentinel to its code.
func CodeOf(kind error) string {
	for _, kc := range kindCodes {
		if kc.kind == kind {
			return kc.code
		}
	}
	return "INTERNAL_ERROR"
}

// Fields returns the validation field errors carried by err, if any.
func Fields(err error) []FieldError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Fields
	}
	return nil
}
