package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error types
var (
	ErrValidation       = errors.New("validation error")
	ErrFileTooLarge     = errors.New("file too large")
	ErrUnsupportedType  = errors.New("unsupported file type")
	ErrExtractionFailed = errors.New("extraction failed")
	ErrAnalysisFailed   = errors.New("analysis failed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotFound         = errors.New("resource not found")
	ErrInternal         = errors.New("internal error")
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	HTTPStatus int               `json:"-"`
	Details    map[string]string `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Validation creates a validation error with field details
func Validation(message string, details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Message:    message,
		Code:       "VALIDATION_ERROR",
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// FileTooLarge rejects an upload over the size cap
func FileTooLarge(limit int64) *AppError {
	return &AppError{
		Err:        ErrFileTooLarge,
		Message:    fmt.Sprintf("File size exceeds %dMB limit. Please choose a smaller file.", limit/(1024*1024)),
		Code:       "FILE_TOO_LARGE",
		HTTPStatus: http.StatusRequestEntityTooLarge,
	}
}

// UnsupportedType rejects an upload that is not TXT, PDF or DOCX
func UnsupportedType(name string) *AppError {
	return &AppError{
		Err:        ErrUnsupportedType,
		Message:    "Unsupported file type. Please upload a TXT, PDF or DOCX file.",
		Code:       "UNSUPPORTED_TYPE",
		HTTPStatus: http.StatusUnsupportedMediaType,
		Details:    map[string]string{"file": name},
	}
}

// ExtractionFailed wraps a failure to read text out of a file
func ExtractionFailed(err error) *AppError {
	return &AppError{
		Err:        errors.Join(ErrExtractionFailed, err),
		Message:    "Failed to extract text from file. Please try again or use text input.",
		Code:       "EXTRACTION_FAILED",
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// AnalysisFailed wraps any provider failure
func AnalysisFailed(err error) *AppError {
	return &AppError{
		Err:        errors.Join(ErrAnalysisFailed, err),
		Message:    "We couldn't complete the analysis. Please try again.",
		Code:       "ANALYSIS_FAILED",
		HTTPStatus: http.StatusBadGateway,
	}
}

// Unauthorized creates an unauthorized error
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:        ErrUnauthorized,
		Message:    message,
		Code:       "UNAUTHORIZED",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NotFound creates a not found error
func NotFound(resource string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		Code:       "NOT_FOUND",
		HTTPStatus: http.StatusNotFound,
	}
}

// Internal creates an internal error
func Internal(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "internal server error",
		Code:       "INTERNAL_ERROR",
		HTTPStatus: http.StatusInternalServerError,
	}
}

// From converts any error into an AppError, keeping existing ones intact
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
