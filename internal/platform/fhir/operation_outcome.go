package fhir

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// OperationOutcome severity levels per FHIR R4.
const (
	IssueSeverityFatal       = "fatal"
	IssueSeverityError       = "error"
	IssueSeverityWarning     = "warning"
	IssueSeverityInformation = "information"
)

// OperationOutcome issue type codes per FHIR R4.
const (
	IssueTypeInvalid      = "invalid"
	IssueTypeRequired     = "required"
	IssueTypeNotFound     = "not-found"
	IssueTypeProcessing   = "processing"
	IssueTypeSecurity     = "security"
	IssueTypeLogin        = "login"
	IssueTypeThrottled    = "throttled"
	IssueTypeNotSupported = "not-supported"
	IssueTypeException    = "exception"
	IssueTypeTooCostly    = "too-costly"
)

// ValidationOutcome creates an OperationOutcome for validation errors.
func ValidationOutcome(field, message string) *OperationOutcome {
	return &OperationOutcome{
		ResourceType: "OperationOutcome",
		Issue: []OperationOutcomeIssue{
			{
				Severity:    IssueSeverityError,
				Code:        IssueTypeInvalid,
				Diagnostics: fmt.Sprintf("%s: %s", field, message),
				Expression:  []string{field},
			},
		},
	}
}

// ValidationError reports a rejected request field. ErrorHandler renders it as
// a 400 OperationOutcome whose expression names the field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }

// NewValidationError returns a *ValidationError for field.
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InternalErrorOutcome creates an OperationOutcome for internal server errors.
func InternalErrorOutcome(diagnostics string) *OperationOutcome {
	return NewOperationOutcome(IssueSeverityFatal, IssueTypeException, diagnostics)
}

// issueTypeForStatus picks the issue code that best describes an HTTP status.
func issueTypeForStatus(status int) string {
	switch {
	case status == http.StatusBadRequest:
		return IssueTypeInvalid
	case status == http.StatusUnauthorized:
		return IssueTypeLogin
	case status == http.StatusForbidden:
		return IssueTypeSecurity
	case status == http.StatusNotFound:
		return IssueTypeNotFound
	case status == http.StatusMethodNotAllowed:
		return IssueTypeNotSupported
	case status == http.StatusRequestEntityTooLarge:
		return IssueTypeTooCostly
	case status == http.StatusTooManyRequests:
		return IssueTypeThrottled
	case status >= 500:
		return IssueTypeException
	default:
		return IssueTypeProcessing
	}
}

// ErrorHandler renders every error that escapes a handler as an
// OperationOutcome body. Server-side failures are logged; their details are
// not echoed to the client.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "internal server error"

		var ve *ValidationError
		if errors.As(err, &ve) {
			writeOutcome(c, logger, http.StatusBadRequest, ValidationOutcome(ve.Field, ve.Message))
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if status < 500 {
				message = fmt.Sprintf("%v", he.Message)
			}
		}

		if status >= 500 {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).
				Str("request_id", rid).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}

		severity := IssueSeverityError
		if status >= 500 {
			severity = IssueSeverityFatal
		}
		writeOutcome(c, logger, status, NewOperationOutcome(severity, issueTypeForStatus(status), message))
	}
}

func writeOutcome(c echo.Context, logger zerolog.Logger, status int, outcome *OperationOutcome) {
	var err error
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, outcome)
	}
	if err != nil {
		logger.Error().Err(err).Msg("write error response")
	}
}
