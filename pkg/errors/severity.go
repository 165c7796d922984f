// Package errors provides severity-aware error types.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Severity indicates error impact level.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// PlanError is a structured error with context.
type PlanError struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Severity    Severity `json:"severity"`
	Subject     string   `json:"subject,omitempty"`
	Recoverable bool     `json:"recoverable"`
	Err         error    `json:"-"`
}

func (e *PlanError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("[%s] %s: %s (subject: %s)", e.Severity, e.Code, e.Message, e.Subject)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Code, e.Message)
}

func (e *PlanError) Unwrap() error {
	return e.Err
}

// Error codes
const (
	ErrCodeGeocodeFailed     = "GEOCODE_FAILED"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeInvalidProfile    = "INVALID_PROFILE"
	ErrCodeInvalidCoordinate = "INVALID_COORDINATE"
	ErrCodeNarrativeFailed   = "NARRATIVE_FAILED"
	ErrCodeCeilingNotMet     = "CEILING_NOT_MET"
)

// NewGeocodeFailedError reports a place that no geocoder could resolve.
func NewGeocodeFailedError(place string, cause error) *PlanError {
	return &PlanError{
		Code:        ErrCodeGeocodeFailed,
		Message:     fmt.Sprintf("Could not resolve location: %s", place),
		Severity:    SeverityFatal,
		Subject:     place,
		Recoverable: false,
		Err:         cause,
	}
}

// NewInvalidRequestError creates an error for a malformed trip request field.
func NewInvalidRequestError(field, reason string) *PlanError {
	return &PlanError{
		Code:        ErrCodeInvalidRequest,
		Message:     reason,
		Severity:    SeverityError,
		Subject:     field,
		Recoverable: false,
	}
}

// NewInvalidProfileError creates an error for an unknown spending profile.
func NewInvalidProfileError(profile string) *PlanError {
	return &PlanError{
		Code:        ErrCodeInvalidProfile,
		Message:     fmt.Sprintf("Unknown spending profile: %q", profile),
		Severity:    SeverityError,
		Subject:     profile,
		Recoverable: false,
	}
}

// NewInvalidCoordinateError creates an error for an out-of-range coordinate pair.
func NewInvalidCoordinateError(lat, lon float64) *PlanError {
	return &PlanError{
		Code:        ErrCodeInvalidCoordinate,
		Message:     fmt.Sprintf("Coordinate out of range: (%v, %v)", lat, lon),
		Severity:    SeverityError,
		Recoverable: false,
	}
}

// NewNarrativeFailedError wraps a generator failure. It is recoverable:
// the caller substitutes a fallback text.
func NewNarrativeFailedError(day string, cause error) *PlanError {
	return &PlanError{
		Code:        ErrCodeNarrativeFailed,
		Message:     "Narrative generation failed",
		Severity:    SeverityWarning,
		Subject:     day,
		Recoverable: true,
		Err:         cause,
	}
}

// NewCeilingNotMetError describes a plan that stayed above the ceiling.
func NewCeilingNotMetError(total, ceiling string) *PlanError {
	return &PlanError{
		Code:        ErrCodeCeilingNotMet,
		Message:     fmt.Sprintf("Best plan costs %s, above ceiling %s", total, ceiling),
		Severity:    SeverityWarning,
		Recoverable: true,
	}
}

// Is reports whether any error in err's chain is a PlanError with the given code.
func Is(err error, code string) bool {
	var pe *PlanError
	if stderrors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}

// Code returns the PlanError code in err's chain, or "" if there is none.
func Code(err error) string {
	var pe *PlanError
	if stderrors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
