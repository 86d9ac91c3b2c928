package errors

import (
	"fmt"
	"os"
	"strings"

	"github.com/julianstephens/crewlog/internal/logger"
)

// ValidationError reports malformed local input. The session it was raised
// against is left untouched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError for the given field.
func Invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// UploadFailure is returned when a queued photo could not be stored.
// The submission is aborted and the session stays resumable.
type UploadFailure struct {
	Index   int
	PhotoID string
	Name    string
	Err     error
}

func (e *UploadFailure) Error() string {
	return fmt.Sprintf("upload of photo %d (%s) failed: %v", e.Index+1, e.Name, e.Err)
}

func (e *UploadFailure) Unwrap() error { return e.Err }

// WriteFailure is returned when the record or status write fails after the
// photos were uploaded. Uploaded objects are left in place.
type WriteFailure struct {
	Step string
	Err  error
}

func (e *WriteFailure) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *WriteFailure) Unwrap() error { return e.Err }

// MissingRecordError means a booking reached a post-submission status without
// a work record. Reconciliation refuses to proceed.
type MissingRecordError struct {
	BookingID string
	Status    string
}

func (e *MissingRecordError) Error() string {
	return fmt.Sprintf("booking %s is %s but has no work record; refusing to finalize without an audit trail", e.BookingID, e.Status)
}

// PricingGapError lists billable items that resolved to no price and still
// need a manual unit price before a non-zero total can be finalized.
type PricingGapError struct {
	BookingID string
	Items     []string
}

func (e *PricingGapError) Error() string {
	return fmt.Sprintf("booking %s: no catalog or unit price for %s; enter a unit price for each before finalizing",
		e.BookingID, strings.Join(e.Items, ", "))
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
