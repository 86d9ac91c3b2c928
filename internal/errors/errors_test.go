package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "simple error",
			err:      errors.New("something went wrong"),
			expected: "Error: something went wrong",
		},
		{
			name:     "validation error",
			err:      Invalid("quantity", "must be between %d and %d", 0, 10),
			expected: "Error: validation failed: quantity: must be between 0 and 10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.err); got != tt.expected {
				t.Errorf("Format(%v) = %q, want %q", tt.err, got, tt.expected)
			}
		})
	}
}

func TestFormatf(t *testing.T) {
	got := Formatf("booking %s not found", "b-1")
	if got != "Error: booking b-1 not found" {
		t.Errorf("Formatf() = %q", got)
	}
}

func TestUploadFailureUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("submit: %w", &UploadFailure{Index: 1, PhotoID: "p2", Name: "sink.jpg", Err: cause})

	var uf *UploadFailure
	if !errors.As(err, &uf) {
		t.Fatal("errors.As did not find UploadFailure")
	}
	if uf.PhotoID != "p2" {
		t.Errorf("PhotoID = %q, want p2", uf.PhotoID)
	}
	if !errors.Is(err, cause) {
		t.Error("UploadFailure does not unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "photo 2 (sink.jpg)") {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestWriteFailureUnwrap(t *testing.T) {
	cause := errors.New("deadlock detected")
	err := &WriteFailure{Step: "write work record", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("WriteFailure does not unwrap to its cause")
	}
	if err.Error() != "write work record failed: deadlock detected" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestMissingRecordAndPricingGapMessages(t *testing.T) {
	mr := &MissingRecordError{BookingID: "b-9", Status: "completed"}
	if !strings.Contains(mr.Error(), "b-9 is completed") {
		t.Errorf("unexpected message: %s", mr.Error())
	}

	gap := &PricingGapError{BookingID: "b-9", Items: []string{"Air freshener", "Bin liners"}}
	if !strings.Contains(gap.Error(), "Air freshener, Bin liners") {
		t.Errorf("unexpected message: %s", gap.Error())
	}
}
