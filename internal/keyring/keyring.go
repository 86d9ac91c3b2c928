package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/crewlog/internal/constants"
)

var (
	// ErrNotFound is returned when no secret is stored under the requested slot
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Slot names one secret crewlog keeps in the OS keyring.
type Slot string

const (
	// ConnectionString holds the shared store DSN.
	ConnectionString Slot = constants.DefaultKeyringUser
	// EvidenceToken holds the bearer token or cloudinary URL for photo uploads.
	EvidenceToken Slot = constants.EvidenceKeyringUser
)

func ParseSlot(s string) (Slot, error) {
	switch s {
	case "db", "database", string(ConnectionString):
		return ConnectionString, nil
	case "evidence", string(EvidenceToken):
		return EvidenceToken, nil
	}
	return "", fmt.Errorf("unknown keyring slot %q (want db or evidence)", s)
}

// Get retrieves a secret. Returns ErrNotFound if nothing is stored.
func Get(slot Slot) (string, error) {
	secret, err := keyring.Get(constants.AppName, string(slot))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return secret, nil
}

func Set(slot Slot, secret string) error {
	if secret == "" {
		return fmt.Errorf("%s cannot be empty", slot)
	}
	if err := keyring.Set(constants.AppName, string(slot), secret); err != nil {
		return fmt.Errorf("failed to store credentials in keyring: %w", err)
	}
	return nil
}

func Delete(slot Slot) error {
	err := keyring.Delete(constants.AppName, string(slot))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete credentials from keyring: %w", err)
	}
	return nil
}

// GetConnectionString retrieves the store DSN from the OS keyring.
func GetConnectionString() (string, error) {
	return Get(ConnectionString)
}

// IsAvailable checks if the OS keyring is available on the current system.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}

// Lookup returns the stored secret, or fallback when the slot is empty or the
// keyring cannot be reached.
func Lookup(slot Slot, fallback string) string {
	secret, err := Get(slot)
	if err != nil {
		return fallback
	}
	return secret
}
