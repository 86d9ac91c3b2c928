package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"

	"github.com/julianstephens/crewlog/internal/evidence"
	"github.com/julianstephens/crewlog/internal/keyring"
	"github.com/julianstephens/crewlog/internal/models"
	"github.com/julianstephens/crewlog/internal/session"
	"github.com/julianstephens/crewlog/internal/storage"
	"github.com/julianstephens/crewlog/internal/submission"
)

type Context struct {
	Ctx   context.Context
	Store storage.Provider
	// LocalStore is the device-local store for in-progress sessions.
	LocalStore    storage.SessionStore
	Operative     string
	EvidenceURL   string
	EvidenceToken string
	// AssumeYes skips interactive confirmations.
	AssumeYes bool
}

// Sessions initializes the device-local session store on first use.
func (c *Context) Sessions() (storage.SessionStore, error) {
	if c.LocalStore == nil {
		return nil, fmt.Errorf("no session store configured")
	}
	if i, ok := c.LocalStore.(interface{ Init() error }); ok {
		if err := i.Init(); err != nil {
			return nil, fmt.Errorf("failed to open session store: %w", err)
		}
	}
	return c.LocalStore, nil
}

// Machine returns a session machine over the shared and local stores.
func (c *Context) Machine() (*session.Machine, error) {
	sessions, err := c.Sessions()
	if err != nil {
		return nil, err
	}
	return session.NewMachine(c.Store, sessions), nil
}

// Uploader builds the evidence backend. The token comes from the keyring
// when one is stored there, otherwise from the flag or environment.
func (c *Context) Uploader() (evidence.Uploader, error) {
	token := keyring.Lookup(keyring.EvidenceToken, c.EvidenceToken)
	rawURL := c.EvidenceURL
	if strings.HasPrefix(token, "cloudinary://") && !strings.HasPrefix(rawURL, "cloudinary://") {
		rawURL = token
	}
	return evidence.NewFromURL(rawURL, token)
}

// Submitter wires the submission pipeline for the configured operative.
func (c *Context) Submitter() (*submission.Submitter, error) {
	sessions, err := c.Sessions()
	if err != nil {
		return nil, err
	}
	up, err := c.Uploader()
	if err != nil {
		return nil, err
	}
	return submission.NewSubmitter(c.Store, sessions, evidence.NewPipeline(up), c.Operative), nil
}

// Confirm asks a yes/no question. With AssumeYes set it returns true without
// prompting.
func (c *Context) Confirm(title, description string) (bool, error) {
	if c.AssumeYes {
		return true, nil
	}
	ok := false
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if err != nil {
		return false, err
	}
	return ok, nil
}

// ExpandPath resolves a leading ~ against the home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// ParsePrice parses a non-negative money amount in whole cents.
func ParsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q", s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("price cannot be negative: %s", s)
	}
	if !models.IsCents(d) {
		return decimal.Zero, fmt.Errorf("price %q has more than 2 decimal places", s)
	}
	return d, nil
}

// FormatPrice renders a price with two decimals, or "-" when unset.
func FormatPrice(p decimal.NullDecimal) string {
	if !p.Valid {
		return "-"
	}
	return p.Decimal.StringFixed(2)
}

// ParseStatuses parses a list of booking status names.
func ParseStatuses(names []string) ([]models.BookingStatus, error) {
	var out []models.BookingStatus
	for _, name := range names {
		s := models.BookingStatus(strings.ToLower(strings.TrimSpace(name)))
		if !s.Valid() {
			return nil, fmt.Errorf("unknown booking status %q", name)
		}
		out = append(out, s)
	}
	return out, nil
}

// ResolveEntry finds a ledger entry by 1-based position, full id or unique id
// prefix.
func ResolveEntry(ledger models.Ledger, ref string) (models.LedgerEntry, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(ledger) {
			return nil, fmt.Errorf("no ledger entry #%d", n)
		}
		return ledger[n-1], nil
	}
	var match models.LedgerEntry
	for _, e := range ledger {
		if e.EntryID() == ref {
			return e, nil
		}
		if strings.HasPrefix(e.EntryID(), ref) {
			if match != nil {
				return nil, fmt.Errorf("entry prefix %q is ambiguous", ref)
			}
			match = e
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no ledger entry %q", ref)
	}
	return match, nil
}

// ResolveChecklistKey accepts a full checklist key or a 1-based task number.
func ResolveChecklistKey(t models.ChecklistTemplate, ref string) (string, error) {
	keys := t.Keys()
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(keys) {
			return "", fmt.Errorf("no checklist task #%d", n)
		}
		return keys[n-1], nil
	}
	return ref, nil
}

// ShortID trims a uuid for display.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
