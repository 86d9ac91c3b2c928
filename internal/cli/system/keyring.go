package system

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/julianstephens/crewlog/internal/cli"
	"github.com/julianstephens/crewlog/internal/keyring"
	"github.com/julianstephens/crewlog/internal/storage/postgres"
)

// KeyringSetCmd stores a secret in the OS keyring
type KeyringSetCmd struct {
	Slot   string `arg:"" enum:"db,evidence" help:"Which secret: db (store connection string) or evidence (upload token or cloudinary URL)."`
	Secret string `arg:"" help:"Secret value to store."`
}

func (cmd *KeyringSetCmd) Run(ctx *cli.Context) error {
	slot, err := keyring.ParseSlot(cmd.Slot)
	if err != nil {
		return err
	}

	if slot == keyring.ConnectionString {
		if !postgres.IsConnString(cmd.Secret) && !strings.Contains(cmd.Secret, "host=") {
			return errors.New("connection string must be a valid PostgreSQL connection string")
		}
		if err := postgres.ValidateConnString(cmd.Secret); err != nil {
			if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return fmt.Errorf("invalid connection string: %w", err)
			}
			fmt.Println("⚠️  Warning: Connection string contains embedded credentials.")
			fmt.Println("   It will be stored as-is in the encrypted OS keyring.")
		}
	}

	if err := keyring.Set(slot, cmd.Secret); err != nil {
		return err
	}
	fmt.Printf("✓ %s stored successfully in OS keyring\n", slot)
	return nil
}

// KeyringGetCmd prints a stored secret with its password part masked
type KeyringGetCmd struct {
	Slot string `arg:"" enum:"db,evidence" help:"Which secret to show."`
}

func (cmd *KeyringGetCmd) Run(ctx *cli.Context) error {
	slot, err := keyring.ParseSlot(cmd.Slot)
	if err != nil {
		return err
	}
	secret, err := keyring.Get(slot)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("nothing stored for %s. Use 'crewlog keyring set %s' to store one", cmd.Slot, cmd.Slot)
		}
		return err
	}
	fmt.Println(maskSecret(secret))
	return nil
}

type KeyringDeleteCmd struct {
	Slot string `arg:"" enum:"db,evidence" help:"Which secret to delete."`
}

func (cmd *KeyringDeleteCmd) Run(ctx *cli.Context) error {
	slot, err := keyring.ParseSlot(cmd.Slot)
	if err != nil {
		return err
	}
	if err := keyring.Delete(slot); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("nothing stored for %s", cmd.Slot)
		}
		return err
	}
	fmt.Printf("✓ %s deleted from OS keyring\n", slot)
	return nil
}

// KeyringStatusCmd checks the availability of the OS keyring
type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		fmt.Println("❌ OS keyring is not available on this system")
		return errors.New("keyring unavailable")
	}
	fmt.Println("✓ OS keyring is available")
	for _, slot := range []keyring.Slot{keyring.ConnectionString, keyring.EvidenceToken} {
		if _, err := keyring.Get(slot); err == nil {
			fmt.Printf("✓ %s is stored\n", slot)
		} else {
			fmt.Printf("ℹ No %s stored\n", slot)
		}
	}
	return nil
}

// maskSecret hides the password of URL-shaped secrets and the value of
// password= pairs. Bare tokens keep only their first four characters.
func maskSecret(secret string) string {
	if strings.Contains(secret, "://") {
		u, err := url.Parse(secret)
		if err == nil && u.User != nil {
			if _, set := u.User.Password(); set {
				u.User = url.UserPassword(u.User.Username(), "****")
				return strings.Replace(u.String(), "%2A%2A%2A%2A", "****", 1)
			}
		}
		return secret
	}
	if strings.Contains(secret, "password=") {
		parts := strings.Fields(secret)
		for i, part := range parts {
			if strings.HasPrefix(part, "password=") {
				parts[i] = "password=****"
			}
		}
		return strings.Join(parts, " ")
	}
	if strings.Contains(secret, "=") || len(secret) <= 4 {
		return secret
	}
	return secret[:4] + strings.Repeat("*", 8)
}
