package system

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/crewlog/internal/cli"
	"github.com/julianstephens/crewlog/internal/keyring"
	"github.com/julianstephens/crewlog/internal/models"
	"github.com/julianstephens/crewlog/internal/storage"
)

type DoctorCmd struct{}

type check struct {
	name string
	// warnOnly checks never fail the run
	warnOnly bool
	// needsDB checks are skipped when the store is unreachable
	needsDB bool
	run     func(ctx *cli.Context) error
}

var checks = []check{
	{name: "Session store", run: checkSessionStore},
	{name: "Evidence backend", run: checkEvidence},
	{name: "Operative identity", warnOnly: true, run: checkOperative},
	{name: "OS keyring", warnOnly: true, run: checkKeyring},
	{name: "Work records", needsDB: true, run: checkWorkRecords},
	{name: "Leftover sessions", needsDB: true, warnOnly: true, run: checkLeftoverSessions},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false
	dbReachable := true
	if err := ctx.Store.Load(); err != nil {
		fmt.Printf("❌ Database reachable: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
		dbReachable = false
	} else {
		fmt.Printf("✓ Database reachable: OK (%s)\n", ctx.Store.GetConfigPath())
	}

	for _, c := range checks {
		if c.needsDB && !dbReachable {
			fmt.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			fmt.Printf("✓ %s: OK\n", c.name)
		case c.warnOnly:
			fmt.Printf("⚠ %s: WARNING\n", c.name)
			fmt.Printf("   %v\n", err)
		default:
			fmt.Printf("❌ %s: FAIL\n", c.name)
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	fmt.Println()
	if hasError {
		fmt.Println("Some checks failed. Please review the errors above.")
		return errors.New("diagnostics failed")
	}
	fmt.Println("All checks passed!")
	return nil
}

func checkSessionStore(ctx *cli.Context) error {
	sessions, err := ctx.Sessions()
	if err != nil {
		return err
	}
	_, err = sessions.ListSessions()
	return err
}

func checkEvidence(ctx *cli.Context) error {
	up, err := ctx.Uploader()
	if err != nil {
		return err
	}
	fmt.Printf("   Uploading to %s\n", up.Describe())
	return nil
}

func checkOperative(ctx *cli.Context) error {
	if strings.TrimSpace(ctx.Operative) == "" {
		return errors.New("no operative set; submissions will be refused (use --operative or CREWLOG_OPERATIVE)")
	}
	return nil
}

func checkKeyring(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		return errors.New("OS keyring is not available; secrets must come from flags or the environment")
	}
	return nil
}

// checkWorkRecords finds bookings past submission that lost their record.
// Such bookings cannot be audited.
func checkWorkRecords(ctx *cli.Context) error {
	bookings, err := ctx.Store.ListBookings(ctx.Ctx, models.BookingCompleted, models.BookingFinalized)
	if err != nil {
		return fmt.Errorf("failed to list bookings: %w", err)
	}
	var missing []string
	for _, b := range bookings {
		_, err := ctx.Store.GetWorkRecord(ctx.Ctx, b.ID)
		if errors.Is(err, storage.ErrNotFound) {
			missing = append(missing, fmt.Sprintf("%s (%s)", b.ID, b.Status))
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read work record for %s: %w", b.ID, err)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%d booking(s) have no work record: %s", len(missing), strings.Join(missing, ", "))
	}
	return nil
}

// checkLeftoverSessions reports local sessions whose booking no longer
// accepts work, typically a submit whose local clear failed.
func checkLeftoverSessions(ctx *cli.Context) error {
	sessions, err := ctx.Sessions()
	if err != nil {
		return err
	}
	stored, err := sessions.ListSessions()
	if err != nil {
		return err
	}
	var stale []string
	for _, ws := range stored {
		b, err := ctx.Store.GetBooking(ctx.Ctx, ws.BookingID)
		if errors.Is(err, storage.ErrNotFound) {
			stale = append(stale, ws.BookingID+" (booking deleted)")
			continue
		}
		if err != nil {
			return err
		}
		if !b.Status.AcceptsWork() {
			stale = append(stale, fmt.Sprintf("%s (%s)", b.ID, b.Status))
		}
	}
	if len(stale) > 0 {
		return fmt.Errorf("stale local sessions: %s; remove with 'crewlog session discard'", strings.Join(stale, ", "))
	}
	return nil
}
