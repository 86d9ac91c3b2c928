package bookings

import (
	"errors"
	"fmt"

	"github.com/julianstephens/crewlog/internal/cli"
	"github.com/julianstephens/crewlog/internal/models"
	"github.com/julianstephens/crewlog/internal/storage"
)

type ListCmd struct {
	Status []string `short:"s" help:"Only show bookings in these statuses (pending, active, completed, finalized)." sep:","`
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	statuses, err := cli.ParseStatuses(c.Status)
	if err != nil {
		return err
	}
	bookings, err := ctx.Store.ListBookings(ctx.Ctx, statuses...)
	if err != nil {
		return fmt.Errorf("failed to list bookings: %w", err)
	}
	if len(bookings) == 0 {
		fmt.Println("No bookings found")
		return nil
	}
	fmt.Println("Bookings:")
	for _, b := range bookings {
		cli.PrintBooking(b)
	}
	return nil
}

type ShowCmd struct {
	ID string `arg:"" help:"Booking ID."`
}

func (c *ShowCmd) Run(ctx *cli.Context) error {
	b, err := ctx.Store.GetBooking(ctx.Ctx, c.ID)
	if err != nil {
		return fmt.Errorf("booking %s: %w", c.ID, err)
	}
	cli.PrintBooking(b)
	if b.ChecklistTemplateID != "" {
		fmt.Printf("  Checklist template: %s\n", b.ChecklistTemplateID)
	}

	rec, err := ctx.Store.GetWorkRecord(ctx.Ctx, b.ID)
	switch {
	case err == nil:
		fmt.Println()
		cli.PrintRecord(rec)
	case errors.Is(err, storage.ErrNotFound):
		if b.Status.Reconcilable() {
			fmt.Println("  ! no work record on file")
		}
	default:
		return err
	}

	if b.Status == models.BookingFinalized {
		set, err := ctx.Store.GetBillingAdjustments(ctx.Ctx, b.ID)
		if err != nil {
			return err
		}
		fmt.Printf("\nBilling adjustments (%s):\n", models.SumAdjustments(set).StringFixed(2))
		for _, a := range set {
			fmt.Printf("  %-24s x%d @ %s = %s  %s\n", a.ItemName, a.Quantity,
				a.EditedUnitPrice.StringFixed(2), a.TotalPrice.StringFixed(2), a.Remarks)
		}
	}
	return nil
}

// ActivateCmd marks a pending booking as in progress.
type ActivateCmd struct {
	ID string `arg:"" help:"Booking ID."`
}

func (c *ActivateCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.TransitionBooking(ctx.Ctx, c.ID, models.BookingActive); err != nil {
		return err
	}
	fmt.Printf("✓ Booking %s is active\n", c.ID)
	return nil
}

// DeactivateCmd moves an active booking back to pending. A local session in
// progress is kept, but the operative is asked first.
type DeactivateCmd struct {
	ID string `arg:"" help:"Booking ID."`
}

func (c *DeactivateCmd) Run(ctx *cli.Context) error {
	sessions, err := ctx.Sessions()
	if err != nil {
		return err
	}
	if ws, err := sessions.LoadSession(c.ID); err == nil && ws.IsActive() {
		ok, err := ctx.Confirm("Work is in progress on "+c.ID, "Deactivate the booking anyway? The local session is kept.")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Aborted.")
			return nil
		}
	}
	if err := ctx.Store.TransitionBooking(ctx.Ctx, c.ID, models.BookingPending); err != nil {
		return err
	}
	fmt.Printf("✓ Booking %s is pending\n", c.ID)
	return nil
}
