package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/crewlog/internal/constants"
	"github.com/julianstephens/crewlog/internal/models"
	"github.com/julianstephens/crewlog/internal/reconcile"
)

func PrintBooking(b models.Booking) {
	fmt.Printf("  %s [%s] unit %s", b.ID, b.Status, b.UnitID)
	if b.ScheduledAt != "" {
		fmt.Printf(" at %s", b.ScheduledAt)
	}
	if b.AssignedCrewID != "" {
		fmt.Printf(" crew %s", b.AssignedCrewID)
	}
	if b.Price.Valid {
		fmt.Printf(" price %s", FormatPrice(b.Price))
	}
	fmt.Println()
}

// PrintSession shows the checklist with task numbers and the ledger with
// entry numbers, the handles the session commands accept.
func PrintSession(ws models.WorkSession) {
	fmt.Printf("Booking %s (unit %s): %s", ws.BookingID, ws.UnitID, ws.Status)
	if ws.IsActive() {
		fmt.Printf(" since %s", ws.StartedAt.Local().Format(constants.DateTimeFormat))
	}
	fmt.Println()
	if !ws.IsActive() {
		return
	}

	fmt.Printf("\nChecklist (%d/%d):\n", ws.Checklist.Done(), ws.Template.TaskCount())
	n := 0
	for _, section := range ws.Template.Sections {
		fmt.Printf("  %s\n", section.Title)
		for _, task := range section.Tasks {
			n++
			mark := " "
			if ws.Checklist[models.ChecklistKey(section.Title, task)] {
				mark = "x"
			}
			fmt.Printf("    %2d. [%s] %s\n", n, mark, task)
		}
	}

	fmt.Println("\nLedger:")
	if len(ws.Ledger) == 0 {
		fmt.Println("  (empty)")
	}
	for i, e := range ws.Ledger {
		fmt.Printf("  %2d. %-8s %-16s %s\n", i+1, ShortID(e.EntryID()), e.Kind(), describeEntry(e))
	}

	fmt.Printf("\nPhotos queued: %d\n", len(ws.Photos))
	for i, p := range ws.Photos {
		fmt.Printf("  %2d. %s (%d bytes)\n", i+1, p.Name, len(p.Data))
	}
}

func describeEntry(e models.LedgerEntry) string {
	if std, ok := e.(models.StandardExchange); ok {
		return fmt.Sprintf("%s %d/%d", std.Item.Name, std.ExchangedQuantity, std.ExpectedQuantity)
	}
	return fmt.Sprintf("%s x%d", e.Ref().Name, e.Qty())
}

func PrintRecord(rec models.WorkRecord) {
	fmt.Printf("Work record %s for booking %s\n", rec.ID, rec.BookingID)
	fmt.Printf("  Submitted by: %s\n", rec.SubmittedBy)
	fmt.Printf("  Duration:     %s (%s - %s)\n", rec.Duration().Round(time.Second),
		rec.StartedAt.Local().Format(constants.DateTimeFormat), rec.EndedAt.Local().Format(constants.DateTimeFormat))
	fmt.Printf("  Checklist:    %d/%d done\n", rec.ChecklistSnapshot.Done(), len(rec.ChecklistSnapshot))
	fmt.Printf("  Photos:       %d\n", len(rec.PhotoReferences))
	for _, ref := range rec.PhotoReferences {
		fmt.Printf("    %s\n", ref)
	}
	fmt.Printf("  Ledger:       %d entries\n", len(rec.LedgerSnapshot))
}

// PrintDraft renders the audit table with line numbers for --edit.
func PrintDraft(d reconcile.Draft) {
	title := "Audit"
	if d.ReAudit {
		title = "Re-audit"
	}
	fmt.Printf("%s of booking %s [%s], current price %s\n", title, d.Booking.ID, d.Booking.Status, FormatPrice(d.Booking.Price))
	if len(d.Lines) == 0 {
		fmt.Println("  No billable items.")
		return
	}
	fmt.Printf("  %-3s %-24s %4s %10s %-14s %10s %10s  %s\n", "#", "Item", "Qty", "Default", "Source", "Unit", "Total", "Remarks")
	for i, l := range d.Lines {
		flag := ""
		if l.Gap() && !l.Edited {
			flag = " !"
		}
		fmt.Printf("  %-3d %-24s %4d %10s %-14s %10s %10s  %s%s\n", i+1, truncate(l.Item.Name, 24), l.Quantity,
			l.ResolvedUnitPrice.StringFixed(2), l.PriceSource, l.EditedUnitPrice.StringFixed(2),
			l.Total().StringFixed(2), l.Remarks, flag)
	}
	fmt.Printf("  %s\n", strings.Repeat("-", 60))
	fmt.Printf("  Billable total: %s\n", d.Total().StringFixed(2))
	if gaps := d.Unpriced(); len(gaps) > 0 {
		fmt.Printf("  ! %d item(s) have no price; set one with --edit before finalizing a non-zero price\n", len(gaps))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "~"
}
