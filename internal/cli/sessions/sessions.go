package sessions

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/julianstephens/crewlog/internal/cli"
	"github.com/julianstephens/crewlog/internal/models"
	"github.com/julianstephens/crewlog/internal/session"
)

func open(ctx *cli.Context, bookingID string) (*session.Session, error) {
	m, err := ctx.Machine()
	if err != nil {
		return nil, err
	}
	return m.Open(ctx.Ctx, bookingID)
}

// openActive opens the booking's session and refuses to go on unless it was
// started.
func openActive(ctx *cli.Context, bookingID string) (*session.Session, error) {
	s, err := open(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !s.State().IsActive() {
		return nil, fmt.Errorf("no work in progress on %s; run 'crewlog session start %s' first", bookingID, bookingID)
	}
	return s, nil
}

type StartCmd struct {
	Booking string `arg:"" help:"Booking ID."`
	Restart bool   `help:"Discard the session in progress and start over."`
}

func (c *StartCmd) Run(ctx *cli.Context) error {
	s, err := open(ctx, c.Booking)
	if err != nil {
		return err
	}
	if s.HasUnsavedWork() {
		if !c.Restart {
			fmt.Printf("Resuming work on %s\n\n", c.Booking)
			cli.PrintSession(s.State())
			return nil
		}
		ok, err := ctx.Confirm("Discard work in progress on "+c.Booking+"?", "Checklist progress, ledger quantities and queued photos are lost.")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Aborted.")
			return nil
		}
	}
	if err := s.Start(ctx.Ctx, session.StartOptions{Restart: c.Restart}); err != nil {
		return err
	}
	fmt.Printf("✓ Started work on %s\n\n", c.Booking)
	cli.PrintSession(s.State())
	return nil
}

type ShowCmd struct {
	Booking string `arg:"" help:"Booking ID."`
}

func (c *ShowCmd) Run(ctx *cli.Context) error {
	s, err := open(ctx, c.Booking)
	if err != nil {
		return err
	}
	cli.PrintSession(s.State())
	return nil
}

type ListCmd struct{}

func (c *ListCmd) Run(ctx *cli.Context) error {
	store, err := ctx.Sessions()
	if err != nil {
		return err
	}
	stored, err := store.ListSessions()
	if err != nil {
		return err
	}
	if len(stored) == 0 {
		fmt.Println("No sessions on this device")
		return nil
	}
	fmt.Println("Sessions on this device:")
	for _, ws := range stored {
		fmt.Printf("  %s [%s] checklist %d/%d, %d ledger entries, %d photos\n", ws.BookingID, ws.Status,
			ws.Checklist.Done(), ws.Template.TaskCount(), len(ws.Ledger), len(ws.Photos))
	}
	return nil
}

// DiscardCmd drops the local session without submitting it.
type DiscardCmd struct {
	Booking string `arg:"" help:"Booking ID."`
}

func (c *DiscardCmd) Run(ctx *cli.Context) error {
	store, err := ctx.Sessions()
	if err != nil {
		return err
	}
	ok, err := ctx.Confirm("Discard the local session for "+c.Booking+"?", "Nothing is uploaded or recorded.")
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("Aborted.")
		return nil
	}
	if err := store.ClearSession(c.Booking); err != nil {
		return err
	}
	fmt.Printf("✓ Discarded session for %s\n", c.Booking)
	return nil
}

type ToggleCmd struct {
	Booking string   `arg:"" help:"Booking ID."`
	Tasks   []string `arg:"" help:"Task numbers or full checklist keys (\"Kitchen - Mop floor\")."`
}

func (c *ToggleCmd) Run(ctx *cli.Context) error {
	s, err := openActive(ctx, c.Booking)
	if err != nil {
		return err
	}
	for _, ref := range c.Tasks {
		key, err := cli.ResolveChecklistKey(s.State().Template, ref)
		if err != nil {
			return err
		}
		if err := s.ToggleChecklistItem(key); err != nil {
			return err
		}
		fmt.Printf("  [%s] %s\n", mark(s.State().Checklist[key]), key)
	}
	return nil
}

func mark(done bool) string {
	if done {
		return "x"
	}
	return " "
}

type QtyCmd struct {
	Booking  string `arg:"" help:"Booking ID."`
	Entry    string `arg:"" help:"Ledger entry number or id."`
	Quantity int    `arg:"" help:"New quantity (clamped to 0..10)."`
}

func (c *QtyCmd) Run(ctx *cli.Context) error {
	s, err := openActive(ctx, c.Booking)
	if err != nil {
		return err
	}
	entry, err := cli.ResolveEntry(s.State().Ledger, c.Entry)
	if err != nil {
		return err
	}
	if err := s.RecordLedgerQuantity(entry.EntryID(), c.Quantity); err != nil {
		return err
	}
	ledger := s.State().Ledger
	updated := ledger[ledger.Index(entry.EntryID())]
	fmt.Printf("✓ %s quantity is %d\n", updated.Ref().Name, updated.Qty())
	return nil
}

type AddCmd struct {
	Booking string `arg:"" help:"Booking ID."`
	Kind    string `arg:"" enum:"extra-exchange,custom-exchange,provide-extra,provide-custom" help:"Entry kind: extra-exchange, custom-exchange, provide-extra or provide-custom."`
	Item    string `arg:"" help:"Catalog item id or name; free text for custom kinds."`
	Qty     int    `short:"n" help:"Initial quantity." default:"0"`
}

func (c *AddCmd) Run(ctx *cli.Context) error {
	kind, err := models.ParseLedgerKind(c.Kind)
	if err != nil {
		return err
	}
	s, err := openActive(ctx, c.Booking)
	if err != nil {
		return err
	}
	ref := models.ItemRef{Name: c.Item}
	if kind.FromCatalog() {
		ref.EquipmentID = c.Item
	}
	entry, err := s.AddLedgerEntry(ctx.Ctx, kind, ref)
	if err != nil {
		return err
	}
	if c.Qty != 0 {
		if err := s.RecordLedgerQuantity(entry.EntryID(), c.Qty); err != nil {
			return err
		}
	}
	fmt.Printf("✓ Added %s %s (%s)\n", kind, entry.Ref().Name, cli.ShortID(entry.EntryID()))
	return nil
}

type RemoveCmd struct {
	Booking string `arg:"" help:"Booking ID."`
	Entry   string `arg:"" help:"Ledger entry number or id."`
}

func (c *RemoveCmd) Run(ctx *cli.Context) error {
	s, err := openActive(ctx, c.Booking)
	if err != nil {
		return err
	}
	entry, err := cli.ResolveEntry(s.State().Ledger, c.Entry)
	if err != nil {
		return err
	}
	if err := s.RemoveLedgerEntry(entry.EntryID()); err != nil {
		return err
	}
	fmt.Printf("✓ Removed %s\n", entry.Ref().Name)
	return nil
}

type PhotoAddCmd struct {
	Booking string   `arg:"" help:"Booking ID."`
	Files   []string `arg:"" type:"existingfile" help:"Image files to queue."`
}

func (c *PhotoAddCmd) Run(ctx *cli.Context) error {
	s, err := openActive(ctx, c.Booking)
	if err != nil {
		return err
	}
	for _, path := range c.Files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		name := filepath.Base(path)
		if _, err := s.QueuePhoto(name, mime.TypeByExtension(filepath.Ext(name)), data); err != nil {
			return err
		}
		fmt.Printf("✓ Queued %s (%d bytes)\n", name, len(data))
	}
	return nil
}

type PhotoDropCmd struct {
	Booking string `arg:"" help:"Booking ID."`
	Index   int    `arg:"" help:"Queued photo number."`
}

func (c *PhotoDropCmd) Run(ctx *cli.Context) error {
	s, err := openActive(ctx, c.Booking)
	if err != nil {
		return err
	}
	if err := s.DequeuePhoto(c.Index - 1); err != nil {
		return err
	}
	fmt.Printf("✓ Dropped photo #%d\n", c.Index)
	return nil
}
