package audit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/julianstephens/crewlog/internal/cli"
	apperrors "github.com/julianstephens/crewlog/internal/errors"
	"github.com/julianstephens/crewlog/internal/reconcile"
)

type ShowCmd struct {
	Booking string `arg:"" help:"Booking ID."`
}

func (c *ShowCmd) Run(ctx *cli.Context) error {
	draft, err := reconcile.NewEngine(ctx.Store).Prepare(ctx.Ctx, c.Booking)
	if err != nil {
		return err
	}
	cli.PrintDraft(draft)
	return nil
}

type FinalizeCmd struct {
	Booking string   `arg:"" help:"Booking ID."`
	Price   string   `short:"p" required:"" help:"Agreed booking price."`
	Edit    []string `short:"e" help:"Line edit as <line>=<unit price>[:remarks]; <line> is the line number or entry id. Leave the price empty to change only remarks."`
}

func (c *FinalizeCmd) Run(ctx *cli.Context) error {
	price, err := cli.ParsePrice(c.Price)
	if err != nil {
		return err
	}
	engine := reconcile.NewEngine(ctx.Store)
	draft, err := engine.Prepare(ctx.Ctx, c.Booking)
	if err != nil {
		return err
	}
	edits, err := ParseEdits(draft, c.Edit)
	if err != nil {
		return err
	}
	preview, err := draft.Apply(edits)
	if err != nil {
		return err
	}
	cli.PrintDraft(preview)

	title := fmt.Sprintf("Finalize %s at %s?", c.Booking, price.StringFixed(2))
	desc := "The booking is marked finalized."
	if preview.ReAudit {
		desc = "The previous billing adjustments are replaced."
	}
	ok, err := ctx.Confirm(title, desc)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("Aborted.")
		return nil
	}

	res, err := engine.Finalize(ctx.Ctx, c.Booking, price, edits)
	var gap *apperrors.PricingGapError
	if errors.As(err, &gap) {
		return fmt.Errorf("%w\nExample: crewlog audit finalize %s --price %s --edit 1=12.50", err, c.Booking, c.Price)
	}
	if err != nil {
		return err
	}
	fmt.Printf("✓ Booking %s finalized at %s with %d billing line(s)\n", res.Booking.ID,
		res.AgreedPrice.StringFixed(2), len(res.Adjustments))
	return nil
}

// ParseEdits turns --edit flags into reconcile edits keyed by entry id.
func ParseEdits(draft reconcile.Draft, flags []string) (map[string]reconcile.Edit, error) {
	edits := make(map[string]reconcile.Edit, len(flags))
	for _, raw := range flags {
		ref, rest, ok := strings.Cut(raw, "=")
		if !ok || strings.TrimSpace(ref) == "" {
			return nil, fmt.Errorf("invalid edit %q (want <line>=<price>[:remarks])", raw)
		}
		entryID, err := lineEntry(draft, strings.TrimSpace(ref))
		if err != nil {
			return nil, err
		}
		rawPrice, remarks, _ := strings.Cut(rest, ":")

		edit := edits[entryID]
		if p := strings.TrimSpace(rawPrice); p != "" {
			d, err := cli.ParsePrice(p)
			if err != nil {
				return nil, fmt.Errorf("edit %q: %w", raw, err)
			}
			edit.UnitPrice = decimal.NewNullDecimal(d)
		}
		if r := strings.TrimSpace(remarks); r != "" {
			edit.Remarks = r
		}
		edits[entryID] = edit
	}
	return edits, nil
}

func lineEntry(draft reconcile.Draft, ref string) (string, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(draft.Lines) {
			return "", fmt.Errorf("no billing line #%d", n)
		}
		return draft.Lines[n-1].EntryID, nil
	}
	match := ""
	for _, l := range draft.Lines {
		if l.EntryID == ref {
			return ref, nil
		}
		if strings.HasPrefix(l.EntryID, ref) {
			if match != "" {
				return "", fmt.Errorf("line prefix %q is ambiguous", ref)
			}
			match = l.EntryID
		}
	}
	if match == "" {
		return "", fmt.Errorf("no billing line %q", ref)
	}
	return match, nil
}
