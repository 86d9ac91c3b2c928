package sessions

import (
	"fmt"

	"github.com/julianstephens/crewlog/internal/cli"
	"github.com/julianstephens/crewlog/internal/session"
	"github.com/julianstephens/crewlog/internal/tui"
)

// RunCmd opens the interactive session screen, starting the session first
// when needed.
type RunCmd struct {
	Booking string `arg:"" help:"Booking ID."`
}

func (c *RunCmd) Run(ctx *cli.Context) error {
	s, err := open(ctx, c.Booking)
	if err != nil {
		return err
	}
	if !s.State().IsActive() {
		if err := s.Start(ctx.Ctx, session.StartOptions{}); err != nil {
			return err
		}
	}

	outcome, err := tui.Run(s)
	if err != nil {
		return err
	}
	if outcome == tui.OutcomeSubmit {
		return submit(ctx, s.State())
	}
	fmt.Printf("Progress on %s is saved on this device.\n", c.Booking)
	return nil
}
