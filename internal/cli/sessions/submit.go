package sessions

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/crewlog/internal/cli"
	apperrors "github.com/julianstephens/crewlog/internal/errors"
	"github.com/julianstephens/crewlog/internal/models"
	"github.com/julianstephens/crewlog/internal/submission"
)

type SubmitCmd struct {
	Booking string `arg:"" help:"Booking ID."`
}

func (c *SubmitCmd) Run(ctx *cli.Context) error {
	s, err := openActive(ctx, c.Booking)
	if err != nil {
		return err
	}
	return submit(ctx, s.State())
}

// confirmAdvisories shows the soft gates and asks once for all of them.
func confirmAdvisories(ctx *cli.Context, advisories []submission.Advisory) (bool, error) {
	if len(advisories) == 0 {
		return true, nil
	}
	lines := make([]string, len(advisories))
	for i, a := range advisories {
		lines[i] = "• " + a.Message
	}
	return ctx.Confirm("Submit anyway?", strings.Join(lines, "\n"))
}

func submit(ctx *cli.Context, ws models.WorkSession) error {
	ok, err := confirmAdvisories(ctx, submission.Review(ws))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("Not submitted. The session is still saved on this device.")
		return nil
	}

	sub, err := ctx.Submitter()
	if err != nil {
		return err
	}
	rec, err := sub.Submit(ctx.Ctx, ws)
	var uf *apperrors.UploadFailure
	var wf *apperrors.WriteFailure
	switch {
	case errors.As(err, &uf):
		return fmt.Errorf("%w\nNothing was recorded; the session is kept. Retry with 'crewlog session submit %s'", err, ws.BookingID)
	case errors.As(err, &wf):
		return fmt.Errorf("%w\nPhotos were uploaded but the record was not saved; the session is kept. Retry with 'crewlog session submit %s'", err, ws.BookingID)
	case err != nil:
		return err
	}

	fmt.Println("✓ Submitted")
	cli.PrintRecord(rec)
	return nil
}
