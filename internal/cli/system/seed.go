package system

import (
	"fmt"

	"github.com/julianstephens/crewlog/internal/cli"
	"github.com/julianstephens/crewlog/internal/fixtures"
)

// SeedCmd loads bookings, templates and the equipment catalog from a YAML file.
type SeedCmd struct {
	File   string `arg:"" help:"Fixture file (YAML)." type:"existingfile"`
	DryRun bool   `help:"Validate the file without writing anything."`
}

func (c *SeedCmd) Run(ctx *cli.Context) error {
	f, err := fixtures.ReadFile(c.File)
	if err != nil {
		return err
	}
	set, err := f.Convert()
	if err != nil {
		return err
	}
	if c.DryRun {
		fmt.Printf("%s is valid: %d templates, %d equipment items, %d unit configs, %d bookings\n",
			c.File, len(set.Templates), len(set.Equipment), len(set.UnitConfigs), len(set.Bookings))
		return nil
	}
	sum, err := set.Load(ctx.Ctx, ctx.Store)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Loaded %s\n", sum)
	return nil
}
