// Package fixtures loads seed data for the stores crewlog reads but does not
// own: bookings, checklist templates, the equipment catalog and per-unit
// equipment configuration.
package fixtures

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	apperrors "github.com/julianstephens/crewlog/internal/errors"
	"github.com/julianstephens/crewlog/internal/logger"
	"github.com/julianstephens/crewlog/internal/models"
	"github.com/julianstephens/crewlog/internal/storage"
)

type File struct {
	Templates []Template  `yaml:"templates"`
	Equipment []Equipment `yaml:"equipment"`
	Units     []Unit      `yaml:"units"`
	Bookings  []Booking   `yaml:"bookings"`
}

type Template struct {
	ID       string    `yaml:"id"`
	Name     string    `yaml:"name"`
	Sections []Section `yaml:"sections"`
}

type Section struct {
	Title string   `yaml:"title"`
	Tasks []string `yaml:"tasks"`
}

type Equipment struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	BasePrice string `yaml:"base_price"`
}

type Unit struct {
	ID        string     `yaml:"id"`
	Equipment []UnitItem `yaml:"equipment"`
}

type UnitItem struct {
	Item          string `yaml:"item"`
	StandardQty   int    `yaml:"standard_qty"`
	OverridePrice string `yaml:"override_price"`
}

type Booking struct {
	ID          string `yaml:"id"`
	Unit        string `yaml:"unit"`
	Template    string `yaml:"template"`
	Crew        string `yaml:"crew"`
	ScheduledAt string `yaml:"scheduled_at"`
	Status      string `yaml:"status"`
}

// Summary counts what a Load wrote.
type Summary struct {
	Templates   int
	Equipment   int
	UnitConfigs int
	Bookings    int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d templates, %d equipment items, %d unit configs, %d bookings",
		s.Templates, s.Equipment, s.UnitConfigs, s.Bookings)
}

// Parse decodes a fixture document. Unknown keys are rejected.
func Parse(r io.Reader) (File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return File{}, nil
		}
		return File{}, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	return f, nil
}

func ReadFile(path string) (File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to open fixtures: %w", err)
	}
	defer fh.Close()
	return Parse(fh)
}

// Convert turns the document into domain values and checks references
// between its sections. Nothing is written.
func (f File) Convert() (Set, error) {
	var set Set
	templates := map[string]bool{}
	for _, t := range f.Templates {
		tpl := models.ChecklistTemplate{ID: t.ID, Name: t.Name}
		for _, s := range t.Sections {
			tpl.Sections = append(tpl.Sections, models.Section{Title: s.Title, Tasks: s.Tasks})
		}
		if err := tpl.Validate(); err != nil {
			return Set{}, err
		}
		templates[t.ID] = true
		set.Templates = append(set.Templates, tpl)
	}

	items := map[string]bool{}
	for _, e := range f.Equipment {
		price, err := parsePrice("equipment."+e.ID+".base_price", e.BasePrice)
		if err != nil {
			return Set{}, err
		}
		item := models.EquipmentMasterItem{ID: e.ID, Name: e.Name, BasePrice: price.Decimal}
		if err := item.Validate(); err != nil {
			return Set{}, err
		}
		items[e.ID] = true
		set.Equipment = append(set.Equipment, item)
	}

	for _, u := range f.Units {
		for _, row := range u.Equipment {
			if !items[row.Item] {
				return Set{}, apperrors.Invalid("units."+u.ID, "unknown equipment item %q", row.Item)
			}
			override, err := parsePrice("units."+u.ID+"."+row.Item+".override_price", row.OverridePrice)
			if err != nil {
				return Set{}, err
			}
			cfg := models.UnitEquipmentConfig{UnitID: u.ID, EquipmentID: row.Item, StandardQty: row.StandardQty, OverridePrice: override}
			if err := cfg.Validate(); err != nil {
				return Set{}, err
			}
			set.UnitConfigs = append(set.UnitConfigs, cfg)
		}
	}

	for _, b := range f.Bookings {
		status := models.BookingPending
		if b.Status != "" {
			status = models.BookingStatus(strings.ToLower(b.Status))
		}
		if b.Template != "" && !templates[b.Template] {
			return Set{}, apperrors.Invalid("bookings."+b.ID, "unknown checklist template %q", b.Template)
		}
		booking := models.Booking{
			ID:                  b.ID,
			Status:              status,
			UnitID:              b.Unit,
			AssignedCrewID:      b.Crew,
			ChecklistTemplateID: b.Template,
			ScheduledAt:         b.ScheduledAt,
		}
		if err := booking.Validate(); err != nil {
			return Set{}, err
		}
		set.Bookings = append(set.Bookings, booking)
	}
	return set, nil
}

// Set is a converted fixture document.
type Set struct {
	Templates   []models.ChecklistTemplate
	Equipment   []models.EquipmentMasterItem
	UnitConfigs []models.UnitEquipmentConfig
	Bookings    []models.Booking
}

// Load writes the set into the provider. Existing rows with the same ids are
// overwritten.
func (s Set) Load(ctx context.Context, provider storage.Provider) (Summary, error) {
	var sum Summary
	for _, t := range s.Templates {
		if err := provider.SaveChecklistTemplate(ctx, t); err != nil {
			return sum, fmt.Errorf("failed to save template %s: %w", t.ID, err)
		}
		sum.Templates++
	}
	for _, item := range s.Equipment {
		if err := provider.SaveEquipmentItem(ctx, item); err != nil {
			return sum, fmt.Errorf("failed to save equipment item %s: %w", item.ID, err)
		}
		sum.Equipment++
	}
	for _, cfg := range s.UnitConfigs {
		if err := provider.SaveUnitEquipmentConfig(ctx, cfg); err != nil {
			return sum, fmt.Errorf("failed to save unit config %s/%s: %w", cfg.UnitID, cfg.EquipmentID, err)
		}
		sum.UnitConfigs++
	}
	for _, b := range s.Bookings {
		if err := provider.SaveBooking(ctx, b); err != nil {
			return sum, fmt.Errorf("failed to save booking %s: %w", b.ID, err)
		}
		sum.Bookings++
	}
	logger.Info("Fixtures loaded", "templates", sum.Templates, "equipment", sum.Equipment,
		"unit_configs", sum.UnitConfigs, "bookings", sum.Bookings)
	return sum, nil
}

func parsePrice(field, raw string) (decimal.NullDecimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, apperrors.Invalid(field, "%q is not a price", raw)
	}
	return decimal.NewNullDecimal(d), nil
}
