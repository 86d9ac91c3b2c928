package models

import (
	"strings"

	"github.com/shopspring/decimal"

	apperrors "github.com/julianstephens/crewlog/internal/errors"
)

type EquipmentMasterItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	BasePrice decimal.Decimal `json:"base_price"`
}

func (e *EquipmentMasterItem) Validate() error {
	if e.ID == "" {
		return apperrors.Invalid("equipment.id", "cannot be empty")
	}
	if strings.TrimSpace(e.Name) == "" {
		return apperrors.Invalid("equipment.name", "cannot be empty")
	}
	if e.BasePrice.IsNegative() {
		return apperrors.Invalid("equipment.base_price", "cannot be negative")
	}
	if !IsCents(e.BasePrice) {
		return apperrors.Invalid("equipment.base_price", "more than 2 decimal places")
	}
	return nil
}

type UnitEquipmentConfig struct {
	UnitID        string              `json:"unit_id"`
	EquipmentID   string              `json:"equipment_id"`
	StandardQty   int                 `json:"standard_qty"`
	OverridePrice decimal.NullDecimal `json:"override_price"`
}

func (c *UnitEquipmentConfig) Validate() error {
	if c.UnitID == "" || c.EquipmentID == "" {
		return apperrors.Invalid("unit_config", "unit and equipment ids are required")
	}
	if c.StandardQty < 0 {
		return apperrors.Invalid("unit_config.standard_qty", "cannot be negative")
	}
	if c.OverridePrice.Valid && c.OverridePrice.Decimal.IsNegative() {
		return apperrors.Invalid("unit_config.override_price", "cannot be negative")
	}
	if c.OverridePrice.Valid && !IsCents(c.OverridePrice.Decimal) {
		return apperrors.Invalid("unit_config.override_price", "more than 2 decimal places")
	}
	return nil
}

// HasOverride reports whether the unit carries a usable override price.
// A stored zero means "no override".
func (c UnitEquipmentConfig) HasOverride() bool {
	return c.OverridePrice.Valid && c.OverridePrice.Decimal.IsPositive()
}

// Catalog indexes the equipment master list by id and by normalized name.
type Catalog struct {
	byID   map[string]EquipmentMasterItem
	byName map[string]EquipmentMasterItem
}

func NewCatalog(items []EquipmentMasterItem) Catalog {
	c := Catalog{
		byID:   make(map[string]EquipmentMasterItem, len(items)),
		byName: make(map[string]EquipmentMasterItem, len(items)),
	}
	for _, item := range items {
		c.byID[item.ID] = item
		name := normalizeItemName(item.Name)
		if _, taken := c.byName[name]; !taken {
			c.byName[name] = item
		}
	}
	return c
}

func (c Catalog) Get(id string) (EquipmentMasterItem, bool) {
	item, ok := c.byID[id]
	return item, ok
}

// Lookup resolves an item reference. Catalog references match by id only;
// free-text entries match by case-insensitive name.
func (c Catalog) Lookup(ref ItemRef) (EquipmentMasterItem, bool) {
	if ref.EquipmentID != "" {
		item, ok := c.byID[ref.EquipmentID]
		return item, ok
	}
	item, ok := c.byName[normalizeItemName(ref.Name)]
	return item, ok
}

func (c Catalog) Len() int { return len(c.byID) }

func normalizeItemName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
