package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/julianstephens/crewlog/internal/models"
)

// PriceSource records which step of the fallback chain produced a price.
type PriceSource string

const (
	PriceFromOverride PriceSource = "unit override"
	PriceFromCatalog  PriceSource = "catalog"
	PriceNone         PriceSource = "none"
)

// PriceBook resolves default unit prices for one unit.
type PriceBook struct {
	catalog   models.Catalog
	overrides map[string]models.UnitEquipmentConfig
}

func NewPriceBook(items []models.EquipmentMasterItem, unitConfig []models.UnitEquipmentConfig) PriceBook {
	overrides := make(map[string]models.UnitEquipmentConfig, len(unitConfig))
	for _, row := range unitConfig {
		overrides[row.EquipmentID] = row
	}
	return PriceBook{catalog: models.NewCatalog(items), overrides: overrides}
}

// Resolve walks the chain: unit override when set and positive, then the
// catalog base price, then zero. Free-text items match the catalog by name.
func (p PriceBook) Resolve(ref models.ItemRef) (decimal.Decimal, PriceSource) {
	item, found := p.catalog.Lookup(ref)
	equipmentID := ref.EquipmentID
	if found {
		equipmentID = item.ID
	}
	if row, ok := p.overrides[equipmentID]; ok && row.HasOverride() {
		return row.OverridePrice.Decimal, PriceFromOverride
	}
	if found {
		return item.BasePrice, PriceFromCatalog
	}
	return decimal.Zero, PriceNone
}
