package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/julianstephens/crewlog/internal/models"
	"github.com/julianstephens/crewlog/internal/storage"
)

func (s *Store) SaveChecklistTemplate(ctx context.Context, t models.ChecklistTemplate) error {
	if err := t.Validate(); err != nil {
		return err
	}
	sections, err := json.Marshal(t.Sections)
	if err != nil {
		return fmt.Errorf("failed to encode sections: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checklist_templates (id, name, sections) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, sections = EXCLUDED.sections`,
		t.ID, t.Name, string(sections))
	if err != nil {
		return fmt.Errorf("failed to save checklist template %s: %w", t.ID, err)
	}
	return nil
}

func (s *Store) GetChecklistTemplate(ctx context.Context, id string) (models.ChecklistTemplate, error) {
	var t models.ChecklistTemplate
	var sections []byte
	err := s.db.QueryRowContext(ctx, `SELECT id, name, sections FROM checklist_templates WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &sections)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChecklistTemplate{}, fmt.Errorf("checklist template %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return models.ChecklistTemplate{}, err
	}
	if err := json.Unmarshal(sections, &t.Sections); err != nil {
		return models.ChecklistTemplate{}, fmt.Errorf("checklist template %s: bad sections: %w", id, err)
	}
	return t, nil
}

func (s *Store) SaveEquipmentItem(ctx context.Context, item models.EquipmentMasterItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO equipment_items (id, name, base_price) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, base_price = EXCLUDED.base_price`,
		item.ID, item.Name, item.BasePrice)
	if err != nil {
		return fmt.Errorf("failed to save equipment item %s: %w", item.ID, err)
	}
	return nil
}

func (s *Store) ListEquipmentItems(ctx context.Context) ([]models.EquipmentMasterItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, base_price FROM equipment_items ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list equipment: %w", err)
	}
	defer rows.Close()

	var out []models.EquipmentMasterItem
	for rows.Next() {
		var item models.EquipmentMasterItem
		if err := rows.Scan(&item.ID, &item.Name, &item.BasePrice); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *Store) SaveUnitEquipmentConfig(ctx context.Context, cfg models.UnitEquipmentConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO unit_equipment_config (unit_id, equipment_id, standard_qty, override_price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (unit_id, equipment_id) DO UPDATE SET
			standard_qty = EXCLUDED.standard_qty,
			override_price = EXCLUDED.override_price`,
		cfg.UnitID, cfg.EquipmentID, cfg.StandardQty, cfg.OverridePrice)
	if err != nil {
		return fmt.Errorf("failed to save unit config %s/%s: %w", cfg.UnitID, cfg.EquipmentID, err)
	}
	return nil
}

func (s *Store) ListUnitEquipmentConfig(ctx context.Context, unitID string) ([]models.UnitEquipmentConfig, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT unit_id, equipment_id, standard_qty, override_price
		FROM unit_equipment_config WHERE unit_id = $1 ORDER BY equipment_id`, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unit config: %w", err)
	}
	defer rows.Close()

	var out []models.UnitEquipmentConfig
	for rows.Next() {
		var cfg models.UnitEquipmentConfig
		if err := rows.Scan(&cfg.UnitID, &cfg.EquipmentID, &cfg.StandardQty, &cfg.OverridePrice); err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, rows.Err()
}
