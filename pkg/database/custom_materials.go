package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"radiography-shield/pkg/materials"
)

// =====================
// Custom materials
// =====================

var _ materials.Store = (*Database)(nil)

type materialRow struct {
	Name string `db:"name"`
	materials.Coefficients
}

// ListMaterials returns the user's saved coefficients keyed by material name.
func (db *Database) ListMaterials(ctx context.Context, userID string) (map[string]materials.Coefficients, error) {
	var rows []materialRow
	query := db.X.Rebind(`SELECT name, attenuation_ir, attenuation_se FROM custom_materials WHERE user_id = ? ORDER BY name`)
	if err := db.X.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	out := make(map[string]materials.Coefficients, len(rows))
	for _, r := range rows {
		out[r.Name] = r.Coefficients
	}
	return out, nil
}

// GetMaterial reads a single material.
func (db *Database) GetMaterial(ctx context.Context, userID, name string) (materials.Coefficients, error) {
	var c materials.Coefficients
	query := db.X.Rebind(`SELECT attenuation_ir, attenuation_se FROM custom_materials WHERE user_id = ? AND name = ?`)
	if err := db.X.GetContext(ctx, &c, query, userID, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return materials.Coefficients{}, materials.ErrMaterialNotFound
		}
		return materials.Coefficients{}, fmt.Errorf("get material: %w", err)
	}
	return c, nil
}

// SaveMaterial inserts or, when overwrite is set, replaces a material. An
// existing name without overwrite returns materials.ErrMaterialExists so the
// caller can ask the user to confirm.
func (db *Database) SaveMaterial(ctx context.Context, userID, name string, c materials.Coefficients, overwrite bool) error {
	tx, err := db.X.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save material: %w", err)
	}
	defer tx.Rollback()

	var exists int
	probe := tx.Rebind(`SELECT COUNT(*) FROM custom_materials WHERE user_id = ? AND name = ?`)
	if err := tx.QueryRowxContext(ctx, probe, userID, name).Scan(&exists); err != nil {
		return fmt.Errorf("probe material: %w", err)
	}

	now := time.Now().Unix()
	switch {
	case exists > 0 && !overwrite:
		return fmt.Errorf("%q: %w", name, materials.ErrMaterialExists)
	case exists > 0:
		stmt := tx.Rebind(`UPDATE custom_materials SET attenuation_ir = ?, attenuation_se = ?, updated_at = ? WHERE user_id = ? AND name = ?`)
		if _, err := tx.ExecContext(ctx, stmt, c.AttenuationIr, c.AttenuationSe, now, userID, name); err != nil {
			return fmt.Errorf("update material: %w", err)
		}
	default:
		stmt := tx.Rebind(`INSERT INTO custom_materials (user_id, name, attenuation_ir, attenuation_se, updated_at) VALUES (?, ?, ?, ?, ?)`)
		if _, err := tx.ExecContext(ctx, stmt, userID, name, c.AttenuationIr, c.AttenuationSe, now); err != nil {
			return fmt.Errorf("insert material: %w", err)
		}
	}
	return tx.Commit()
}

// DeleteMaterial removes a material; a missing one yields
// materials.ErrMaterialNotFound.
func (db *Database) DeleteMaterial(ctx context.Context, userID, name string) error {
	if _, err := db.GetMaterial(ctx, userID, name); err != nil {
		return err
	}
	stmt := db.X.Rebind(`DELETE FROM custom_materials WHERE user_id = ? AND name = ?`)
	if _, err := db.DB.ExecContext(ctx, stmt, userID, name); err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	return nil
}
