package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/DiomarGoncalves/ElectraVolt/internal/catalog"
)

const materialColumns = `id, name, unit, stock, min_stock, description`

func scanMaterial(row interface{ Scan(...any) error }) (catalog.Material, error) {
	var m catalog.Material
	err := row.Scan(&m.ID, &m.Name, &m.Unit, &m.Stock, &m.MinStock, &m.Description)
	return m, err
}

// CreateMaterial stores a material with its opening stock. Later stock changes go through production runs.
func (s *Store) CreateMaterial(ctx context.Context, m catalog.Material) (catalog.Material, error) {
	if m.Stock.IsNegative() || m.MinStock.IsNegative() {
		return catalog.Material{}, fmt.Errorf("material %q: %w", m.Name, ErrNegativeStock)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO materials (name, unit, stock, min_stock, description)
		VALUES (?, ?, ?, ?, ?)
	`, m.Name, m.Unit, m.Stock.String(), m.MinStock.String(), m.Description)
	if err != nil {
		return catalog.Material{}, fmt.Errorf("insert material: %w", err)
	}
	if m.ID, err = res.LastInsertId(); err != nil {
		return catalog.Material{}, fmt.Errorf("material id: %w", err)
	}
	return m, nil
}

func (s *Store) GetMaterial(ctx context.Context, id int64) (catalog.Material, error) {
	m, err := scanMaterial(s.db.QueryRowContext(ctx, `SELECT `+materialColumns+` FROM materials WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Material{}, notFound("material", id)
	}
	if err != nil {
		return catalog.Material{}, fmt.Errorf("query material: %w", err)
	}
	return m, nil
}

func (s *Store) ListMaterials(ctx context.Context) ([]catalog.Material, error) {
	return listMaterials(ctx, s.db)
}

func listMaterials(ctx context.Context, q querier) ([]catalog.Material, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+materialColumns+` FROM materials ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("query materials: %w", err)
	}
	defer rows.Close()

	materials := make([]catalog.Material, 0)
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		materials = append(materials, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate materials: %w", err)
	}
	return materials, nil
}

// UpdateMaterial edits descriptive fields and the alert threshold. Stock is not editable here.
func (s *Store) UpdateMaterial(ctx context.Context, m catalog.Material) error {
	if m.MinStock.IsNegative() {
		return fmt.Errorf("material %d: %w", m.ID, ErrNegativeStock)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE materials
		SET name = ?, unit = ?, min_stock = ?, description = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, m.Name, m.Unit, m.MinStock.String(), m.Description, m.ID)
	if err != nil {
		return fmt.Errorf("update material: %w", err)
	}
	return requireAffected(res, "material", m.ID)
}

func (s *Store) DeleteMaterial(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		used, err := exists(ctx, tx, `
			SELECT EXISTS(SELECT 1 FROM composition_lines WHERE material_id = ?)
			    OR EXISTS(SELECT 1 FROM production_run_materials WHERE material_id = ?)
		`, id, id)
		if err != nil {
			return fmt.Errorf("check material references: %w", err)
		}
		if used {
			return fmt.Errorf("material %d: %w", id, ErrInUse)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM materials WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete material: %w", err)
		}
		return requireAffected(res, "material", id)
	})
}

// LowStock lists materials whose stock is below their minimum threshold.
func (s *Store) LowStock(ctx context.Context) ([]catalog.Material, error) {
	all, err := s.ListMaterials(ctx)
	if err != nil {
		return nil, err
	}
	return lowStock(all), nil
}

func lowStock(all []catalog.Material) []catalog.Material {
	low := make([]catalog.Material, 0)
	for _, m := range all {
		// compared in Go: both columns hold decimal text
		if m.Stock.LessThan(m.MinStock) {
			low = append(low, m)
		}
	}
	return low
}
