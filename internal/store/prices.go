package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/DiomarGoncalves/ElectraVolt/internal/catalog"
)

// UpsertPrice sets the unit price a supplier charges for a material, replacing any previous price.
func (s *Store) UpsertPrice(ctx context.Context, p catalog.PriceEntry) (catalog.PriceEntry, error) {
	if _, err := catalog.NewPriceEntry(p.MaterialID, p.SupplierID, p.UnitPrice); err != nil {
		return catalog.PriceEntry{}, err
	}
	p.UpdatedAt = time.Now().UTC()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		ok, err := exists(ctx, tx, `SELECT EXISTS(SELECT 1 FROM materials WHERE id = ?)`, p.MaterialID)
		if err != nil {
			return fmt.Errorf("check material: %w", err)
		}
		if !ok {
			return notFound("material", p.MaterialID)
		}
		if ok, err = exists(ctx, tx, `SELECT EXISTS(SELECT 1 FROM suppliers WHERE id = ?)`, p.SupplierID); err != nil {
			return fmt.Errorf("check supplier: %w", err)
		}
		if !ok {
			return notFound("supplier", p.SupplierID)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO supplier_prices (material_id, supplier_id, unit_price, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (material_id, supplier_id)
			DO UPDATE SET unit_price = excluded.unit_price, updated_at = excluded.updated_at
		`, p.MaterialID, p.SupplierID, p.UnitPrice.String(), p.UpdatedAt); err != nil {
			return fmt.Errorf("upsert price: %w", err)
		}
		return nil
	})
	if err != nil {
		return catalog.PriceEntry{}, err
	}
	return p, nil
}

func (s *Store) ListPrices(ctx context.Context) ([]catalog.PriceEntry, error) {
	return listPrices(ctx, s.db)
}

func listPrices(ctx context.Context, q querier) ([]catalog.PriceEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT material_id, supplier_id, unit_price, updated_at
		FROM supplier_prices
		ORDER BY material_id, supplier_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	prices := make([]catalog.PriceEntry, 0)
	for rows.Next() {
		var p catalog.PriceEntry
		if err := rows.Scan(&p.MaterialID, &p.SupplierID, &p.UnitPrice, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		prices = append(prices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prices: %w", err)
	}
	return prices, nil
}

func (s *Store) DeletePrice(ctx context.Context, materialID, supplierID int64) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM supplier_prices WHERE material_id = ? AND supplier_id = ?
	`, materialID, supplierID)
	if err != nil {
		return fmt.Errorf("delete price: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete price: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("price for material %d from supplier %d: %w", materialID, supplierID, catalog.ErrNotFound)
	}
	return nil
}
