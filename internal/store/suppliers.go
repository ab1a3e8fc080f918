package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/DiomarGoncalves/ElectraVolt/internal/catalog"
)

func (s *Store) CreateSupplier(ctx context.Context, sup catalog.Supplier) (catalog.Supplier, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO suppliers (name, tax_id, phone, email)
		VALUES (?, ?, ?, ?)
	`, sup.Name, sup.TaxID, sup.Phone, sup.Email)
	if err != nil {
		return catalog.Supplier{}, fmt.Errorf("insert supplier: %w", err)
	}
	if sup.ID, err = res.LastInsertId(); err != nil {
		return catalog.Supplier{}, fmt.Errorf("supplier id: %w", err)
	}
	return sup, nil
}

func (s *Store) GetSupplier(ctx context.Context, id int64) (catalog.Supplier, error) {
	var sup catalog.Supplier
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, tax_id, phone, email FROM suppliers WHERE id = ?
	`, id).Scan(&sup.ID, &sup.Name, &sup.TaxID, &sup.Phone, &sup.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Supplier{}, notFound("supplier", id)
	}
	if err != nil {
		return catalog.Supplier{}, fmt.Errorf("query supplier: %w", err)
	}
	return sup, nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]catalog.Supplier, error) {
	return listSuppliers(ctx, s.db)
}

func listSuppliers(ctx context.Context, q querier) ([]catalog.Supplier, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, tax_id, phone, email FROM suppliers ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query suppliers: %w", err)
	}
	defer rows.Close()

	suppliers := make([]catalog.Supplier, 0)
	for rows.Next() {
		var sup catalog.Supplier
		if err := rows.Scan(&sup.ID, &sup.Name, &sup.TaxID, &sup.Phone, &sup.Email); err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		suppliers = append(suppliers, sup)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate suppliers: %w", err)
	}
	return suppliers, nil
}

// UpdateSupplierContact changes contact metadata only; the name stays fixed once prices reference it.
func (s *Store) UpdateSupplierContact(ctx context.Context, sup catalog.Supplier) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE suppliers
		SET tax_id = ?, phone = ?, email = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, sup.TaxID, sup.Phone, sup.Email, sup.ID)
	if err != nil {
		return fmt.Errorf("update supplier: %w", err)
	}
	return requireAffected(res, "supplier", sup.ID)
}

func (s *Store) DeleteSupplier(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		used, err := exists(ctx, tx, `
			SELECT EXISTS(SELECT 1 FROM supplier_prices WHERE supplier_id = ?)
			    OR EXISTS(SELECT 1 FROM composition_lines WHERE supplier_id = ?)
		`, id, id)
		if err != nil {
			return fmt.Errorf("check supplier references: %w", err)
		}
		if used {
			return fmt.Errorf("supplier %d: %w", id, ErrInUse)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM suppliers WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete supplier: %w", err)
		}
		return requireAffected(res, "supplier", id)
	})
}
