package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/DiomarGoncalves/ElectraVolt/internal/catalog"
)

// CreateProduct stores a product and its composition. Lines keep the order they are given in.
func (s *Store) CreateProduct(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	if p.SellingPrice.IsNegative() {
		return catalog.Product{}, fmt.Errorf("%w: selling price cannot be negative, got %s", catalog.ErrInvalid, p.SellingPrice)
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO products (name, selling_price, stock) VALUES (?, ?, 0)
		`, p.Name, p.SellingPrice.String())
		if err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
		if p.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("product id: %w", err)
		}
		return insertComposition(ctx, tx, p.ID, p.Composition)
	})
	if err != nil {
		return catalog.Product{}, err
	}
	return s.GetProduct(ctx, p.ID)
}

// UpdateProduct changes name and selling price and replaces the whole composition.
// Finished stock is left alone.
func (s *Store) UpdateProduct(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	if p.SellingPrice.IsNegative() {
		return catalog.Product{}, fmt.Errorf("%w: selling price cannot be negative, got %s", catalog.ErrInvalid, p.SellingPrice)
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE products SET name = ?, selling_price = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
		`, p.Name, p.SellingPrice.String(), p.ID)
		if err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		if err := requireAffected(res, "product", p.ID); err != nil {
			return err
		}
		return replaceComposition(ctx, tx, p.ID, p.Composition)
	})
	if err != nil {
		return catalog.Product{}, err
	}
	return s.GetProduct(ctx, p.ID)
}

// RewriteComposition replaces a product's composition with the one rewrite derives from the
// current product and catalog. The read, the rewrite and the write share one transaction, so a
// concurrent update is never overwritten with a composition computed from stale data.
// An error from rewrite leaves the product untouched.
func (s *Store) RewriteComposition(ctx context.Context, id int64, rewrite func(catalog.Product, *catalog.Snapshot) (catalog.Composition, error)) (catalog.Product, error) {
	var out catalog.Product
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		p, err := loadProduct(ctx, tx, id)
		if err != nil {
			return err
		}
		snap, err := loadSnapshot(ctx, tx)
		if err != nil {
			return err
		}
		comp, err := rewrite(p, snap)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE products SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id); err != nil {
			return fmt.Errorf("touch product: %w", err)
		}
		if err := replaceComposition(ctx, tx, id, comp); err != nil {
			return err
		}
		out, err = loadProduct(ctx, tx, id)
		return err
	})
	if err != nil {
		return catalog.Product{}, err
	}
	return out, nil
}

func replaceComposition(ctx context.Context, tx *sql.Tx, productID int64, comp catalog.Composition) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM composition_lines WHERE product_id = ?`, productID); err != nil {
		return fmt.Errorf("clear composition: %w", err)
	}
	return insertComposition(ctx, tx, productID, comp)
}

func insertComposition(ctx context.Context, tx *sql.Tx, productID int64, comp catalog.Composition) error {
	for i, line := range comp {
		if _, err := catalog.NewCompositionLine(line.MaterialID, line.SupplierID, line.Quantity); err != nil {
			return fmt.Errorf("composition line %d: %w", i, err)
		}
		ok, err := exists(ctx, tx, `SELECT EXISTS(SELECT 1 FROM materials WHERE id = ?)`, line.MaterialID)
		if err != nil {
			return fmt.Errorf("check material: %w", err)
		}
		if !ok {
			return notFound("material", line.MaterialID)
		}
		if ok, err = exists(ctx, tx, `SELECT EXISTS(SELECT 1 FROM suppliers WHERE id = ?)`, line.SupplierID); err != nil {
			return fmt.Errorf("check supplier: %w", err)
		}
		if !ok {
			return notFound("supplier", line.SupplierID)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO composition_lines (product_id, position, material_id, supplier_id, quantity)
			VALUES (?, ?, ?, ?, ?)
		`, productID, i, line.MaterialID, line.SupplierID, line.Quantity.String()); err != nil {
			return fmt.Errorf("insert composition line %d: %w", i, err)
		}
	}
	return nil
}

func (s *Store) GetProduct(ctx context.Context, id int64) (catalog.Product, error) {
	return loadProduct(ctx, s.db, id)
}

func loadProduct(ctx context.Context, q querier, id int64) (catalog.Product, error) {
	var p catalog.Product
	err := q.QueryRowContext(ctx, `
		SELECT id, name, selling_price, stock FROM products WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.SellingPrice, &p.Stock)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Product{}, notFound("product", id)
	}
	if err != nil {
		return catalog.Product{}, fmt.Errorf("query product: %w", err)
	}

	comps, err := loadCompositions(ctx, q, `WHERE product_id = ?`, id)
	if err != nil {
		return catalog.Product{}, err
	}
	p.Composition = comps[id]
	return p, nil
}

func loadCompositions(ctx context.Context, q querier, where string, args ...any) (map[int64]catalog.Composition, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT product_id, id, material_id, supplier_id, quantity
		FROM composition_lines `+where+`
		ORDER BY product_id, position
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query composition: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]catalog.Composition)
	for rows.Next() {
		var productID int64
		var line catalog.CompositionLine
		if err := rows.Scan(&productID, &line.ID, &line.MaterialID, &line.SupplierID, &line.Quantity); err != nil {
			return nil, fmt.Errorf("scan composition line: %w", err)
		}
		out[productID] = append(out[productID], line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate composition: %w", err)
	}
	return out, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, selling_price, stock FROM products ORDER BY name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]catalog.Product, 0)
	for rows.Next() {
		var p catalog.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.SellingPrice, &p.Stock); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	comps, err := loadCompositions(ctx, s.db, "")
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i].Composition = comps[products[i].ID]
	}
	return products, nil
}

// DeleteProduct removes a product and its composition. Products with production or sales history are kept.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		used, err := exists(ctx, tx, `
			SELECT EXISTS(SELECT 1 FROM production_runs WHERE product_id = ?)
				OR EXISTS(SELECT 1 FROM sale_items WHERE product_id = ?)
		`, id, id)
		if err != nil {
			return fmt.Errorf("check product history: %w", err)
		}
		if used {
			return fmt.Errorf("product %d: %w", id, ErrInUse)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete product: %w", err)
		}
		return requireAffected(res, "product", id)
	})
}
