package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/DiomarGoncalves/ElectraVolt/internal/catalog"
	"github.com/DiomarGoncalves/ElectraVolt/internal/sales"
)

const saleColumns = `id, total, profit, notes, created_at`

func scanSale(row interface{ Scan(...any) error }) (sales.Sale, error) {
	var s sales.Sale
	if err := row.Scan(&s.ID, &s.Total, &s.Profit, &s.Notes, &s.CreatedAt); err != nil {
		return sales.Sale{}, err
	}
	return s, nil
}

func (s *Store) GetSale(ctx context.Context, id int64) (sales.Sale, error) {
	sale, err := scanSale(s.db.QueryRowContext(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return sales.Sale{}, notFound("sale", id)
	}
	if err != nil {
		return sales.Sale{}, fmt.Errorf("query sale: %w", err)
	}
	items, err := loadSaleItems(ctx, s.db, `WHERE sale_id = ?`, id)
	if err != nil {
		return sales.Sale{}, err
	}
	sale.Items = items[id]
	return sale, nil
}

// ListSales returns sales newest first with their items.
func (s *Store) ListSales(ctx context.Context) ([]sales.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+saleColumns+` FROM sales ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}
	defer rows.Close()

	out := make([]sales.Sale, 0)
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		out = append(out, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales: %w", err)
	}

	items, err := loadSaleItems(ctx, s.db, "")
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
	}
	return out, nil
}

func loadSaleItems(ctx context.Context, q querier, where string, args ...any) (map[int64][]sales.Item, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT sale_id, product_id, quantity, unit_price, unit_cost FROM sale_items `+where+`
		ORDER BY sale_id, position
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query sale items: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]sales.Item)
	for rows.Next() {
		var saleID int64
		var it sales.Item
		if err := rows.Scan(&saleID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.UnitCost); err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		out[saleID] = append(out[saleID], it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sale items: %w", err)
	}
	return out, nil
}

// BeginSale starts a sales transaction holding the writer lock, like Begin for production runs.
func (s *Store) BeginSale(ctx context.Context) (sales.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &saleTx{tx: tx}, nil
}

type saleTx struct {
	tx *sql.Tx
}

var _ sales.Store = (*Store)(nil)

func (t *saleTx) Commit() error   { return t.tx.Commit() }
func (t *saleTx) Rollback() error { return t.tx.Rollback() }

func (t *saleTx) Product(ctx context.Context, id int64) (catalog.Product, error) {
	return loadProduct(ctx, t.tx, id)
}

func (t *saleTx) Catalog(ctx context.Context) (catalog.Reader, error) {
	return loadSnapshot(ctx, t.tx)
}

func (t *saleTx) DeductProductStock(ctx context.Context, productID, qty int64) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE products SET stock = stock - ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND stock >= ?
	`, qty, productID, qty)
	if err != nil {
		return fmt.Errorf("update product stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update product stock: %w", err)
	}
	if affected > 0 {
		return nil
	}
	ok, err := exists(ctx, t.tx, `SELECT EXISTS(SELECT 1 FROM products WHERE id = ?)`, productID)
	if err != nil {
		return fmt.Errorf("check product: %w", err)
	}
	if !ok {
		return notFound("product", productID)
	}
	return fmt.Errorf("product %d: %w", productID, sales.ErrInsufficientStock)
}

func (t *saleTx) InsertSale(ctx context.Context, sale *sales.Sale) error {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO sales (total, profit, notes, created_at) VALUES (?, ?, ?, ?)
	`, sale.Total.String(), sale.Profit.String(), sale.Notes, sale.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	if sale.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("sale id: %w", err)
	}
	for i, it := range sale.Items {
		if _, err := t.tx.ExecContext(ctx, `
			INSERT INTO sale_items (sale_id, position, product_id, quantity, unit_price, unit_cost)
			VALUES (?, ?, ?, ?, ?, ?)
		`, sale.ID, i, it.ProductID, it.Quantity, it.UnitPrice.String(), it.UnitCost.String()); err != nil {
			return fmt.Errorf("insert sale item: %w", err)
		}
	}
	return nil
}
