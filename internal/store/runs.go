package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/DiomarGoncalves/ElectraVolt/internal/catalog"
	"github.com/DiomarGoncalves/ElectraVolt/internal/production"
)

const runColumns = `id, product_id, batch, status, notes, created_at, updated_at`

func scanRun(row interface{ Scan(...any) error }) (production.Run, error) {
	var r production.Run
	var status string
	if err := row.Scan(&r.ID, &r.ProductID, &r.Batch, &status, &r.Notes, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return production.Run{}, err
	}
	r.Status = production.Status(status)
	return r, nil
}

func (s *Store) GetRun(ctx context.Context, id int64) (production.Run, error) {
	return loadRun(ctx, s.db, id)
}

func loadRun(ctx context.Context, q querier, id int64) (production.Run, error) {
	r, err := scanRun(q.QueryRowContext(ctx, `SELECT `+runColumns+` FROM production_runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return production.Run{}, notFound("production run", id)
	}
	if err != nil {
		return production.Run{}, fmt.Errorf("query production run: %w", err)
	}
	cons, err := loadConsumption(ctx, q, `WHERE run_id = ?`, id)
	if err != nil {
		return production.Run{}, err
	}
	r.Consumption = cons[id]
	return r, nil
}

func loadConsumption(ctx context.Context, q querier, where string, args ...any) (map[int64][]production.Consumption, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT run_id, material_id, quantity FROM production_run_materials `+where+`
		ORDER BY run_id, rowid
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query run consumption: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]production.Consumption)
	for rows.Next() {
		var runID int64
		var c production.Consumption
		if err := rows.Scan(&runID, &c.MaterialID, &c.Quantity); err != nil {
			return nil, fmt.Errorf("scan run consumption: %w", err)
		}
		out[runID] = append(out[runID], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run consumption: %w", err)
	}
	return out, nil
}

// ListRuns returns runs newest first. An empty status lists every run.
func (s *Store) ListRuns(ctx context.Context, status production.Status) ([]production.Run, error) {
	query := `SELECT ` + runColumns + ` FROM production_runs`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query production runs: %w", err)
	}
	defer rows.Close()

	runs := make([]production.Run, 0)
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan production run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate production runs: %w", err)
	}

	cons, err := loadConsumption(ctx, s.db, "")
	if err != nil {
		return nil, err
	}
	for i := range runs {
		runs[i].Consumption = cons[runs[i].ID]
	}
	return runs, nil
}

// Begin starts a ledger transaction. The DSN opens it with BEGIN IMMEDIATE, so ledger
// transactions hold the writer lock from their first read.
func (s *Store) Begin(ctx context.Context) (production.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &ledgerTx{tx: tx}, nil
}

type ledgerTx struct {
	tx *sql.Tx
}

var _ production.Store = (*Store)(nil)

func (t *ledgerTx) Commit() error   { return t.tx.Commit() }
func (t *ledgerTx) Rollback() error { return t.tx.Rollback() }

func (t *ledgerTx) Product(ctx context.Context, id int64) (catalog.Product, error) {
	return loadProduct(ctx, t.tx, id)
}

func (t *ledgerTx) MaterialStock(ctx context.Context, materialID int64) (decimal.Decimal, error) {
	var stock decimal.Decimal
	err := t.tx.QueryRowContext(ctx, `SELECT stock FROM materials WHERE id = ?`, materialID).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, notFound("material", materialID)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("query material stock: %w", err)
	}
	return stock, nil
}

func (t *ledgerTx) AdjustMaterialStock(ctx context.Context, materialID int64, delta decimal.Decimal) error {
	stock, err := t.MaterialStock(ctx, materialID)
	if err != nil {
		return err
	}
	next := stock.Add(delta)
	if next.IsNegative() {
		return fmt.Errorf("material %d: %w (have %s, change %s)", materialID, ErrNegativeStock, stock, delta)
	}
	if _, err := t.tx.ExecContext(ctx, `
		UPDATE materials SET stock = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, next.String(), materialID); err != nil {
		return fmt.Errorf("update material stock: %w", err)
	}
	return nil
}

func (t *ledgerTx) AdjustProductStock(ctx context.Context, productID int64, delta int64) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE products SET stock = stock + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, delta, productID)
	if err != nil {
		return fmt.Errorf("update product stock: %w", err)
	}
	return requireAffected(res, "product", productID)
}

func (t *ledgerTx) InsertRun(ctx context.Context, run *production.Run) error {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO production_runs (product_id, batch, status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ProductID, run.Batch, string(run.Status), run.Notes, run.CreatedAt.UTC(), run.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert production run: %w", err)
	}
	if run.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("production run id: %w", err)
	}
	for _, c := range run.Consumption {
		if _, err := t.tx.ExecContext(ctx, `
			INSERT INTO production_run_materials (run_id, material_id, quantity) VALUES (?, ?, ?)
		`, run.ID, c.MaterialID, c.Quantity.String()); err != nil {
			return fmt.Errorf("insert run consumption: %w", err)
		}
	}
	return nil
}

func (t *ledgerTx) Run(ctx context.Context, id int64) (production.Run, error) {
	return loadRun(ctx, t.tx, id)
}

// UpdateRunStatus only moves pending runs.
func (t *ledgerTx) UpdateRunStatus(ctx context.Context, id int64, status production.Status, at time.Time) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE production_runs SET status = ?, updated_at = ? WHERE id = ? AND status = ?
	`, string(status), at.UTC(), id, string(production.StatusPending))
	if err != nil {
		return fmt.Errorf("update production run status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update production run status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run %d: %w", id, production.ErrInvalidTransition)
	}
	return nil
}
