package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/DiomarGoncalves/ElectraVolt/internal/catalog"
	"github.com/DiomarGoncalves/ElectraVolt/internal/production"
)

const dashboardLowStockLimit = 5

// Dashboard is the home screen overview.
type Dashboard struct {
	Products       int64              `json:"total_products"`
	Materials      int64              `json:"total_materials"`
	Suppliers      int64              `json:"total_suppliers"`
	Sales          int64              `json:"total_sales"`
	PendingRuns    int64              `json:"pending_runs"`
	MonthlyRevenue decimal.Decimal    `json:"monthly_revenue"`
	MonthlyProfit  decimal.Decimal    `json:"monthly_profit"`
	LowStock       []catalog.Material `json:"low_stock"`
}

// Dashboard gathers counts, the revenue and profit of sales in now's calendar month (UTC), and the
// materials furthest below their minimum, worst first.
func (s *Store) Dashboard(ctx context.Context, now time.Time) (Dashboard, error) {
	var out Dashboard
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `
			SELECT
				(SELECT COUNT(*) FROM products),
				(SELECT COUNT(*) FROM materials),
				(SELECT COUNT(*) FROM suppliers),
				(SELECT COUNT(*) FROM sales),
				(SELECT COUNT(*) FROM production_runs WHERE status = ?)
		`, string(production.StatusPending)).Scan(&out.Products, &out.Materials, &out.Suppliers, &out.Sales, &out.PendingRuns); err != nil {
			return fmt.Errorf("count dashboard rows: %w", err)
		}

		var err error
		if out.MonthlyRevenue, out.MonthlyProfit, err = monthTotals(ctx, tx, now); err != nil {
			return err
		}

		materials, err := listMaterials(ctx, tx)
		if err != nil {
			return err
		}
		out.LowStock = worstLowStock(materials, dashboardLowStockLimit)
		return nil
	})
	if err != nil {
		return Dashboard{}, err
	}
	return out, nil
}

// monthTotals sums sale totals in Go; the columns hold decimal text.
func monthTotals(ctx context.Context, q querier, now time.Time) (revenue, profit decimal.Decimal, err error) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	rows, err := q.QueryContext(ctx, `SELECT total, profit FROM sales WHERE created_at >= ? AND created_at < ?`, start, end)
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("query monthly sales: %w", err)
	}
	defer rows.Close()

	revenue, profit = decimal.Zero, decimal.Zero
	for rows.Next() {
		var total, p decimal.Decimal
		if err := rows.Scan(&total, &p); err != nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("scan monthly sale: %w", err)
		}
		revenue = revenue.Add(total)
		profit = profit.Add(p)
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("iterate monthly sales: %w", err)
	}
	return revenue, profit, nil
}

// worstLowStock orders low-stock materials by stock/min_stock ascending and keeps the first limit.
func worstLowStock(materials []catalog.Material, limit int) []catalog.Material {
	low := lowStock(materials)
	// stock is never negative, so every low material has a positive minimum
	sort.SliceStable(low, func(i, j int) bool {
		return low[i].Stock.Div(low[i].MinStock).LessThan(low[j].Stock.Div(low[j].MinStock))
	})
	if len(low) > limit {
		low = low[:limit]
	}
	return low
}
