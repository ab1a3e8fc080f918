package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Config contains the values required by startup seed.
type Config struct {
	AdminEmail    string
	AdminPassword string
	// Demo adds a small catalog with one costed product.
	Demo bool
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

type demoSupplier struct {
	name, taxID, email string
}

type demoMaterial struct {
	name, unit, stock, minStock string
}

type demoPrice struct {
	material, supplier, unitPrice string
}

type demoLine struct {
	material, supplier, quantity string
}

var (
	demoSuppliers = []demoSupplier{
		{name: "Condutores Alfa", taxID: "11.111.111/0001-11", email: "vendas@alfa.example"},
		{name: "Beta Componentes", taxID: "22.222.222/0001-22", email: "contato@beta.example"},
	}
	demoMaterials = []demoMaterial{
		{name: "Fio de cobre 2.5mm", unit: "m", stock: "500", minStock: "100"},
		{name: "Plugue macho 10A", unit: "un", stock: "120", minStock: "50"},
		{name: "Tomada tripla", unit: "un", stock: "40", minStock: "50"},
	}
	demoPrices = []demoPrice{
		{material: "Fio de cobre 2.5mm", supplier: "Condutores Alfa", unitPrice: "2.50"},
		{material: "Fio de cobre 2.5mm", supplier: "Beta Componentes", unitPrice: "2.10"},
		{material: "Plugue macho 10A", supplier: "Condutores Alfa", unitPrice: "3.90"},
		{material: "Plugue macho 10A", supplier: "Beta Componentes", unitPrice: "4.20"},
		{material: "Tomada tripla", supplier: "Beta Componentes", unitPrice: "6.75"},
	}
)

const (
	demoProductName  = "Extensão 5m"
	demoProductPrice = "39.90"
)

var demoComposition = []demoLine{
	{material: "Fio de cobre 2.5mm", supplier: "Condutores Alfa", quantity: "5"},
	{material: "Plugue macho 10A", supplier: "Beta Componentes", quantity: "1"},
	{material: "Tomada tripla", supplier: "Beta Componentes", quantity: "1"},
}

// Run executes the startup seed in an idempotent way.
func Run(ctx context.Context, db *sql.DB, cfg Config) (Stats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := seedAdmin(ctx, tx, cfg.AdminEmail, cfg.AdminPassword, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if cfg.Demo {
		if err := seedDemoCatalog(ctx, tx, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func seedAdmin(ctx context.Context, tx *sql.Tx, email, password string, stats *Stats) error {
	if email == "" || password == "" {
		return nil
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ? LIMIT 1)`, email).Scan(&exists); err != nil {
		return fmt.Errorf("check admin user existence: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO users (email, password_hash) VALUES (?, ?)`, email, string(hash)); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}
	stats.Inserts++
	return nil
}

func seedDemoCatalog(ctx context.Context, tx *sql.Tx, stats *Stats) error {
	suppliers := make(map[string]int64, len(demoSuppliers))
	for _, s := range demoSuppliers {
		id, err := ensureRow(ctx, tx, stats,
			`SELECT id FROM suppliers WHERE name = ?`, []any{s.name},
			`INSERT INTO suppliers (name, tax_id, email) VALUES (?, ?, ?)`, []any{s.name, s.taxID, s.email})
		if err != nil {
			return fmt.Errorf("ensure supplier %q: %w", s.name, err)
		}
		suppliers[s.name] = id
	}

	materials := make(map[string]int64, len(demoMaterials))
	for _, m := range demoMaterials {
		id, err := ensureRow(ctx, tx, stats,
			`SELECT id FROM materials WHERE name = ?`, []any{m.name},
			`INSERT INTO materials (name, unit, stock, min_stock) VALUES (?, ?, ?, ?)`, []any{m.name, m.unit, m.stock, m.minStock})
		if err != nil {
			return fmt.Errorf("ensure material %q: %w", m.name, err)
		}
		materials[m.name] = id
	}

	for _, p := range demoPrices {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO supplier_prices (material_id, supplier_id, unit_price)
			VALUES (?, ?, ?)
			ON CONFLICT (material_id, supplier_id) DO NOTHING
		`, materials[p.material], suppliers[p.supplier], p.unitPrice)
		if err != nil {
			return fmt.Errorf("insert demo price %q/%q: %w", p.material, p.supplier, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			stats.Inserts++
		}
	}

	var productID int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM products WHERE name = ?`, demoProductName).Scan(&productID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check demo product existence: %w", err)
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO products (name, selling_price) VALUES (?, ?)`, demoProductName, demoProductPrice)
	if err != nil {
		return fmt.Errorf("insert demo product: %w", err)
	}
	if productID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("demo product id: %w", err)
	}
	stats.Inserts++

	for i, line := range demoComposition {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO composition_lines (product_id, position, material_id, supplier_id, quantity)
			VALUES (?, ?, ?, ?, ?)
		`, productID, i, materials[line.material], suppliers[line.supplier], line.quantity); err != nil {
			return fmt.Errorf("insert demo composition line %d: %w", i, err)
		}
		stats.Inserts++
	}
	return nil
}

// ensureRow returns the id found by lookup, inserting the row first when it is missing.
func ensureRow(ctx context.Context, tx *sql.Tx, stats *Stats, lookup string, lookupArgs []any, insert string, insertArgs []any) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, lookup, lookupArgs...).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	res, err := tx.ExecContext(ctx, insert, insertArgs...)
	if err != nil {
		return 0, err
	}
	stats.Inserts++
	return res.LastInsertId()
}
