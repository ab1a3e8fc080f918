package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/DiomarGoncalves/ElectraVolt/internal/catalog"
)

var (
	// ErrInUse is returned when deleting a row that other records still reference.
	ErrInUse = errors.New("still referenced")
	// ErrNegativeStock is returned when a stock adjustment would leave a negative balance.
	ErrNegativeStock = errors.New("stock cannot become negative")
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the sqlite-backed catalog and production store.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// withTx runs fn inside a transaction, committing on success.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func notFound(kind string, id int64) error {
	return fmt.Errorf("%s %d: %w", kind, id, catalog.ErrNotFound)
}

func exists(ctx context.Context, q querier, query string, args ...any) (bool, error) {
	var ok bool
	if err := q.QueryRowContext(ctx, query, args...).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func requireAffected(res sql.Result, kind string, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %s %d: %w", kind, id, err)
	}
	if affected == 0 {
		return notFound(kind, id)
	}
	return nil
}

// LoadSnapshot reads suppliers, materials and prices into an immutable catalog snapshot.
func (s *Store) LoadSnapshot(ctx context.Context) (*catalog.Snapshot, error) {
	var snap *catalog.Snapshot
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		snap, err = loadSnapshot(ctx, tx)
		return err
	})
	return snap, err
}

// ProductCatalog reads a product together with the snapshot it is costed against. Both come from
// one transaction, so the composition and the prices belong to the same committed state.
func (s *Store) ProductCatalog(ctx context.Context, id int64) (catalog.Product, *catalog.Snapshot, error) {
	var (
		p    catalog.Product
		snap *catalog.Snapshot
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if p, err = loadProduct(ctx, tx, id); err != nil {
			return err
		}
		snap, err = loadSnapshot(ctx, tx)
		return err
	})
	if err != nil {
		return catalog.Product{}, nil, err
	}
	return p, snap, nil
}

func loadSnapshot(ctx context.Context, q querier) (*catalog.Snapshot, error) {
	suppliers, err := listSuppliers(ctx, q)
	if err != nil {
		return nil, err
	}
	materials, err := listMaterials(ctx, q)
	if err != nil {
		return nil, err
	}
	prices, err := listPrices(ctx, q)
	if err != nil {
		return nil, err
	}
	return catalog.NewSnapshot(suppliers, materials, prices), nil
}
