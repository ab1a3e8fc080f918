package sales

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/DiomarGoncalves/ElectraVolt/internal/catalog"
)

// memStore is an in-memory Store. A transaction holds the lock and works on copies that replace
// the shared state on Commit.
type memStore struct {
	mu       sync.Mutex
	products map[int64]catalog.Product
	catalog  *catalog.Snapshot
	sales    []Sale
	failSave bool
}

func newMemStore(cat *catalog.Snapshot, products ...catalog.Product) *memStore {
	s := &memStore{products: map[int64]catalog.Product{}, catalog: cat}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *memStore) productStock(id int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Stock
}

func (s *memStore) savedSales() []Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Sale(nil), s.sales...)
}

func (s *memStore) BeginSale(context.Context) (Tx, error) {
	s.mu.Lock()
	products := make(map[int64]catalog.Product, len(s.products))
	for k, v := range s.products {
		products[k] = v
	}
	return &memTx{store: s, products: products, sales: append([]Sale(nil), s.sales...)}, nil
}

type memTx struct {
	store    *memStore
	products map[int64]catalog.Product
	sales    []Sale
	done     bool
}

var errTxDone = errors.New("transaction already finished")

func (t *memTx) finish() error {
	if t.done {
		return errTxDone
	}
	t.done = true
	t.store.mu.Unlock()
	return nil
}

func (t *memTx) Commit() error {
	if t.done {
		return errTxDone
	}
	t.store.products = t.products
	t.store.sales = t.sales
	return t.finish()
}

func (t *memTx) Rollback() error { return t.finish() }

func (t *memTx) Product(_ context.Context, id int64) (catalog.Product, error) {
	p, ok := t.products[id]
	if !ok {
		return catalog.Product{}, fmt.Errorf("product %d: %w", id, catalog.ErrNotFound)
	}
	return p, nil
}

func (t *memTx) Catalog(context.Context) (catalog.Reader, error) {
	return t.store.catalog, nil
}

func (t *memTx) DeductProductStock(_ context.Context, id, qty int64) error {
	p, ok := t.products[id]
	if !ok {
		return fmt.Errorf("product %d: %w", id, catalog.ErrNotFound)
	}
	if p.Stock < qty {
		return fmt.Errorf("product %d: %w", id, ErrInsufficientStock)
	}
	p.Stock -= qty
	t.products[id] = p
	return nil
}

func (t *memTx) InsertSale(_ context.Context, sale *Sale) error {
	if t.store.failSave {
		return errors.New("disk full")
	}
	sale.ID = int64(len(t.sales) + 1)
	t.sales = append(t.sales, *sale)
	return nil
}
