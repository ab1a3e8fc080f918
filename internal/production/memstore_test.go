package production

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/DiomarGoncalves/ElectraVolt/internal/catalog"
)

// memStore is an in-memory Store. Each transaction works on a private copy of the state that
// replaces the shared state on Commit.
type memStore struct {
	mu        sync.Mutex
	state     memState
	failAfter int // fail AdjustMaterialStock after this many calls when > 0
}

type memState struct {
	products  map[int64]catalog.Product
	materials map[int64]decimal.Decimal
	runs      map[int64]Run
	nextRun   int64
}

func (s memState) clone() memState {
	out := memState{
		products:  make(map[int64]catalog.Product, len(s.products)),
		materials: make(map[int64]decimal.Decimal, len(s.materials)),
		runs:      make(map[int64]Run, len(s.runs)),
		nextRun:   s.nextRun,
	}
	for k, v := range s.products {
		out.products[k] = v
	}
	for k, v := range s.materials {
		out.materials[k] = v
	}
	for k, v := range s.runs {
		out.runs[k] = v
	}
	return out
}

func newMemStore() *memStore {
	return &memStore{state: memState{
		products:  map[int64]catalog.Product{},
		materials: map[int64]decimal.Decimal{},
		runs:      map[int64]Run{},
		nextRun:   1,
	}}
}

func (s *memStore) stock(id int64) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.materials[id]
}

func (s *memStore) productStock(id int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.products[id].Stock
}

func (s *memStore) run(id int64) (Run, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.state.runs[id]
	return r, ok
}

func (s *memStore) Begin(context.Context) (Tx, error) {
	s.mu.Lock()
	return &memTx{store: s, state: s.state.clone()}, nil
}

type memTx struct {
	store   *memStore
	state   memState
	adjusts int
	done    bool
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
	t.store.state = t.state
	return t.finish()
}

func (t *memTx) Rollback() error { return t.finish() }

func (t *memTx) Product(_ context.Context, id int64) (catalog.Product, error) {
	p, ok := t.state.products[id]
	if !ok {
		return catalog.Product{}, fmt.Errorf("product %d: %w", id, catalog.ErrNotFound)
	}
	return p, nil
}

func (t *memTx) MaterialStock(_ context.Context, id int64) (decimal.Decimal, error) {
	q, ok := t.state.materials[id]
	if !ok {
		return decimal.Zero, fmt.Errorf("material %d: %w", id, catalog.ErrNotFound)
	}
	return q, nil
}

func (t *memTx) AdjustMaterialStock(_ context.Context, id int64, delta decimal.Decimal) error {
	t.adjusts++
	if t.store.failAfter > 0 && t.adjusts > t.store.failAfter {
		return errors.New("disk full")
	}
	q, ok := t.state.materials[id]
	if !ok {
		return fmt.Errorf("material %d: %w", id, catalog.ErrNotFound)
	}
	next := q.Add(delta)
	if next.IsNegative() {
		return fmt.Errorf("material %d stock would become %s", id, next)
	}
	t.state.materials[id] = next
	return nil
}

func (t *memTx) AdjustProductStock(_ context.Context, id int64, delta int64) error {
	p, ok := t.state.products[id]
	if !ok {
		return fmt.Errorf("product %d: %w", id, catalog.ErrNotFound)
	}
	p.Stock += delta
	t.state.products[id] = p
	return nil
}

func (t *memTx) InsertRun(_ context.Context, run *Run) error {
	run.ID = t.state.nextRun
	t.state.nextRun++
	t.state.runs[run.ID] = *run
	return nil
}

func (t *memTx) Run(_ context.Context, id int64) (Run, error) {
	r, ok := t.state.runs[id]
	if !ok {
		return Run{}, fmt.Errorf("run %d: %w", id, catalog.ErrNotFound)
	}
	return r, nil
}

func (t *memTx) UpdateRunStatus(_ context.Context, id int64, status Status, at time.Time) error {
	r, ok := t.state.runs[id]
	if !ok {
		return fmt.Errorf("run %d: %w", id, catalog.ErrNotFound)
	}
	r.Status = status
	r.UpdatedAt = at
	t.state.runs[id] = r
	return nil
}
