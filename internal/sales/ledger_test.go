package sales

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DiomarGoncalves/ElectraVolt/internal/catalog"
)

const (
	copper   int64 = 1
	casing   int64 = 2
	alfa     int64 = 1
	cord     int64 = 100
	adapter  int64 = 101
	unpriced int64 = 102
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr(v decimal.Decimal) *decimal.Decimal { return &v }

type countingRecorder struct {
	mu       sync.Mutex
	recorded int
	total    decimal.Decimal
	rejected map[string]int
}

func (r *countingRecorder) SaleRecorded(_ int, total decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recorded++
	r.total = r.total.Add(total)
}

func (r *countingRecorder) SaleRejected(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected[reason]++
}

// newFixture: cord costs 2.5 m copper at 2.50 plus one casing at 0.35 (6.60) and sells for 15 with
// 5 in stock; adapter has no composition, sells for 8 with 1 in stock; unpriced uses a material
// missing from the catalog.
func newFixture(t *testing.T) (*memStore, *Ledger, *countingRecorder) {
	t.Helper()
	cat := catalog.NewSnapshot(
		[]catalog.Supplier{{ID: alfa, Name: "Alfa"}},
		[]catalog.Material{{ID: copper, Name: "Copper wire", Unit: "m"}, {ID: casing, Name: "Casing", Unit: "un"}},
		[]catalog.PriceEntry{
			{MaterialID: copper, SupplierID: alfa, UnitPrice: d("2.50")},
			{MaterialID: casing, SupplierID: alfa, UnitPrice: d("0.35")},
		},
	)
	store := newMemStore(cat,
		catalog.Product{ID: cord, Name: "Extension cord", SellingPrice: d("15"), Stock: 5, Composition: catalog.Composition{
			{MaterialID: copper, SupplierID: alfa, Quantity: d("2.5")},
			{MaterialID: casing, SupplierID: alfa, Quantity: d("1")},
		}},
		catalog.Product{ID: adapter, Name: "Adapter", SellingPrice: d("8"), Stock: 1},
		catalog.Product{ID: unpriced, Name: "Prototype", SellingPrice: d("1"), Stock: 1, Composition: catalog.Composition{
			{MaterialID: 99, SupplierID: alfa, Quantity: d("1")},
		}},
	)
	rec := &countingRecorder{rejected: map[string]int{}}
	clock := func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }
	return store, NewLedger(store, nil, WithRecorder(rec), WithClock(clock)), rec
}

func TestRecord_DefaultsPriceAndResolvesCost(t *testing.T) {
	store, ledger, rec := newFixture(t)

	sale, err := ledger.Record(context.Background(), RecordInput{
		Items: []ItemInput{{ProductID: cord, Quantity: 2}},
		Notes: "counter",
	})
	require.NoError(t, err)

	require.Len(t, sale.Items, 1)
	assert.True(t, sale.Items[0].UnitPrice.Equal(d("15")))
	assert.True(t, sale.Items[0].UnitCost.Equal(d("6.60")))
	assert.True(t, sale.Total.Equal(d("30")), sale.Total.String())
	assert.True(t, sale.Profit.Equal(d("16.80")), sale.Profit.String())
	assert.Equal(t, "counter", sale.Notes)
	assert.Equal(t, int64(1), sale.ID)
	assert.Equal(t, 2026, sale.CreatedAt.Year())

	assert.Equal(t, int64(3), store.productStock(cord))
	assert.Equal(t, 1, rec.recorded)
	assert.True(t, rec.total.Equal(d("30")))
}

func TestRecord_ExplicitPriceAndCostAreExact(t *testing.T) {
	store, ledger, _ := newFixture(t)

	sale, err := ledger.Record(context.Background(), RecordInput{Items: []ItemInput{
		{ProductID: cord, Quantity: 3, UnitPrice: ptr(d("0.1")), UnitCost: ptr(d("0.07"))},
		{ProductID: adapter, Quantity: 1, UnitPrice: ptr(d("0.2"))},
	}})
	require.NoError(t, err)

	// 3 x 0.1 + 0.2 with no float drift; the adapter has no composition so costs zero
	assert.True(t, sale.Total.Equal(d("0.5")), sale.Total.String())
	assert.True(t, sale.Profit.Equal(d("0.29")), sale.Profit.String())
	assert.Equal(t, int64(2), store.productStock(cord))
	assert.Equal(t, int64(0), store.productStock(adapter))
}

func TestRecord_ShortageChangesNothing(t *testing.T) {
	store, ledger, rec := newFixture(t)

	// the two cord lines add up to 6 against 5 in stock
	_, err := ledger.Record(context.Background(), RecordInput{Items: []ItemInput{
		{ProductID: cord, Quantity: 4},
		{ProductID: adapter, Quantity: 1},
		{ProductID: cord, Quantity: 2},
	}})
	require.ErrorIs(t, err, ErrInsufficientStock)

	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	require.Len(t, stockErr.Shortages, 1)
	assert.Equal(t, Shortage{ProductID: cord, Requested: 6, Available: 5}, stockErr.Shortages[0])

	assert.Equal(t, int64(5), store.productStock(cord))
	assert.Equal(t, int64(1), store.productStock(adapter))
	assert.Empty(t, store.savedSales())
	assert.Equal(t, 1, rec.rejected["insufficient_stock"])
}

func TestRecord_RejectsInvalidInput(t *testing.T) {
	_, ledger, _ := newFixture(t)
	ctx := context.Background()

	_, err := ledger.Record(ctx, RecordInput{})
	assert.ErrorIs(t, err, ErrNoItems)

	for name, it := range map[string]ItemInput{
		"zero quantity":  {ProductID: cord, Quantity: 0},
		"no product":     {Quantity: 1},
		"negative price": {ProductID: cord, Quantity: 1, UnitPrice: ptr(d("-1e-400"))},
		"negative cost":  {ProductID: cord, Quantity: 1, UnitCost: ptr(d("-0.01"))},
	} {
		_, err := ledger.Record(ctx, RecordInput{Items: []ItemInput{it}})
		assert.ErrorIs(t, err, ErrInvalidItem, name)
	}

	_, err = ledger.Record(ctx, RecordInput{Items: []ItemInput{{ProductID: 404, Quantity: 1}}})
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	_, err = ledger.Record(ctx, RecordInput{Items: []ItemInput{{ProductID: unpriced, Quantity: 1}}})
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestRecord_FailedInsertRollsBack(t *testing.T) {
	store, ledger, rec := newFixture(t)
	store.failSave = true

	_, err := ledger.Record(context.Background(), RecordInput{Items: []ItemInput{{ProductID: cord, Quantity: 1}}})
	require.Error(t, err)

	assert.Equal(t, int64(5), store.productStock(cord))
	assert.Equal(t, 0, rec.recorded)
}

func TestRecord_ConcurrentSalesDoNotOversell(t *testing.T) {
	store, ledger, _ := newFixture(t)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = ledger.Record(context.Background(), RecordInput{Items: []ItemInput{{ProductID: cord, Quantity: 1}}})
		}()
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrInsufficientStock)
	}
	assert.Equal(t, 5, ok)
	assert.Equal(t, int64(0), store.productStock(cord))
	assert.Len(t, store.savedSales(), 5)
}
