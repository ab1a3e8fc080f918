package sales

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/DiomarGoncalves/ElectraVolt/internal/catalog"
	"github.com/DiomarGoncalves/ElectraVolt/internal/pricing"
)

// Store opens the transactions sales are booked in.
type Store interface {
	BeginSale(ctx context.Context) (Tx, error)
}

// Tx is one atomic unit of work. Nothing written through it is visible to others until Commit.
type Tx interface {
	Product(ctx context.Context, id int64) (catalog.Product, error)
	// Catalog reads the prices that unit costs are resolved against.
	Catalog(ctx context.Context) (catalog.Reader, error)
	// DeductProductStock removes qty finished units and fails with ErrInsufficientStock when fewer are on hand.
	DeductProductStock(ctx context.Context, productID, qty int64) error
	InsertSale(ctx context.Context, sale *Sale) error
	Commit() error
	Rollback() error
}

// Recorder receives sales outcomes, typically for metrics.
type Recorder interface {
	SaleRecorded(items int, total decimal.Decimal)
	SaleRejected(reason string)
}

type nopRecorder struct{}

func (nopRecorder) SaleRecorded(int, decimal.Decimal) {}
func (nopRecorder) SaleRejected(string)               {}

// Ledger books sales against finished product stock.
type Ledger struct {
	store Store
	log   *slog.Logger
	rec   Recorder
	now   func() time.Time
}

type Option func(*Ledger)

func WithRecorder(r Recorder) Option { return func(l *Ledger) { l.rec = r } }

func WithClock(now func() time.Time) Option { return func(l *Ledger) { l.now = now } }

func NewLedger(store Store, log *slog.Logger, opts ...Option) *Ledger {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	l := &Ledger{store: store, log: log, rec: nopRecorder{}, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ItemInput is one requested line. A nil UnitPrice sells at the product's selling price and a
// nil UnitCost is resolved from the product's composition at current supplier prices.
type ItemInput struct {
	ProductID int64
	Quantity  int64
	UnitPrice *decimal.Decimal
	UnitCost  *decimal.Decimal
}

type RecordInput struct {
	Items []ItemInput
	Notes string
}

func (in RecordInput) validate() error {
	if len(in.Items) == 0 {
		return ErrNoItems
	}
	for i, it := range in.Items {
		switch {
		case it.ProductID <= 0:
			return fmt.Errorf("%w: item %d: product id must be positive, got %d", ErrInvalidItem, i, it.ProductID)
		case it.Quantity <= 0:
			return fmt.Errorf("%w: item %d: quantity must be positive, got %d", ErrInvalidItem, i, it.Quantity)
		case it.UnitPrice != nil && it.UnitPrice.IsNegative():
			return fmt.Errorf("%w: item %d: unit price cannot be negative", ErrInvalidItem, i)
		case it.UnitCost != nil && it.UnitCost.IsNegative():
			return fmt.Errorf("%w: item %d: unit cost cannot be negative", ErrInvalidItem, i)
		}
	}
	return nil
}

// Record books a sale: every product's finished stock is reduced and the sale is stored, or
// nothing changes. Total and profit are exact sums over the items.
func (l *Ledger) Record(ctx context.Context, in RecordInput) (Sale, error) {
	if err := in.validate(); err != nil {
		return Sale{}, err
	}

	tx, err := l.store.BeginSale(ctx)
	if err != nil {
		return Sale{}, fmt.Errorf("begin sale transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var cat catalog.Reader
	sale := Sale{Notes: in.Notes, Total: decimal.Zero, Profit: decimal.Zero}
	demand := make(map[int64]int64, len(in.Items))
	var order []int64
	stock := make(map[int64]int64, len(in.Items))

	for i, it := range in.Items {
		product, err := tx.Product(ctx, it.ProductID)
		if err != nil {
			return Sale{}, fmt.Errorf("load product %d: %w", it.ProductID, err)
		}

		item := Item{ProductID: product.ID, Quantity: it.Quantity, UnitPrice: product.SellingPrice}
		if it.UnitPrice != nil {
			item.UnitPrice = *it.UnitPrice
		}
		if it.UnitCost != nil {
			item.UnitCost = *it.UnitCost
		} else {
			if cat == nil {
				if cat, err = tx.Catalog(ctx); err != nil {
					return Sale{}, fmt.Errorf("load catalog: %w", err)
				}
			}
			res, err := pricing.ResolveCost(cat, product.Composition, item.UnitPrice)
			if err != nil {
				return Sale{}, fmt.Errorf("cost item %d: %w", i, err)
			}
			item.UnitCost = res.TotalCost
		}

		if _, seen := demand[product.ID]; !seen {
			order = append(order, product.ID)
			stock[product.ID] = product.Stock
		}
		demand[product.ID] += item.Quantity
		sale.Items = append(sale.Items, item)
		sale.Total = sale.Total.Add(item.Revenue())
		sale.Profit = sale.Profit.Add(item.Profit())
	}

	var shortages []Shortage
	for _, id := range order {
		if demand[id] > stock[id] {
			shortages = append(shortages, Shortage{ProductID: id, Requested: demand[id], Available: stock[id]})
		}
	}
	if len(shortages) > 0 {
		l.rec.SaleRejected("insufficient_stock")
		l.log.InfoContext(ctx, "sale rejected", "items", len(in.Items), "shortages", len(shortages))
		return Sale{}, &InsufficientStockError{Shortages: shortages}
	}

	for _, id := range order {
		if err := tx.DeductProductStock(ctx, id, demand[id]); err != nil {
			return Sale{}, fmt.Errorf("deduct product %d: %w", id, err)
		}
	}

	sale.CreatedAt = l.now()
	if err := tx.InsertSale(ctx, &sale); err != nil {
		return Sale{}, fmt.Errorf("insert sale: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Sale{}, fmt.Errorf("commit sale: %w", err)
	}

	l.rec.SaleRecorded(len(sale.Items), sale.Total)
	l.log.InfoContext(ctx, "sale recorded", "sale_id", sale.ID, "items", len(sale.Items), "total", sale.Total.String())
	return sale, nil
}
