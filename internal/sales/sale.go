package sales

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNoItems           = errors.New("sale has no items")
	ErrInvalidItem       = errors.New("invalid sale item")
	ErrInsufficientStock = errors.New("insufficient finished stock")
)

// Item is one product line of a sale. Price and cost are per unit.
type Item struct {
	ProductID int64           `json:"product_id"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

func (i Item) Revenue() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}

func (i Item) Profit() decimal.Decimal {
	return i.UnitPrice.Sub(i.UnitCost).Mul(decimal.NewFromInt(i.Quantity))
}

// Sale is a recorded sale of finished products.
type Sale struct {
	ID        int64           `json:"id"`
	Total     decimal.Decimal `json:"total"`
	Profit    decimal.Decimal `json:"profit"`
	Notes     string          `json:"notes"`
	CreatedAt time.Time       `json:"created_at"`
	Items     []Item          `json:"items"`
}

// Shortage describes one product without enough finished units for a sale.
type Shortage struct {
	ProductID int64 `json:"product_id"`
	Requested int64 `json:"requested"`
	Available int64 `json:"available"`
}

// InsufficientStockError lists every product short for a requested sale.
type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("product %d: requested %d, available %d", s.ProductID, s.Requested, s.Available))
	}
	return ErrInsufficientStock.Error() + ": " + strings.Join(parts, "; ")
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
