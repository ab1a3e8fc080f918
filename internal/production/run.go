package production

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNoComposition     = errors.New("product has no composition defined")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidBatch      = errors.New("batch quantity must be a positive integer")
)

// Status is the lifecycle state of a production run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// ParseStatus accepts the three known statuses, case-insensitively.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusCompleted, StatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Consumption is the amount of one material taken from stock when a run was created.
type Consumption struct {
	MaterialID int64           `json:"material_id"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// Run is one batch-manufacturing event.
type Run struct {
	ID          int64         `json:"id"`
	ProductID   int64         `json:"product_id"`
	Batch       int64         `json:"batch"`
	Status      Status        `json:"status"`
	Notes       string        `json:"notes"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	Consumption []Consumption `json:"consumption"`
}

// Shortage describes one material that cannot cover a run.
type Shortage struct {
	MaterialID int64           `json:"material_id"`
	Required   decimal.Decimal `json:"required"`
	Available  decimal.Decimal `json:"available"`
}

// InsufficientStockError lists every material short for a requested run.
type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("material %d: required %s, available %s", s.MaterialID, s.Required, s.Available))
	}
	return ErrInsufficientStock.Error() + ": " + strings.Join(parts, "; ")
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
