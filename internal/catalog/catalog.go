package catalog

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound reports that a referenced material, supplier, product or run does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalid reports a value the catalog does not accept, such as a negative price or a zero quantity.
var ErrInvalid = errors.New("invalid value")

// Supplier is a vendor that sells raw materials.
type Supplier struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	TaxID string `json:"tax_id"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// Material is a raw material kept in stock. Stock is only changed by production runs.
type Material struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Unit        string          `json:"unit"`
	Stock       decimal.Decimal `json:"stock"`
	MinStock    decimal.Decimal `json:"min_stock"`
	Description string          `json:"description"`
}

// PriceEntry is the unit price one supplier charges for one material.
type PriceEntry struct {
	MaterialID int64           `json:"material_id"`
	SupplierID int64           `json:"supplier_id"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// NewPriceEntry creates a validated PriceEntry
func NewPriceEntry(materialID, supplierID int64, unitPrice decimal.Decimal) (*PriceEntry, error) {
	if materialID <= 0 {
		return nil, fmt.Errorf("%w: material id must be positive, got %d", ErrInvalid, materialID)
	}
	if supplierID <= 0 {
		return nil, fmt.Errorf("%w: supplier id must be positive, got %d", ErrInvalid, supplierID)
	}
	if unitPrice.IsNegative() {
		return nil, fmt.Errorf("%w: unit price cannot be negative, got %s", ErrInvalid, unitPrice)
	}
	return &PriceEntry{MaterialID: materialID, SupplierID: supplierID, UnitPrice: unitPrice}, nil
}

// CompositionLine is one bill-of-materials entry: how much of a material, bought from which supplier,
// goes into a single unit of product.
type CompositionLine struct {
	ID         int64           `json:"id,omitempty"`
	MaterialID int64           `json:"material_id"`
	SupplierID int64           `json:"supplier_id"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// NewCompositionLine creates a validated CompositionLine
func NewCompositionLine(materialID, supplierID int64, quantity decimal.Decimal) (*CompositionLine, error) {
	if materialID <= 0 {
		return nil, fmt.Errorf("%w: material id must be positive, got %d", ErrInvalid, materialID)
	}
	if supplierID <= 0 {
		return nil, fmt.Errorf("%w: supplier id must be positive, got %d", ErrInvalid, supplierID)
	}
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("%w: quantity must be positive, got %s", ErrInvalid, quantity)
	}
	return &CompositionLine{MaterialID: materialID, SupplierID: supplierID, Quantity: quantity}, nil
}

// Composition is a product's bill of materials in insertion order.
type Composition []CompositionLine

// Clone returns an independent copy of the composition.
func (c Composition) Clone() Composition {
	if c == nil {
		return nil
	}
	out := make(Composition, len(c))
	copy(out, c)
	return out
}

// WithSupplier returns a copy of the composition where line i is bought from supplierID.
func (c Composition) WithSupplier(i int, supplierID int64) (Composition, error) {
	if i < 0 || i >= len(c) {
		return nil, fmt.Errorf("%w: composition line %d out of range (%d lines)", ErrInvalid, i, len(c))
	}
	if supplierID <= 0 {
		return nil, fmt.Errorf("%w: supplier id must be positive, got %d", ErrInvalid, supplierID)
	}
	out := c.Clone()
	out[i].SupplierID = supplierID
	return out, nil
}

// Product is a manufactured good priced from its composition.
type Product struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	Stock        int64           `json:"stock"`
	Composition  Composition     `json:"composition"`
}

// Reader is the read side of the catalog used by costing and simulation.
type Reader interface {
	Material(id int64) (Material, error)
	Supplier(id int64) (Supplier, error)
	// Price returns the entry for the pair and false when the supplier does not sell the material.
	Price(materialID, supplierID int64) (PriceEntry, bool)
	PricesForMaterial(materialID int64) []PriceEntry
}
