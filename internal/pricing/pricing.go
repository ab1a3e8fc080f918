package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/DiomarGoncalves/ElectraVolt/internal/catalog"
)

var hundred = decimal.NewFromInt(100)

// LineCost is the costed form of one composition line.
type LineCost struct {
	MaterialID   int64           `json:"material_id"`
	MaterialName string          `json:"material_name"`
	Unit         string          `json:"unit"`
	SupplierID   int64           `json:"supplier_id"`
	SupplierName string          `json:"supplier_name"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Cost         decimal.Decimal `json:"cost"`
	// Unresolved is set when the supplier has no price for the material; Cost is then zero.
	Unresolved bool `json:"unresolved"`
}

// Result groups the full costing output for one composition.
type Result struct {
	MaterialCost decimal.Decimal `json:"material_cost"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	Margin       decimal.Decimal `json:"margin"`
	Profit       decimal.Decimal `json:"profit"`
	Lines        []LineCost      `json:"lines"`
	Unresolved   int             `json:"unresolved"`
}

// ResolveCost prices every line of comp against cat and derives margin and profit from sellingPrice.
// A line whose material or supplier is missing from the catalog fails the whole call.
func ResolveCost(cat catalog.Reader, comp catalog.Composition, sellingPrice decimal.Decimal) (Result, error) {
	lines := make([]LineCost, 0, len(comp))
	materialCost := decimal.Zero
	unresolved := 0

	for i, line := range comp {
		m, err := cat.Material(line.MaterialID)
		if err != nil {
			return Result{}, fmt.Errorf("resolve line %d: %w", i, err)
		}
		sup, err := cat.Supplier(line.SupplierID)
		if err != nil {
			return Result{}, fmt.Errorf("resolve line %d: %w", i, err)
		}

		lc := LineCost{
			MaterialID:   m.ID,
			MaterialName: m.Name,
			Unit:         m.Unit,
			SupplierID:   sup.ID,
			SupplierName: sup.Name,
			Quantity:     line.Quantity,
			UnitPrice:    decimal.Zero,
			Cost:         decimal.Zero,
		}

		price, ok := cat.Price(line.MaterialID, line.SupplierID)
		if ok {
			lc.UnitPrice = price.UnitPrice
			lc.Cost = price.UnitPrice.Mul(line.Quantity)
			materialCost = materialCost.Add(lc.Cost)
		} else {
			lc.Unresolved = true
			unresolved++
		}
		lines = append(lines, lc)
	}

	totalCost := materialCost
	return Result{
		MaterialCost: materialCost,
		TotalCost:    totalCost,
		SellingPrice: sellingPrice,
		Margin:       Margin(sellingPrice, totalCost),
		Profit:       sellingPrice.Sub(totalCost),
		Lines:        lines,
		Unresolved:   unresolved,
	}, nil
}

// Margin is profit as a percentage of cost. It is zero when cost is zero.
func Margin(sellingPrice, totalCost decimal.Decimal) decimal.Decimal {
	if totalCost.IsZero() {
		return decimal.Zero
	}
	return sellingPrice.Sub(totalCost).Div(totalCost).Mul(hundred)
}

// Quote is one supplier's offer for a material.
type Quote struct {
	SupplierID   int64           `json:"supplier_id"`
	SupplierName string          `json:"supplier_name"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

// SupplierQuotes lists every supplier price for a material, cheapest first.
func SupplierQuotes(cat catalog.Reader, materialID int64) ([]Quote, error) {
	if _, err := cat.Material(materialID); err != nil {
		return nil, err
	}
	prices := cat.PricesForMaterial(materialID)
	quotes := make([]Quote, 0, len(prices))
	for _, p := range prices {
		sup, err := cat.Supplier(p.SupplierID)
		if err != nil {
			return nil, fmt.Errorf("quote for material %d: %w", materialID, err)
		}
		quotes = append(quotes, Quote{SupplierID: sup.ID, SupplierName: sup.Name, UnitPrice: p.UnitPrice})
	}
	return quotes, nil
}

// Stats summarises the prices on offer for a material.
type Stats struct {
	Suppliers int             `json:"suppliers"`
	Min       decimal.Decimal `json:"min"`
	Max       decimal.Decimal `json:"max"`
	Average   decimal.Decimal `json:"average"`
}

// PriceStats returns zero values for a material nobody sells.
func PriceStats(cat catalog.Reader, materialID int64) Stats {
	prices := cat.PricesForMaterial(materialID)
	if len(prices) == 0 {
		return Stats{Min: decimal.Zero, Max: decimal.Zero, Average: decimal.Zero}
	}
	st := Stats{Suppliers: len(prices), Min: prices[0].UnitPrice, Max: prices[0].UnitPrice}
	sum := decimal.Zero
	for _, p := range prices {
		sum = sum.Add(p.UnitPrice)
		st.Min = decimal.Min(st.Min, p.UnitPrice)
		st.Max = decimal.Max(st.Max, p.UnitPrice)
	}
	st.Average = sum.Div(decimal.NewFromInt(int64(len(prices))))
	return st
}
