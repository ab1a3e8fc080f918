package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/DiomarGoncalves/ElectraVolt/internal/catalog"
)

// OptimizeComposition returns a copy of comp where every line buys from the cheapest supplier of its
// material. On a price tie the current supplier is kept when it is among the cheapest, otherwise the
// lowest supplier id wins. Lines whose material has no prices are left as they are.
func OptimizeComposition(cat catalog.Reader, comp catalog.Composition) catalog.Composition {
	out := comp.Clone()
	for i, line := range out {
		prices := cat.PricesForMaterial(line.MaterialID)
		if len(prices) == 0 {
			continue
		}
		// prices are sorted by (unit price, supplier id)
		best := prices[0]
		for _, p := range prices {
			if !p.UnitPrice.Equal(best.UnitPrice) {
				break
			}
			if p.SupplierID == line.SupplierID {
				best = p
				break
			}
		}
		out[i].SupplierID = best.SupplierID
	}
	return out
}

// Comparison holds the costing of two compositions and the signed differences simulated - original.
type Comparison struct {
	Original    Result          `json:"original"`
	Simulated   Result          `json:"simulated"`
	CostDelta   decimal.Decimal `json:"cost_delta"`
	ProfitDelta decimal.Decimal `json:"profit_delta"`
	MarginDelta decimal.Decimal `json:"margin_delta"`
}

// Compare costs both compositions at the same selling price.
func Compare(cat catalog.Reader, original, simulated catalog.Composition, sellingPrice decimal.Decimal) (Comparison, error) {
	orig, err := ResolveCost(cat, original, sellingPrice)
	if err != nil {
		return Comparison{}, fmt.Errorf("cost original composition: %w", err)
	}
	sim, err := ResolveCost(cat, simulated, sellingPrice)
	if err != nil {
		return Comparison{}, fmt.Errorf("cost simulated composition: %w", err)
	}
	return Comparison{
		Original:    orig,
		Simulated:   sim,
		CostDelta:   sim.TotalCost.Sub(orig.TotalCost),
		ProfitDelta: sim.Profit.Sub(orig.Profit),
		MarginDelta: sim.Margin.Sub(orig.Margin),
	}, nil
}

// Simulate applies manual supplier overrides keyed by line index and compares the result with comp.
func Simulate(cat catalog.Reader, comp catalog.Composition, overrides map[int]int64, sellingPrice decimal.Decimal) (Comparison, error) {
	alt := comp.Clone()
	for i, supplierID := range overrides {
		next, err := alt.WithSupplier(i, supplierID)
		if err != nil {
			return Comparison{}, fmt.Errorf("apply override: %w", err)
		}
		alt = next
	}
	return Compare(cat, comp, alt, sellingPrice)
}
