package production

import (
	"github.com/shopspring/decimal"

	"github.com/DiomarGoncalves/ElectraVolt/internal/catalog"
)

// Requirements returns the material quantities a batch consumes, one entry per material in first-seen
// composition order. Lines sharing a material are summed.
func Requirements(comp catalog.Composition, batch int64) []Consumption {
	b := decimal.NewFromInt(batch)
	index := make(map[int64]int, len(comp))
	out := make([]Consumption, 0, len(comp))
	for _, line := range comp {
		need := line.Quantity.Mul(b)
		if i, ok := index[line.MaterialID]; ok {
			out[i].Quantity = out[i].Quantity.Add(need)
			continue
		}
		index[line.MaterialID] = len(out)
		out = append(out, Consumption{MaterialID: line.MaterialID, Quantity: need})
	}
	return out
}

// StockFunc reports the current stock of a material.
type StockFunc func(materialID int64) (decimal.Decimal, error)

// CheckAvailability compares requirements against stock and returns every shortage found.
func CheckAvailability(reqs []Consumption, stock StockFunc) ([]Shortage, error) {
	var shortages []Shortage
	for _, r := range reqs {
		have, err := stock(r.MaterialID)
		if err != nil {
			return nil, err
		}
		if have.LessThan(r.Quantity) {
			shortages = append(shortages, Shortage{MaterialID: r.MaterialID, Required: r.Quantity, Available: have})
		}
	}
	return shortages, nil
}

// MaxBatch is the largest batch the current stock allows. An empty composition yields zero.
func MaxBatch(comp catalog.Composition, stock StockFunc) (int64, error) {
	reqs := Requirements(comp, 1)
	if len(reqs) == 0 {
		return 0, nil
	}
	var maxBatch int64 = -1
	for _, r := range reqs {
		have, err := stock(r.MaterialID)
		if err != nil {
			return 0, err
		}
		n := have.Div(r.Quantity).Floor().IntPart()
		if have.IsNegative() {
			n = 0
		}
		if maxBatch < 0 || n < maxBatch {
			maxBatch = n
		}
	}
	return maxBatch, nil
}
