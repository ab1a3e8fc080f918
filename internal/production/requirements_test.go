package production

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DiomarGoncalves/ElectraVolt/internal/catalog"
)

func stockOf(m map[int64]string) StockFunc {
	return func(id int64) (decimal.Decimal, error) {
		s, ok := m[id]
		if !ok {
			return decimal.Zero, fmt.Errorf("material %d: %w", id, catalog.ErrNotFound)
		}
		return d(s), nil
	}
}

func TestRequirements_MergesRepeatedMaterial(t *testing.T) {
	comp := catalog.Composition{
		{MaterialID: 3, SupplierID: 1, Quantity: d("0.5")},
		{MaterialID: 1, SupplierID: 1, Quantity: d("2")},
		{MaterialID: 3, SupplierID: 2, Quantity: d("0.25")},
	}

	reqs := Requirements(comp, 4)
	require.Len(t, reqs, 2)
	assert.Equal(t, int64(3), reqs[0].MaterialID)
	assert.True(t, reqs[0].Quantity.Equal(d("3")))
	assert.True(t, reqs[1].Quantity.Equal(d("8")))
}

func TestCheckAvailability(t *testing.T) {
	reqs := []Consumption{{MaterialID: 1, Quantity: d("5")}, {MaterialID: 2, Quantity: d("1")}}

	short, err := CheckAvailability(reqs, stockOf(map[int64]string{1: "5", 2: "0.5"}))
	require.NoError(t, err)
	require.Len(t, short, 1)
	assert.Equal(t, int64(2), short[0].MaterialID)

	_, err = CheckAvailability(reqs, stockOf(map[int64]string{1: "5"}))
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestMaxBatch(t *testing.T) {
	comp := catalog.Composition{
		{MaterialID: 1, SupplierID: 1, Quantity: d("4")},
		{MaterialID: 2, SupplierID: 1, Quantity: d("0.3")},
	}

	n, err := MaxBatch(comp, stockOf(map[int64]string{1: "10", 2: "100"}))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = MaxBatch(comp, stockOf(map[int64]string{1: "100", 2: "0.9"}))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = MaxBatch(nil, stockOf(nil))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus(" Completed ")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, st)
	assert.True(t, st.Terminal())
	assert.False(t, StatusPending.Terminal())

	_, err = ParseStatus("done")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
