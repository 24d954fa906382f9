package invoice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func sampleInput() (Input, map[int64]ProductInfo) {
	in := Input{
		OrderID:     7,
		OrderDate:   time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		Status:      "OPEN",
		DiscountPct: 10,
		TaxPct:      19,
		Lines: []LineInput{
			{LineID: 1, ProductID: 100, Quantity: 2},
			{LineID: 2, ProductID: 200, Quantity: 3},
		},
	}
	products := map[int64]ProductInfo{
		100: {Name: "Widget", Price: 10},
		200: {Name: "Gadget", Price: 5},
	}
	return in, products
}

func TestComputeTotals(t *testing.T) {
	in, products := sampleInput()

	inv, err := Compute(in, products)
	require.NoError(t, err)

	require.InDelta(t, 35.00, inv.Subtotal, 1e-9)
	require.InDelta(t, 3.50, inv.DiscountAmount, 1e-9)
	require.InDelta(t, 31.50, inv.Net, 1e-9)
	require.InDelta(t, 5.985, inv.TaxAmount, 1e-9)
	require.InDelta(t, 37.485, inv.Total, 1e-9)

	require.Len(t, inv.Lines, 2)
	require.Equal(t, "Widget", inv.Lines[0].ProductName)
	require.InDelta(t, 20.00, inv.Lines[0].Subtotal, 1e-9)
	require.InDelta(t, 15.00, inv.Lines[1].Subtotal, 1e-9)
}

func TestComputeRoundsOnlyForDisplay(t *testing.T) {
	in, products := sampleInput()

	inv, err := Compute(in, products)
	require.NoError(t, err)

	rounded := inv.Rounded()
	require.InDelta(t, 5.99, rounded.TaxAmount, 1e-9)
	require.InDelta(t, 37.49, rounded.Total, 1e-9)

	// The original keeps full precision.
	require.InDelta(t, 5.985, inv.TaxAmount, 1e-9)
}

func TestComputeEmptyOrder(t *testing.T) {
	inv, err := Compute(Input{OrderID: 1, Status: "OPEN", DiscountPct: 10, TaxPct: 19}, nil)
	require.NoError(t, err)
	require.Zero(t, inv.Subtotal)
	require.Zero(t, inv.Total)
	require.Empty(t, inv.Lines)
}

func TestComputeExtremePercentages(t *testing.T) {
	in, products := sampleInput()

	in.DiscountPct = 100
	in.TaxPct = 0
	inv, err := Compute(in, products)
	require.NoError(t, err)
	require.InDelta(t, 35.00, inv.DiscountAmount, 1e-9)
	require.Zero(t, inv.Net)
	require.Zero(t, inv.Total)

	in.DiscountPct = 0
	in.TaxPct = 0
	inv, err = Compute(in, products)
	require.NoError(t, err)
	require.InDelta(t, 35.00, inv.Total, 1e-9)
}

func TestComputeMissingProduct(t *testing.T) {
	in, products := sampleInput()
	delete(products, 200)

	_, err := Compute(in, products)
	require.Error(t, err)
}
