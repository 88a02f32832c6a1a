package pricing

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyDiscount(t *testing.T) {
	cases := []struct {
		name     string
		price    float64
		percent  float64
		expected float64
	}{
		{name: "ten percent", price: 100, percent: 10, expected: 90},
		{name: "zero percent keeps price", price: 50, percent: 0, expected: 50},
		{name: "full discount", price: 75, percent: 100, expected: 0},
		{name: "free item", price: 0, percent: 30, expected: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ApplyDiscount(tc.price, tc.percent)
			require.NoError(t, err)
			require.Equal(t, tc.expected, got)
		})
	}
}

func TestApplyDiscountDecimalPrice(t *testing.T) {
	got, err := ApplyDiscount(19.99, 10)
	require.NoError(t, err)
	require.InDelta(t, 17.99, got, 0.005)
}

func TestApplyDiscountRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name    string
		price   float64
		percent float64
		target  error
		message string
	}{
		{name: "negative price", price: -10, percent: 10, target: ErrNegativePrice, message: "Price cannot be negative"},
		{name: "negative discount", price: 100, percent: -5, target: ErrNegativeDiscount, message: "Discount cannot be negative"},
		{name: "discount above 100", price: 100, percent: 150, target: ErrDiscountTooLarge, message: "Discount cannot exceed 100%"},
		{name: "price checked first", price: -1, percent: 150, target: ErrNegativePrice, message: "Price cannot be negative"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ApplyDiscount(tc.price, tc.percent)
			require.Error(t, err)
			require.ErrorIs(t, err, tc.target)
			require.ErrorIs(t, err, ErrInvalidInput)
			require.EqualError(t, err, tc.message)
		})
	}
}

func TestCalculateTax(t *testing.T) {
	tax, err := CalculateTax(100, 8.5, false)
	require.NoError(t, err)
	require.InDelta(t, 8.5, tax, 0.005)

	tax, err = CalculateTax(50, 0, false)
	require.NoError(t, err)
	require.Zero(t, tax)

	tax, err = CalculateTax(19.99, 10, false)
	require.NoError(t, err)
	require.Equal(t, 2.0, tax)

	tax, err = CalculateTax(100, 8.5, true)
	require.NoError(t, err)
	require.Zero(t, tax)
}

func TestCalculateTaxRejectsInvalidInput(t *testing.T) {
	_, err := CalculateTax(-10, 8.5, false)
	require.ErrorIs(t, err, ErrNegativePrice)
	require.EqualError(t, err, "Price cannot be negative")

	_, err = CalculateTax(100, -5, false)
	require.ErrorIs(t, err, ErrNegativeTaxRate)
	require.EqualError(t, err, "Tax rate cannot be negative")

	// exemption does not bypass validation
	_, err = CalculateTax(100, -5, true)
	require.ErrorIs(t, err, ErrNegativeTaxRate)
}

func TestCalculateTotalScenarios(t *testing.T) {
	cases := []struct {
		name     string
		items    []CartItem
		discount float64
		taxRate  float64
		expected CartTotals
	}{
		{
			name:     "single item",
			items:    []CartItem{{Price: 4, Quantity: 1}},
			expected: CartTotals{Subtotal: 4, Total: 4},
		},
		{
			name:     "multiple items",
			items:    []CartItem{{Price: 4, Quantity: 1}, {Price: 3, Quantity: 1}},
			expected: CartTotals{Subtotal: 7, Total: 7},
		},
		{
			name:     "discount before tax",
			items:    []CartItem{{Price: 4, Quantity: 1}},
			discount: 50,
			taxRate:  50,
			expected: CartTotals{Subtotal: 4, Discount: 2, Tax: 1, Total: 3},
		},
		{
			name:     "tax exempt item",
			items:    []CartItem{{Price: 4, Quantity: 1, IsTaxExempt: true}, {Price: 4, Quantity: 1}},
			taxRate:  50,
			expected: CartTotals{Subtotal: 8, Tax: 2, Total: 10},
		},
		{
			name:     "quantity above one",
			items:    []CartItem{{Price: 2, Quantity: 2}},
			expected: CartTotals{Subtotal: 4, Total: 4},
		},
		{
			name:     "empty cart",
			items:    nil,
			discount: 25,
			taxRate:  10,
			expected: CartTotals{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CalculateTotal(tc.items, tc.discount, tc.taxRate)
			require.NoError(t, err)
			require.Equal(t, tc.expected, got)
		})
	}
}

func TestCalculateTotalMixedCart(t *testing.T) {
	items := []CartItem{
		{Price: 2.99, Quantity: 1},
		{Price: 3.89, Quantity: 3},
		{Price: 1.50, Quantity: 3, IsTaxExempt: true},
		{Price: 5, Quantity: 1},
		{Price: 3, Quantity: 2},
		{Price: 1, Quantity: 4, IsTaxExempt: true},
	}
	got, err := CalculateTotal(items, 11, 8.5)
	require.NoError(t, err)
	require.InDelta(t, 34.16, got.Subtotal, 0.005)
	require.InDelta(t, 3.76, got.Discount, 0.005)
	require.InDelta(t, 1.94, got.Tax, 0.005)
	require.InDelta(t, 32.34, got.Total, 0.005)
}

func TestCalculateTotalGroceryReceipt(t *testing.T) {
	items := []CartItem{
		{Price: 5.86, Quantity: 1},
		{Price: 9.51, Quantity: 1, IsTaxExempt: true},
		{Price: 1.98, Quantity: 4, IsTaxExempt: true},
		{Price: 1.32, Quantity: 1},
		{Price: 4.97, Quantity: 1},
		{Price: 8.12, Quantity: 1},
		{Price: 8.27, Quantity: 2},
	}
	got, err := CalculateTotal(items, 0, 8.8)
	require.NoError(t, err)
	require.InDelta(t, 54.24, got.Subtotal, 0.05)
	require.Zero(t, got.Discount)
	// per line rounding yields 3.25 where rounding the summed tax would give 3.24
	require.InDelta(t, 3.25, got.Tax, 0.005)
	require.InDelta(t, 57.48, got.Total, 0.05)
}

func TestCalculateTotalRoundsTaxPerLine(t *testing.T) {
	// each line owes 0.004 tax, which rounds to zero before summation
	items := []CartItem{{Price: 0.05, Quantity: 1}, {Price: 0.05, Quantity: 1}, {Price: 0.05, Quantity: 1}}
	got, err := CalculateTotal(items, 0, 8)
	require.NoError(t, err)
	require.Zero(t, got.Tax)
	require.InDelta(t, 0.15, got.Total, 1e-9)
}

func TestCalculateTotalPropagatesItemErrors(t *testing.T) {
	items := []CartItem{{Price: 4, Quantity: 1}, {Price: -1, Quantity: 1}}
	got, err := CalculateTotal(items, 10, 10)
	require.ErrorIs(t, err, ErrNegativePrice)
	require.Equal(t, CartTotals{}, got)

	// a negative quantity produces a negative line amount
	_, err = CalculateTotal([]CartItem{{Price: 4, Quantity: -2}}, 0, 0)
	require.ErrorIs(t, err, ErrNegativePrice)
}

func TestCalculateTotalRejectsInvalidRates(t *testing.T) {
	_, err := CalculateTotal([]CartItem{{Price: 1, Quantity: 1}}, 101, 0)
	require.ErrorIs(t, err, ErrDiscountTooLarge)

	_, err = CalculateTotal([]CartItem{{Price: 1, Quantity: 1}}, -1, 0)
	require.ErrorIs(t, err, ErrNegativeDiscount)

	// exempt lines still validate the rate
	_, err = CalculateTotal([]CartItem{{Price: 1, Quantity: 1, IsTaxExempt: true}}, 0, -3)
	require.ErrorIs(t, err, ErrNegativeTaxRate)
}

func TestCalculateTotalEmptyCartIgnoresRates(t *testing.T) {
	for _, rates := range [][2]float64{{150, 0}, {-1, 0}, {0, -5}} {
		got, err := CalculateTotal(nil, rates[0], rates[1])
		require.NoError(t, err)
		require.Equal(t, CartTotals{}, got)
	}
}

func TestCalculateTotalReportsFirstLineError(t *testing.T) {
	// the price is checked before either rate on each line
	_, err := CalculateTotal([]CartItem{{Price: -1, Quantity: 1}}, 150, 0)
	require.ErrorIs(t, err, ErrNegativePrice)
	require.EqualError(t, err, "Price cannot be negative")

	_, err = CalculateTotal([]CartItem{{Price: -1, Quantity: 1}}, 0, -5)
	require.ErrorIs(t, err, ErrNegativePrice)

	_, err = CalculateTotal([]CartItem{{Price: 2, Quantity: 1}, {Price: -1, Quantity: 1}}, 0, -5)
	require.ErrorIs(t, err, ErrNegativeTaxRate)
}

func TestCalculateBreakdownMatchesTotals(t *testing.T) {
	items := []CartItem{
		{Price: 4, Quantity: 1, IsTaxExempt: true},
		{Price: 2.5, Quantity: 2},
	}
	totals, err := CalculateTotal(items, 20, 10)
	require.NoError(t, err)
	b, err := CalculateBreakdown(items, 20, 10)
	require.NoError(t, err)
	require.Equal(t, totals, b.CartTotals)
	require.Len(t, b.Lines, 2)

	require.Equal(t, Line{Index: 0, Gross: 4, Discounted: 3.2, Discount: 0.8, Tax: 0, TaxExempt: true}, b.Lines[0])
	require.Equal(t, 1, b.Lines[1].Index)
	require.Equal(t, 5.0, b.Lines[1].Gross)
	require.Equal(t, 4.0, b.Lines[1].Discounted)
	require.Equal(t, 0.4, b.Lines[1].Tax)
}

func TestPricingProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	for i := 0; i < 500; i++ {
		price := math.Round(rng.Float64()*100000) / 100
		percent := rng.Float64() * 100
		rate := rng.Float64() * 30

		full, err := ApplyDiscount(price, 0)
		require.NoError(t, err)
		require.Equal(t, price, full)

		none, err := ApplyDiscount(price, 100)
		require.NoError(t, err)
		require.Zero(t, none)

		got, err := ApplyDiscount(price, percent)
		require.NoError(t, err)
		require.InDelta(t, price-(price*percent/100), got, 1e-9*math.Max(1, price))

		exempt, err := CalculateTax(price, rate, true)
		require.NoError(t, err)
		require.Zero(t, exempt)

		zero, err := CalculateTax(price, 0, false)
		require.NoError(t, err)
		require.Zero(t, zero)

		tax, err := CalculateTax(price, rate, false)
		require.NoError(t, err)
		require.InDelta(t, math.Round(tax*100), tax*100, 1e-6)
	}
}

func TestCalculateTotalIdentity(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 11))
	for i := 0; i < 200; i++ {
		n := rng.IntN(8)
		items := make([]CartItem, n)
		for j := range items {
			items[j] = CartItem{
				Price:       math.Round(rng.Float64()*5000) / 100,
				Quantity:    float64(1 + rng.IntN(5)),
				IsTaxExempt: rng.IntN(4) == 0,
			}
		}
		got, err := CalculateTotal(items, rng.Float64()*100, rng.Float64()*25)
		require.NoError(t, err)
		require.InDelta(t, got.Subtotal-got.Discount+got.Tax, got.Total, 0.01+1e-9)
		require.GreaterOrEqual(t, got.Subtotal, got.Discount)
	}
}

func TestKindOf(t *testing.T) {
	_, err := ApplyDiscount(1, 120)
	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, KindDiscountTooLarge, kind)

	var ie *InputError
	require.True(t, errors.As(err, &ie))
	require.Equal(t, 120.0, ie.Value)

	_, ok = KindOf(errors.New("boom"))
	require.False(t, ok)
}
