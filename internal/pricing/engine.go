package pricing

import "math"

// CartItem describes a line item used for pricing calculation.
type CartItem struct {
	Price       float64
	Quantity    float64
	IsTaxExempt bool
}

// CartTotals aggregates computed pricing components rounded to cents.
type CartTotals struct {
	Subtotal float64
	Discount float64
	Tax      float64
	Total    float64
}

// Line is the per-item view of a calculation.
type Line struct {
	Index      int
	Gross      float64
	Discounted float64
	Discount   float64
	Tax        float64
	TaxExempt  bool
}

// Breakdown pairs cart totals with their line level components.
type Breakdown struct {
	CartTotals
	Lines []Line
}

// RoundCents rounds to two decimal places, half away from zero on the cent boundary.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// ApplyDiscount returns price reduced by discountPercent. The result is not rounded.
func ApplyDiscount(price, discountPercent float64) (float64, error) {
	if price < 0 {
		return 0, inputError(KindNegativePrice, price)
	}
	if discountPercent < 0 {
		return 0, inputError(KindNegativeDiscount, discountPercent)
	}
	if discountPercent > 100 {
		return 0, inputError(KindDiscountTooLarge, discountPercent)
	}
	multiplier := 1 - discountPercent/100
	return price * multiplier, nil
}

// CalculateTax returns the tax owed on price at taxRate percent, rounded to cents.
// Exempt items owe nothing, but their inputs are still validated.
func CalculateTax(price, taxRate float64, isTaxExempt bool) (float64, error) {
	if price < 0 {
		return 0, inputError(KindNegativePrice, price)
	}
	if taxRate < 0 {
		return 0, inputError(KindNegativeTaxRate, taxRate)
	}
	if isTaxExempt {
		return 0, nil
	}
	tax := price * (taxRate / 100)
	return RoundCents(tax), nil
}

// CalculateTotal computes cart totals. The discount is applied to every line's
// price x quantity before tax is computed on the discounted amount; tax is
// rounded per line and then summed. Lines are validated in input order, so an
// empty cart prices to zero whatever the rates.
func CalculateTotal(items []CartItem, discountPercent, taxRate float64) (CartTotals, error) {
	b, err := compute(items, discountPercent, taxRate, false)
	if err != nil {
		return CartTotals{}, err
	}
	return b.CartTotals, nil
}

// CalculateBreakdown behaves like CalculateTotal and also reports each line.
func CalculateBreakdown(items []CartItem, discountPercent, taxRate float64) (Breakdown, error) {
	return compute(items, discountPercent, taxRate, true)
}

func compute(items []CartItem, discountPercent, taxRate float64, withLines bool) (Breakdown, error) {
	var (
		subtotal   float64
		discounted float64
		tax        float64
		lines      []Line
	)
	if withLines {
		lines = make([]Line, 0, len(items))
	}
	for i, it := range items {
		// explicit conversion keeps the product from being fused into the sum
		gross := float64(it.Price * it.Quantity)
		subtotal += gross

		net, err := ApplyDiscount(gross, discountPercent)
		if err != nil {
			return Breakdown{}, err
		}
		discounted += net

		lineTax, err := CalculateTax(net, taxRate, it.IsTaxExempt)
		if err != nil {
			return Breakdown{}, err
		}
		tax += lineTax

		if withLines {
			lines = append(lines, Line{
				Index:      i,
				Gross:      RoundCents(gross),
				Discounted: RoundCents(net),
				Discount:   RoundCents(gross - net),
				Tax:        lineTax,
				TaxExempt:  it.IsTaxExempt,
			})
		}
	}

	discount := subtotal - discounted
	total := subtotal - discount + tax
	return Breakdown{
		CartTotals: CartTotals{
			Subtotal: RoundCents(subtotal),
			Discount: RoundCents(discount),
			Tax:      RoundCents(tax),
			Total:    RoundCents(total),
		},
		Lines: lines,
	}, nil
}
