// Package pricing derives the order totals shown to the customer. All
// arithmetic uses decimal values; rounding to display precision happens only
// at the presentation boundary, never between additions.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/papercart/storefront/internal/cart"
)

// Subtotal returns the sum of price * quantity across all line items.
// Pure function of the cart state; recomputed on demand, never cached.
func Subtotal(items []cart.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		line := it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		sum = sum.Add(line)
	}
	return sum
}

// Total applies the discount to the subtotal, floored at zero. A discount
// larger than the subtotal can never push the total negative.
func Total(subtotal, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// Format renders an amount at two-decimal display precision.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}
