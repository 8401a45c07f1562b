package domain

import "github.com/shopspring/decimal"

// stackingEpsilon keeps a stacked order total strictly positive.
var stackingEpsilon = decimal.NewFromFloat(0.01)

// CapCombinedDiscount applies the stacking policy: product-level and
// coupon-level discounts add, but the combined discount never exceeds the
// subtotal minus one cent. Callers composing both sources must route the sum
// through here, since no single evaluator sees both.
func CapCombinedDiscount(subtotal, combined decimal.Decimal) decimal.Decimal {
	if combined.IsNegative() {
		return decimal.Zero
	}
	ceiling := subtotal.Sub(stackingEpsilon)
	if ceiling.IsNegative() {
		return decimal.Zero
	}
	if combined.GreaterThan(ceiling) {
		return ceiling
	}
	return combined
}
