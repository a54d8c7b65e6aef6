// Package money does currency arithmetic in decimal and hands back float64
// values rounded to cents for JSON.
package money

import "github.com/shopspring/decimal"

// Line is a priced quantity.
type Line struct {
	Price    float64
	Quantity int
}

// Subtotal returns sum(price*quantity) as a decimal.
func Subtotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// Round2 rounds half away from zero to two decimal places.
func Round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// NetTotal returns max(0, subtotal - discount) rounded to cents.
func NetTotal(lines []Line, discount float64) float64 {
	net := Subtotal(lines).Sub(decimal.NewFromFloat(discount))
	if net.IsNegative() {
		return 0
	}
	return Round2(net)
}
