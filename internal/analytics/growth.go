package analytics

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Growth is the percent change from prev to cur, rounded to one decimal.
// With no previous revenue it is 100 when there is current revenue and 0
// otherwise.
func Growth(cur, prev decimal.Decimal) float64 {
	if prev.IsZero() {
		if cur.IsPositive() {
			return 100
		}
		return 0
	}
	return cur.Sub(prev).Div(prev).Mul(hundred).Round(1).InexactFloat64()
}

// Average returns total/n at two decimals, zero when n is zero.
func Average(total decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(n))).Round(2)
}
