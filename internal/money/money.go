// Package money holds the pure monetary arithmetic for trade documents.
// Amounts cross package boundaries as whole-rupee int64 values; weights and
// per-kg rates stay decimal until the final rounding step.
package money

import "github.com/shopspring/decimal"

// splitTolerance is the allowed gap between a stated paid amount and the
// sum of its cash/online parts.
var splitTolerance = decimal.RequireFromString("0.01")

// WeighedUnit is one counted, weighed inventory line.
type WeighedUnit struct {
	Count    int
	WeightKg decimal.Decimal
}

// Totals aggregates the inventory lines of one document.
type Totals struct {
	Count    int
	WeightKg decimal.Decimal
	Amount   int64
}

// RoundRupee rounds an amount down to a whole rupee. It never rounds up:
// intermediate totals understate what a party owes rather than charging a
// fraction nobody agreed to.
func RoundRupee(amount decimal.Decimal) int64 {
	return amount.Floor().IntPart()
}

// DocumentTotals sums bird counts and weights and prices the total weight at
// ratePerKg. Empty input yields zero totals. Order of units is immaterial.
func DocumentTotals(units []WeighedUnit, ratePerKg decimal.Decimal) Totals {
	totals := Totals{WeightKg: decimal.Zero}
	for _, unit := range units {
		totals.Count += unit.Count
		totals.WeightKg = totals.WeightKg.Add(unit.WeightKg)
	}
	totals.Amount = RoundRupee(totals.WeightKg.Mul(ratePerKg))
	return totals
}

// ProfitLoss computes the rupee margin on a sold weight. Negative means loss.
func ProfitLoss(weightKg, sellRate, buyRate decimal.Decimal) int64 {
	return RoundRupee(sellRate.Sub(buyRate).Mul(weightKg))
}

// MeanDistinctRate returns the arithmetic mean of the distinct rates in the
// input. When a sale mixes stock bought at several rates this mean stands in
// for per-unit costing; it is an approximation, not a weighted average.
func MeanDistinctRate(rates []decimal.Decimal) decimal.Decimal {
	if len(rates) == 0 {
		return decimal.Zero
	}
	seen := make(map[string]struct{}, len(rates))
	sum := decimal.Zero
	count := 0
	for _, rate := range rates {
		key := rate.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		sum = sum.Add(rate)
		count++
	}
	return sum.Div(decimal.NewFromInt(int64(count)))
}

// PartsMatchTotal reports whether cash+online equals the stated total within
// the split tolerance.
func PartsMatchTotal(cash, online, total decimal.Decimal) bool {
	diff := cash.Add(online).Sub(total).Abs()
	return diff.LessThanOrEqual(splitTolerance)
}
