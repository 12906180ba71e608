package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestRoundRupeeNeverRoundsUp(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"7533.0", 7533},
		{"7533.99", 7533},
		{"0.99", 0},
		{"-10.5", -11},
	}
	for _, tc := range cases {
		got := RoundRupee(dec(tc.in))
		if got != tc.want {
			t.Fatalf("RoundRupee(%s) = %d, want %d", tc.in, got, tc.want)
		}
		again := RoundRupee(decimal.NewFromInt(got))
		if again != got {
			t.Fatalf("RoundRupee not idempotent for %s: %d then %d", tc.in, got, again)
		}
	}
}

func TestDocumentTotalsVendorScenario(t *testing.T) {
	units := []WeighedUnit{
		{Count: 100, WeightKg: dec("45.5")},
		{Count: 80, WeightKg: dec("38.2")},
	}
	totals := DocumentTotals(units, dec("90"))

	if totals.Count != 180 {
		t.Fatalf("count = %d, want 180", totals.Count)
	}
	if !totals.WeightKg.Equal(dec("83.7")) {
		t.Fatalf("weight = %s, want 83.7", totals.WeightKg)
	}
	if totals.Amount != 7533 {
		t.Fatalf("amount = %d, want 7533", totals.Amount)
	}
}

func TestDocumentTotalsOrderIndependent(t *testing.T) {
	forward := []WeighedUnit{
		{Count: 10, WeightKg: dec("4.2")},
		{Count: 7, WeightKg: dec("3.3")},
		{Count: 12, WeightKg: dec("5.05")},
	}
	reversed := []WeighedUnit{forward[2], forward[1], forward[0]}

	a := DocumentTotals(forward, dec("87.5"))
	b := DocumentTotals(reversed, dec("87.5"))
	if a.Count != b.Count || !a.WeightKg.Equal(b.WeightKg) || a.Amount != b.Amount {
		t.Fatalf("totals differ across permutations: %+v vs %+v", a, b)
	}
}

func TestDocumentTotalsEmpty(t *testing.T) {
	totals := DocumentTotals(nil, dec("90"))
	if totals.Count != 0 || !totals.WeightKg.IsZero() || totals.Amount != 0 {
		t.Fatalf("expected zero totals, got %+v", totals)
	}
}

func TestProfitLossCanBeNegative(t *testing.T) {
	if got := ProfitLoss(dec("83.7"), dec("95"), dec("90")); got != 418 {
		t.Fatalf("profit = %d, want 418", got)
	}
	if got := ProfitLoss(dec("10"), dec("85"), dec("90")); got != -50 {
		t.Fatalf("loss = %d, want -50", got)
	}
}

func TestMeanDistinctRate(t *testing.T) {
	rates := []decimal.Decimal{dec("90"), dec("100"), dec("90")}
	if got := MeanDistinctRate(rates); !got.Equal(dec("95")) {
		t.Fatalf("mean = %s, want 95", got)
	}
	if got := MeanDistinctRate(nil); !got.IsZero() {
		t.Fatalf("mean of empty = %s, want 0", got)
	}
}

func TestPartsMatchTotal(t *testing.T) {
	if !PartsMatchTotal(dec("300"), dec("200"), dec("500")) {
		t.Fatal("exact split rejected")
	}
	if !PartsMatchTotal(dec("300"), dec("200.005"), dec("500")) {
		t.Fatal("split within tolerance rejected")
	}
	if PartsMatchTotal(dec("300"), dec("150"), dec("500")) {
		t.Fatal("short split accepted")
	}
}
