package extract

import (
	"testing"

	"github.com/shopspring/decimal"
)

func checkAmount(t *testing.T, raw, want string) {
	t.Helper()
	got := NormalizeAmount(raw, DefaultConfig())
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("NormalizeAmount(%q) = %s, want %s", raw, got, want)
	}
}

func TestNormalizeAmountUSFormat(t *testing.T) {
	checkAmount(t, "$1,234.56", "1234.56")
}

func TestNormalizeAmountParensNegative(t *testing.T) {
	checkAmount(t, "(45.00)", "-45.00")
}

func TestNormalizeAmountEuropeanFormat(t *testing.T) {
	checkAmount(t, "1.234,56", "1234.56")
}

func TestNormalizeAmountOCRConfusions(t *testing.T) {
	checkAmount(t, "1O0.00", "100.00")
	checkAmount(t, "$4S.5O", "45.50")
	checkAmount(t, "1,2Z4.00", "1224.00")
}

func TestNormalizeAmountTrailingMinus(t *testing.T) {
	checkAmount(t, "45.00-", "-45.00")
	checkAmount(t, "– 45.00", "-45.00")
}

func TestNormalizeAmountCommaOnlyHeuristic(t *testing.T) {
	checkAmount(t, "1,234", "1234")
	checkAmount(t, "12,34", "12.34")
}

func TestNormalizeAmountRangeRejection(t *testing.T) {
	// Plausibility bound: OCR misreads are reliably orders of magnitude off.
	checkAmount(t, "999999999.99", "0")
}

func TestNormalizeAmountGarbage(t *testing.T) {
	checkAmount(t, "", "0")
	checkAmount(t, "N/A", "0")
	checkAmount(t, "---", "0")
}

func TestNormalizeAmountConfigurableBound(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxAmount = decimal.NewFromInt(50)
	if got := NormalizeAmount("51.00", cfg); !got.IsZero() {
		t.Fatalf("expected 51.00 rejected under bound 50, got %s", got)
	}
	if got := NormalizeAmount("49.00", cfg); !got.Equal(decimal.RequireFromString("49")) {
		t.Fatalf("expected 49.00 accepted, got %s", got)
	}
}
