package extract

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func tx(day int, amount, desc string) Transaction {
	return Transaction{
		Date:        time.Date(2024, time.May, day, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.RequireFromString(amount),
		Description: desc,
	}
}

func TestSimilarityOCRNoise(t *testing.T) {
	got := Similarity("WAL-MART #1234", "WALMART 1234")
	if got < 0.8 {
		t.Fatalf("similarity = %.3f, want >= 0.8", got)
	}
	if got := Similarity("NETFLIX.COM", "SHELL OIL 42"); got >= 0.8 {
		t.Fatalf("distinct merchants scored %.3f", got)
	}
}

func TestIsNewSuppressesFuzzyDuplicate(t *testing.T) {
	v := NewValidator(DefaultConfig())
	existing := []Transaction{tx(3, "-45.00", "WAL-MART #1234")}

	if v.IsNew(tx(3, "-45.00", "WALMART 1234"), existing) {
		t.Fatal("fuzzy duplicate slipped through")
	}
	// Different day or amount is a different event.
	if !v.IsNew(tx(4, "-45.00", "WALMART 1234"), existing) {
		t.Fatal("different day must be new")
	}
	if !v.IsNew(tx(3, "-46.00", "WALMART 1234"), existing) {
		t.Fatal("different amount must be new")
	}
}

func TestFilterNewIntraBatch(t *testing.T) {
	v := NewValidator(DefaultConfig())
	cands := []Transaction{
		tx(3, "-45.00", "WAL-MART #1234"),
		tx(3, "-45.00", "WALMART 1234"),
		tx(3, "-9.99", "NETFLIX.COM"),
	}
	kept := v.FilterNew(cands, nil)
	if len(kept) != 2 {
		t.Fatalf("kept %d candidates, want 2", len(kept))
	}
}

func TestFilterNewAgainstStore(t *testing.T) {
	v := NewValidator(DefaultConfig())
	existing := []Transaction{tx(3, "-45.00", "WALMART 1234")}
	kept := v.FilterNew([]Transaction{tx(3, "-45.00", "WAL-MART #1234")}, existing)
	if len(kept) != 0 {
		t.Fatalf("kept %d, want 0 against matching store entry", len(kept))
	}
}

func TestSimilarityThresholdConfigurable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Similarity = 0.99
	v := NewValidator(cfg)
	existing := []Transaction{tx(3, "-45.00", "WAL-MART #1234")}
	if !v.IsNew(tx(3, "-45.00", "WALMART 1234"), existing) {
		t.Fatal("0.99 threshold should treat the pair as distinct")
	}
}
