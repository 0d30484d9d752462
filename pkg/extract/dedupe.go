package extract

import (
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Validator fuzzy-matches candidates against already-persisted transactions.
// Two rows are the same event when they share a calendar day, an exact
// amount, and descriptions within the similarity threshold. The fuzz absorbs
// OCR noise ("WAL-MART #1234" vs "WALMART 1234") while keeping materially
// different line items distinct.
type Validator struct {
	threshold float64
}

// NewValidator builds a validator with the configured similarity threshold.
func NewValidator(cfg Config) *Validator {
	return &Validator{threshold: cfg.Similarity}
}

// Similarity is 1 - lev/max(len), computed case-insensitively. Two empty
// strings are identical.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	dist := fuzzy.LevenshteinDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}

// IsNew reports whether the candidate matches no existing transaction.
func (v *Validator) IsNew(cand Transaction, existing []Transaction) bool {
	for _, e := range existing {
		if !sameDay(cand.Date, e.Date) {
			continue
		}
		if !cand.Amount.Equal(e.Amount) {
			continue
		}
		if Similarity(cand.Description, e.Description) >= v.threshold {
			return false
		}
	}
	return true
}

// FilterNew drops candidates that duplicate stored transactions or earlier
// candidates from the same batch.
func (v *Validator) FilterNew(cands, existing []Transaction) []Transaction {
	kept := make([]Transaction, 0, len(cands))
	for _, c := range cands {
		if !v.IsNew(c, existing) {
			continue
		}
		if !v.IsNew(c, kept) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
