package extract

import "github.com/shopspring/decimal"

// Config carries the tunable heuristics of the pipeline.
type Config struct {
	// MaxAmount is the absolute plausibility bound for a single transaction.
	// Normalized amounts outside ±MaxAmount collapse to zero.
	MaxAmount decimal.Decimal
	// SummaryCeiling bounds a statement-level "New Balance" rollup. Values
	// at or above it are treated as OCR garbage and dropped.
	SummaryCeiling decimal.Decimal
	// Similarity is the minimum description similarity (0..1) for two
	// transactions with equal date and amount to count as duplicates.
	Similarity float64
}

// DefaultConfig returns the stock heuristics.
func DefaultConfig() Config {
	return Config{
		MaxAmount:      decimal.NewFromInt(100000),
		SummaryCeiling: decimal.NewFromInt(50000),
		Similarity:     0.8,
	}
}
