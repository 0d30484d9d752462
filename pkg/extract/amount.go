package extract

import (
	"log"
	"strings"

	"github.com/shopspring/decimal"
)

// ocrDigitRepairs maps characters Tesseract commonly confuses for digits.
// Applied only when the token already contains at least one real digit.
var ocrDigitRepairs = map[rune]rune{
	'S': '5', 's': '5',
	'B': '8',
	'I': '1', 'l': '1', '|': '1',
	'Z': '2', 'z': '2',
	'O': '0', 'o': '0', 'k': '0',
	'D': '0',
}

// NormalizeAmount resolves a raw amount token into a signed decimal value.
// It never fails: irrecoverable garbage and implausibly large values both
// collapse to zero (logged), so one bad token never sinks a page.
func NormalizeAmount(raw string, cfg Config) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}

	// En/em dashes read off low-quality scans become minus signs.
	s = strings.ReplaceAll(s, "–", "-")
	s = strings.ReplaceAll(s, "—", "-")

	// Parenthesized value is accounting notation for an outflow.
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}

	if strings.ContainsAny(s, "0123456789") {
		s = strings.Map(func(r rune) rune {
			if rep, ok := ocrDigitRepairs[r]; ok {
				return rep
			}
			return r
		}, s)
	}

	// Strip currency symbols, remaining letters, and whitespace.
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9':
			return r
		case r == '.' || r == ',' || r == '-':
			return r
		default:
			return -1
		}
	}, s)

	// A trailing or leading minus both mean negative; collapse to one flag.
	for strings.HasSuffix(s, "-") {
		neg = true
		s = strings.TrimSuffix(s, "-")
	}
	for strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimPrefix(s, "-")
	}
	s = strings.ReplaceAll(s, "-", "")

	s = resolveSeparators(s)
	if s == "" {
		return decimal.Zero
	}

	val, err := decimal.NewFromString(s)
	if err != nil {
		log.Printf("amount: unparseable token %q (from %q)", s, raw)
		return decimal.Zero
	}
	if neg {
		val = val.Neg()
	}
	if val.Abs().GreaterThan(cfg.MaxAmount) {
		log.Printf("amount: %s from %q exceeds plausibility bound %s, dropping", val, raw, cfg.MaxAmount)
		return decimal.Zero
	}
	return val
}

// resolveSeparators disambiguates decimal points from thousands separators.
// When both '.' and ',' appear, the one closest to the end followed by one or
// two digits is the decimal point; everything else is grouping noise. A lone
// separator kind is decimal only under the same 1-2-trailing-digit rule.
func resolveSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	stripAll := func(in string) string {
		in = strings.ReplaceAll(in, ".", "")
		return strings.ReplaceAll(in, ",", "")
	}

	decimalAt := -1
	switch {
	case lastDot >= 0 && lastComma >= 0:
		last := lastDot
		if lastComma > last {
			last = lastComma
		}
		if trailingDigits(s, last) {
			decimalAt = last
		}
	case lastDot >= 0:
		if strings.Count(s, ".") == 1 && trailingDigits(s, lastDot) {
			decimalAt = lastDot
		}
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && trailingDigits(s, lastComma) {
			decimalAt = lastComma
		}
	default:
		return s
	}

	if decimalAt < 0 {
		return stripAll(s)
	}
	intPart := stripAll(s[:decimalAt])
	frac := s[decimalAt+1:]
	if intPart == "" {
		intPart = "0"
	}
	return intPart + "." + frac
}

// trailingDigits reports whether s has exactly one or two digits after the
// separator at index i, and nothing else.
func trailingDigits(s string, i int) bool {
	tail := s[i+1:]
	if len(tail) < 1 || len(tail) > 2 {
		return false
	}
	for _, r := range tail {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
