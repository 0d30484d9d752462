package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Candidate is a raw (date, description, amount) triple lifted from one OCR
// text line, before any normalization.
type Candidate struct {
	DateRaw   string
	DescRaw   string
	AmountRaw string
	Summary   bool
}

const (
	// shortDate is a row-level date: numeric with optional year, or "Mon 4".
	shortDate = `(\d{1,2}[/\-.]\d{1,2}(?:[/\-.]\d{2,4})?|[A-Za-z]{3}\.?\s+\d{1,2})`
	// amountTok tolerates OCR letter-for-digit confusions but insists on at
	// least one true digit, so a word ending in S or O cannot pose as an
	// amount. NormalizeAmount rejects whatever was not actually a number.
	amountTok = `[-(]?\$?\s?-?[0-9SBIlZzOokD.,]*[0-9][0-9SBIlZzOokD.,]*\)?-?`
)

var (
	txLineRE = regexp.MustCompile(`^` + shortDate + `\s+(.{3,}?)\s+(` + amountTok + `)(?:\s+` + amountTok + `)?\s*$`)

	monthHeaderRE = regexp.MustCompile(`(?i)^\s*(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+(\d{4})\s*$`)

	newBalanceRE = regexp.MustCompile(`(?i)(?:new|statement)\s+balance[:\s]*(` + amountTok + `)`)
	dueDateRE    = regexp.MustCompile(`(?i)payment\s+due\s+date`)

	acctSuffixRE = regexp.MustCompile(`(?i)(?:account|acct|card)(?:\s+number)?\s+ending(?:\s+in)?\s+(\d{2,4})|[xX*]{2,}(\d{4})`)

	bareMonthDayRE = regexp.MustCompile(`^\d{1,2}[/\-.]\d{1,2}$`)
)

// ScanLines walks OCR text line by line collecting transaction candidates.
// Lines that do not look like transaction rows are skipped silently:
// statements interleave boilerplate with rows, so a non-match is expected.
// A bare month header ("January 2025") updates a rolling year context that
// qualifies later year-less dates in the same section.
func ScanLines(text string) []Candidate {
	var out []Candidate
	ctxYear := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := monthHeaderRE.FindStringSubmatch(line); m != nil {
			if y, err := strconv.Atoi(m[2]); err == nil {
				ctxYear = y
			}
			continue
		}
		m := txLineRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		dateRaw := strings.TrimSpace(m[1])
		if ctxYear > 0 && bareMonthDayRE.MatchString(dateRaw) {
			dateRaw = dateRaw + "/" + strconv.Itoa(ctxYear)
		}
		out = append(out, Candidate{
			DateRaw:   dateRaw,
			DescRaw:   strings.TrimSpace(m[2]),
			AmountRaw: strings.TrimSpace(m[3]),
		})
	}
	return out
}

// ScanSummary looks for a statement-level "New Balance" rollup. The amount is
// gated to (0, ceiling) because summary boxes sit next to dense print that
// OCR loves to mangle into huge numbers.
func ScanSummary(text string, cfg Config) (Candidate, bool) {
	m := newBalanceRE.FindStringSubmatch(text)
	if m == nil {
		return Candidate{}, false
	}
	amt := NormalizeAmount(m[1], cfg)
	if !summaryPlausible(amt, cfg) {
		return Candidate{}, false
	}
	desc := "New Balance"
	if dueDateRE.MatchString(text) {
		desc = "New Balance - Payment Due"
	}
	return Candidate{DescRaw: desc, AmountRaw: m[1], Summary: true}, true
}

// AccountSuffix pulls the trailing digits of a masked account number from
// page text, e.g. "Account ending in 1234" or "XXXX1234".
func AccountSuffix(text string) string {
	m := acctSuffixRE.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}

// summaryPlausible reports whether a summary rollup amount is inside the
// (0, ceiling) gate.
func summaryPlausible(amt decimal.Decimal, cfg Config) bool {
	return amt.IsPositive() && amt.LessThan(cfg.SummaryCeiling)
}
